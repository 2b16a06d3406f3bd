package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractLocator implements Locator with a local Tesseract engine via
// gosseract. A fresh client is created per call; the trained data cache is
// shared by the Tesseract runtime, so concurrent Locate calls are safe.
type TesseractLocator struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractLocator constructs a Tesseract-backed locator with the given
// language hints.
func NewTesseractLocator(languages []string) *TesseractLocator {
	return &TesseractLocator{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

// Name identifies the backend.
func (t *TesseractLocator) Name() string { return "tesseract" }

// Locate recognizes text lines on the encoded image. Spans are produced in
// Tesseract's scan order with line-level bounding boxes.
func (t *TesseractLocator) Locate(ctx context.Context, image []byte) ([]Span, error) {
	const op = "Locate"

	if len(image) == 0 {
		return nil, NewLocateError(op, ErrEmptyImage, "")
	}
	select {
	case <-ctx.Done():
		return nil, WrapLocateError(op, ctx.Err(), "canceled before recognition")
	default:
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return nil, WrapLocateError(op, ErrLocateFailed, "set image: "+err.Error())
	}
	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return nil, WrapLocateError(op, ErrLocateFailed, "set languages: "+err.Error())
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, WrapLocateError(op, ErrLocateFailed, "bounding boxes: "+err.Error())
	}

	spans := make([]Span, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		spans = append(spans, Span{
			Region: Region{
				X:      b.Box.Min.X,
				Y:      b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
			Text:       text,
			Confidence: b.Confidence / 100.0,
		})
	}
	return spans, nil
}
