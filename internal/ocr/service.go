// Package ocr provides text location capabilities for certificate images.
//
// A text locator is an external collaborator: given an encoded image it
// returns an ordered sequence of spans, each pairing a bounding region with
// the recognized text and a confidence score. Span order is the engine's
// internal scan order, which is not guaranteed to be reading order.
//
// Three backends are supported:
//   - Tesseract (default): local recognition via gosseract, no network.
//   - Google Cloud Vision: TEXT_DETECTION annotations.
//   - Google Document AI: OCR processor line layout.
//
// Cloud backends read credentials from the environment:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Engines are heavyweight to construct (trained data load, client setup)
// and must be created once at startup and shared; Locate is safe for
// concurrent use. When construction fails the service runs in a degraded
// mode where every extraction yields an all-sentinel record, so callers
// should substitute NewDisabledLocator rather than abort.
package ocr

import (
	"context"
	"fmt"
)

// Region is a bounding rectangle in pixel coordinates, origin in the
// upper-left corner of the image.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Span is one unit of located text.
type Span struct {
	// Region is the approximate bounding box of the text on the image.
	Region Region `json:"region"`

	// Text is the recognized string, whitespace-trimmed.
	Text string `json:"text"`

	// Confidence is the engine's recognition confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Locator defines the text-location contract consumed by field extraction.
type Locator interface {
	// Name identifies the backend (e.g. "tesseract").
	Name() string

	// Locate returns the spans recognized on the encoded image, in the
	// engine's scan order. An empty slice is a valid result for a blank
	// image; an error means the engine itself failed.
	Locate(ctx context.Context, image []byte) ([]Span, error)
}

// NewLocator constructs the locator selected by backend. Languages are
// BCP-47 hints (e.g. "eng") that backends may ignore.
func NewLocator(ctx context.Context, backend string, languages []string) (Locator, error) {
	switch backend {
	case "tesseract":
		return NewTesseractLocator(languages), nil
	case "vision":
		return NewGoogleVisionLocator(ctx)
	case "documentai":
		return NewDocumentAILocator(ctx, languages)
	default:
		return nil, NewLocateError("NewLocator", ErrUnsupportedBackend, fmt.Sprintf("backend %q", backend))
	}
}
