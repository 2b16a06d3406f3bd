package ocr

import (
	"context"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// GoogleVisionLocator implements Locator using the Cloud Vision API's
// TEXT_DETECTION feature.
type GoogleVisionLocator struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionLocator creates a Vision-backed locator with credentials
// from the environment. It expects either GOOGLE_APPLICATION_CREDENTIALS
// path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionLocator(ctx context.Context) (*GoogleVisionLocator, error) {
	const op = "NewGoogleVisionLocator"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapLocateError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapLocateError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapLocateError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionLocator{client: client}, nil
}

// NewGoogleVisionLocatorWithClient creates a locator with an explicit client (for testing).
func NewGoogleVisionLocatorWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionLocator {
	return &GoogleVisionLocator{client: client}
}

// Name identifies the backend.
func (g *GoogleVisionLocator) Name() string { return "vision" }

// Locate annotates the image and converts the word-level text annotations
// into spans. The Vision API returns a leading annotation covering the full
// image text; it is skipped so spans stay word-granular and ordered by the
// API's scan order.
func (g *GoogleVisionLocator) Locate(ctx context.Context, image []byte) ([]Span, error) {
	const op = "Locate"

	if len(image) == 0 {
		return nil, NewLocateError(op, ErrEmptyImage, "")
	}

	annotations, err := g.client.DetectTexts(ctx, &visionpb.Image{Content: image}, nil, 0)
	if err != nil {
		return nil, WrapLocateError(op, ErrLocateFailed, "Vision API call failed: "+err.Error())
	}
	if len(annotations) == 0 {
		return []Span{}, nil
	}

	spans := make([]Span, 0, len(annotations)-1)
	for _, ann := range annotations[1:] {
		text := strings.TrimSpace(ann.Description)
		if text == "" {
			continue
		}
		conf := float64(ann.Confidence)
		if conf == 0 {
			conf = float64(ann.Score)
		}
		spans = append(spans, Span{
			Region:     regionFromPoly(ann.BoundingPoly),
			Text:       text,
			Confidence: conf,
		})
	}
	return spans, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionLocator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// regionFromPoly computes the axis-aligned bounding box of a polygon.
func regionFromPoly(poly *visionpb.BoundingPoly) Region {
	if poly == nil || len(poly.Vertices) == 0 {
		return Region{}
	}
	minX, minY := poly.Vertices[0].X, poly.Vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range poly.Vertices[1:] {
		if v.X < minX {
			minX = v.X
		}
		if v.Y < minY {
			minY = v.Y
		}
		if v.X > maxX {
			maxX = v.X
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	return Region{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}
