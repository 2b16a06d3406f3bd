package ocr

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// DocumentAILocator implements Locator using a Google Document AI OCR
// processor. Compared to Vision it yields line-level layout, which matches
// the granularity the positional heuristics expect.
type DocumentAILocator struct {
	client        *documentai.DocumentProcessorClient
	processorName string
	languages     []string
}

// NewDocumentAILocator creates a Document AI-backed locator with credentials
// from the environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
// Requires: GOOGLE_PROJECT_ID, GOOGLE_PROCESSOR_ID
// Optional: GOOGLE_LOCATION (e.g., "us" or "eu", default "us")
func NewDocumentAILocator(ctx context.Context, languages []string) (*DocumentAILocator, error) {
	const op = "NewDocumentAILocator"

	projectID := getEnvVar("GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	location := getEnvVar("GOOGLE_LOCATION", "GOOGLE_CLOUD_LOCATION")
	processorID := getEnvVar("GOOGLE_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_ID")

	if projectID == "" {
		return nil, NewLocateError(op, ErrEngineUnavailable, "GOOGLE_PROJECT_ID or GOOGLE_CLOUD_PROJECT is required")
	}
	if processorID == "" {
		return nil, NewLocateError(op, ErrEngineUnavailable, "GOOGLE_PROCESSOR_ID or DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if location == "" {
		location = "us"
	}

	var clientOptions []option.ClientOption
	if location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapLocateError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapLocateError(op, err, "failed to create Document AI client")
	}

	return &DocumentAILocator{
		client:        client,
		processorName: fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID),
		languages:     languages,
	}, nil
}

// Name identifies the backend.
func (d *DocumentAILocator) Name() string { return "documentai" }

// Locate runs the OCR processor on the image and converts the page line
// layout into spans, preserving the processor's line order.
func (d *DocumentAILocator) Locate(ctx context.Context, image []byte) ([]Span, error) {
	const op = "Locate"

	if len(image) == 0 {
		return nil, NewLocateError(op, ErrEmptyImage, "")
	}

	req := &documentaipb.ProcessRequest{
		Name: d.processorName,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: http.DetectContentType(image),
			},
		},
	}

	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, WrapLocateError(op, ErrLocateFailed, "Document AI call failed: "+err.Error())
	}

	doc := resp.GetDocument()
	if doc == nil {
		return nil, WrapLocateError(op, ErrLocateFailed, "empty Document AI response")
	}

	var spans []Span
	for _, page := range doc.GetPages() {
		for _, line := range page.GetLines() {
			layout := line.GetLayout()
			text := strings.TrimSpace(textFromAnchor(doc.GetText(), layout.GetTextAnchor()))
			if text == "" {
				continue
			}
			spans = append(spans, Span{
				Region:     regionFromLayout(layout, page),
				Text:       text,
				Confidence: float64(layout.GetConfidence()),
			})
		}
	}
	return spans, nil
}

// Close closes the underlying Document AI client.
func (d *DocumentAILocator) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// textFromAnchor resolves a text anchor against the document's full text.
func textFromAnchor(fullText string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil {
		return ""
	}
	var sb strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := seg.GetStartIndex(), seg.GetEndIndex()
		if start < 0 || end > int64(len(fullText)) || start > end {
			continue
		}
		sb.WriteString(fullText[start:end])
	}
	return sb.String()
}

// regionFromLayout computes a pixel bounding box from a layout polygon,
// falling back to normalized vertices scaled by the page dimensions.
func regionFromLayout(layout *documentaipb.Document_Page_Layout, page *documentaipb.Document_Page) Region {
	poly := layout.GetBoundingPoly()
	if poly == nil {
		return Region{}
	}

	if verts := poly.GetVertices(); len(verts) > 0 {
		minX, minY := verts[0].GetX(), verts[0].GetY()
		maxX, maxY := minX, minY
		for _, v := range verts[1:] {
			minX = min(minX, v.GetX())
			minY = min(minY, v.GetY())
			maxX = max(maxX, v.GetX())
			maxY = max(maxY, v.GetY())
		}
		return Region{X: int(minX), Y: int(minY), Width: int(maxX - minX), Height: int(maxY - minY)}
	}

	nverts := poly.GetNormalizedVertices()
	if len(nverts) == 0 {
		return Region{}
	}
	w := float64(page.GetDimension().GetWidth())
	h := float64(page.GetDimension().GetHeight())
	minX, minY := float64(nverts[0].GetX()), float64(nverts[0].GetY())
	maxX, maxY := minX, minY
	for _, v := range nverts[1:] {
		minX = min(minX, float64(v.GetX()))
		minY = min(minY, float64(v.GetY()))
		maxX = max(maxX, float64(v.GetX()))
		maxY = max(maxY, float64(v.GetY()))
	}
	return Region{
		X:      int(minX * w),
		Y:      int(minY * h),
		Width:  int((maxX - minX) * w),
		Height: int((maxY - minY) * h),
	}
}

// getEnvVar returns the first non-empty value among the given environment keys.
func getEnvVar(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}
