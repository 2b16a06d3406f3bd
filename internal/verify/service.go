// Package verify orchestrates the two verification pipelines: the
// structural-difference heatmap against the reference template, and the
// heuristic field extraction over located text.
//
// A single request runs sequentially with no internal parallelism. The
// service itself is safe for concurrent use: the reference template and
// the text-location engine are shared read-only, and the record sink
// serializes its own appends. Per-document failures never abort a request;
// every stage has a defined degraded output (placeholder overlay, withheld
// score, all-sentinel record).
package verify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"certverify/internal/extract"
	"certverify/internal/logger"
	"certverify/internal/ocr"
	"certverify/internal/overlay"
	"certverify/internal/record"
	"certverify/internal/similarity"
	"certverify/pkg/models"
)

// Result is the combined outcome of one verification request. It is always
// fully populated: degraded stages surface as ScoreValid=false or an
// all-sentinel record, never as a missing result.
type Result struct {
	// Record holds the six extracted fields.
	Record models.Record `json:"record"`

	// Score is the global structural similarity against the reference,
	// meaningful only when ScoreValid is true.
	Score float64 `json:"score"`

	// ScoreValid reports whether the similarity pipeline completed. False
	// means the overlay at OverlayPath is a placeholder.
	ScoreValid bool `json:"score_valid"`

	// Located reports whether the text-location engine produced spans.
	// False distinguishes an engine failure from a document that simply
	// matched nothing.
	Located bool `json:"located"`

	// OverlayName is the generated overlay's file name, OverlayPath its
	// full path. A file always exists at OverlayPath after Verify returns.
	OverlayName string `json:"overlay_name"`
	OverlayPath string `json:"overlay_path"`
}

// Options configures a verification service.
type Options struct {
	// ReferenceTemplate is the genuine template path. Absence is non-fatal:
	// overlays degrade to placeholders and the score is withheld.
	ReferenceTemplate string

	// OverlayDir receives the generated overlay images.
	OverlayDir string

	// LocateTimeout bounds the text-location call, the most
	// latency-variable external dependency.
	LocateTimeout time.Duration
}

// Service runs verification requests.
type Service struct {
	locator   ocr.Locator
	sink      record.Sink
	completer extract.Completer
	mapper    *similarity.Mapper
	opts      Options
	log       zerolog.Logger
}

// NewService creates a verification service. The locator is required (use
// ocr.NewDisabledLocator for degraded mode); sink and completer may be nil.
func NewService(locator ocr.Locator, sink record.Sink, completer extract.Completer, opts Options) *Service {
	if opts.LocateTimeout <= 0 {
		opts.LocateTimeout = 60 * time.Second
	}
	return &Service{
		locator:   locator,
		sink:      sink,
		completer: completer,
		mapper:    similarity.NewMapper(),
		opts:      opts,
		log:       logger.WithComponent("verify"),
	}
}

// Verify processes one candidate image end to end. The returned error is
// reserved for infrastructure failures (overlay directory not writable);
// malformed document content degrades instead.
func (s *Service) Verify(ctx context.Context, candidatePath string) (*Result, error) {
	const op = "Verify"

	if err := os.MkdirAll(s.opts.OverlayDir, 0755); err != nil {
		return nil, fmt.Errorf("verify: %s failed: create overlay dir: %w", op, err)
	}

	result := &Result{
		OverlayName: uuid.NewString() + "_heatmap.png",
	}
	result.OverlayPath = filepath.Join(s.opts.OverlayDir, result.OverlayName)

	result.Score, result.ScoreValid = s.renderOverlay(candidatePath, result.OverlayPath)
	result.Record, result.Located = s.extractFields(ctx, candidatePath)

	if s.sink != nil {
		if err := s.sink.Append(ctx, result.Record); err != nil {
			s.log.Error().Err(err).Msg("Failed to append record to sink")
		}
	}

	s.log.Info().
		Str("candidate", candidatePath).
		Bool("score_valid", result.ScoreValid).
		Float64("score", result.Score).
		Bool("located", result.Located).
		Bool("record_complete", result.Record.IsComplete()).
		Msg("Verification completed")

	return result, nil
}

// renderOverlay runs the similarity pipeline and writes the overlay image.
// Any failure writes the placeholder instead so overlay retrieval never
// 404s, and the score is withheld.
func (s *Service) renderOverlay(candidatePath, overlayPath string) (score float64, valid bool) {
	reference, err := loadImage(s.opts.ReferenceTemplate)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("reference", s.opts.ReferenceTemplate).
			Msg("Reference template unavailable, emitting placeholder overlay")
		s.writePlaceholder(overlayPath)
		return 0, false
	}

	candidate, err := loadImage(candidatePath)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("candidate", candidatePath).
			Msg("Candidate image failed to decode, emitting placeholder overlay")
		s.writePlaceholder(overlayPath)
		return 0, false
	}

	mapped, err := s.mapper.Map(reference, candidate)
	if err != nil {
		s.log.Error().Err(err).Msg("Similarity mapping failed, emitting placeholder overlay")
		s.writePlaceholder(overlayPath)
		return 0, false
	}

	composite := overlay.Render(mapped.Surface, mapped.Candidate)
	if err := overlay.WritePNG(overlayPath, composite); err != nil {
		s.log.Error().Err(err).Str("path", overlayPath).Msg("Failed to write overlay image")
		s.writePlaceholder(overlayPath)
		return 0, false
	}

	return mapped.Score, true
}

func (s *Service) writePlaceholder(path string) {
	if err := overlay.WritePNG(path, overlay.Placeholder()); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("Failed to write placeholder overlay")
	}
}

// extractFields runs text location and the heuristic extraction. Every
// failure mode yields a fully-populated all-sentinel record.
func (s *Service) extractFields(ctx context.Context, candidatePath string) (models.Record, bool) {
	img, err := os.ReadFile(candidatePath)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("candidate", candidatePath).
			Msg("Candidate unreadable, returning sentinel record")
		return models.NewRecord(), false
	}

	locateCtx, cancel := context.WithTimeout(ctx, s.opts.LocateTimeout)
	defer cancel()

	spans, err := s.locator.Locate(locateCtx, img)
	if err != nil {
		if errors.Is(err, ocr.ErrEngineUnavailable) {
			s.log.Warn().Msg("Text-location engine unavailable, returning sentinel record")
		} else {
			s.log.Error().Err(err).Str("backend", s.locator.Name()).Msg("Text location failed, returning sentinel record")
		}
		return models.NewRecord(), false
	}

	rec := extract.Extract(spans)

	if s.completer != nil && !rec.IsComplete() {
		completed, err := s.completer.Complete(ctx, rec, joinSpans(spans))
		if err != nil {
			s.log.Warn().Err(err).Msg("Field completion failed, keeping heuristic record")
		} else {
			rec = completed
		}
	}

	return rec, true
}

func joinSpans(spans []ocr.Span) string {
	parts := make([]string, 0, len(spans))
	for _, span := range spans {
		if text := strings.TrimSpace(span.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
