// Package similarity computes the structural-difference surface between a
// genuine reference template and a candidate certificate image.
//
// The comparison is windowed SSIM rather than raw pixel difference: benign
// resampling and compression noise scores close to 1 while structural edits
// (added or removed text, altered seals) pull local scores down. The raw
// similarity field is then normalized per document pair, inverted so higher
// means more suspicious, and blurred with a deliberately large Gaussian
// kernel. The blur destroys fine spatial detail on purpose: the surface
// indicates regions of deviation, never exact tamper boundaries.
package similarity

import (
	"errors"
	"image"

	"github.com/rs/zerolog"

	"certverify/internal/logger"
)

const (
	// WindowSize is the side length of the sliding SSIM comparison window.
	WindowSize = 7

	// k1 and k2 are the standard SSIM stabilization constants.
	k1 = 0.01
	k2 = 0.03

	// dynamicRange is the pixel value range of 8-bit grayscale images.
	dynamicRange = 255.0

	// BlurKernelSize is the Gaussian kernel used to generalize the inverted
	// similarity field into region-level hotspots.
	BlurKernelSize = 51
)

// ErrEmptyImage is returned when a compared image has no pixels.
var ErrEmptyImage = errors.New("similarity: image has no pixels")

// ErrDimensionMismatch is returned by Compare when the grayscale inputs
// have different dimensions. Callers resample first via Resample.
var ErrDimensionMismatch = errors.New("similarity: images have different dimensions")

// Result holds the outcome of mapping a candidate against the reference.
type Result struct {
	// Score is the global structural similarity, near 1.0 for identical
	// images.
	Score float64

	// Surface is the suspicion surface: normalized to [0,1], inverted and
	// blurred. Same dimensions as Candidate.
	Surface *Field

	// Candidate is the candidate image at comparison dimensions. When the
	// upload had different dimensions than the reference this is the
	// resampled version, and the overlay must composite onto it.
	Candidate image.Image
}

// Mapper computes suspicion surfaces against a fixed reference template.
type Mapper struct {
	log zerolog.Logger
}

// NewMapper returns a ready-to-use mapper.
func NewMapper() *Mapper {
	return &Mapper{log: logger.WithComponent("similarity")}
}

// Map compares the candidate against the reference and produces the global
// score and the post-processed suspicion surface.
//
// A candidate whose dimensions differ from the reference is bilinearly
// resampled to match. That is a lossy compatibility shim, not a correctness
// guarantee, and is logged as a warning.
func (m *Mapper) Map(reference, candidate image.Image) (*Result, error) {
	refBounds := reference.Bounds()
	candBounds := candidate.Bounds()

	if refBounds.Dx() == 0 || refBounds.Dy() == 0 || candBounds.Dx() == 0 || candBounds.Dy() == 0 {
		return nil, ErrEmptyImage
	}

	if refBounds.Dx() != candBounds.Dx() || refBounds.Dy() != candBounds.Dy() {
		m.log.Warn().
			Int("reference_width", refBounds.Dx()).
			Int("reference_height", refBounds.Dy()).
			Int("candidate_width", candBounds.Dx()).
			Int("candidate_height", candBounds.Dy()).
			Msg("Images have different dimensions, resampling candidate to match reference")
		candidate = Resample(candidate, refBounds.Dx(), refBounds.Dy())
	}

	score, field, err := Compare(Grayscale(reference), Grayscale(candidate))
	if err != nil {
		return nil, err
	}

	field.Normalize()
	field.Invert()
	field.GaussianBlur(BlurKernelSize)

	m.log.Info().
		Float64("score", score).
		Int("width", field.Width).
		Int("height", field.Height).
		Msg("Similarity mapping completed")

	return &Result{
		Score:     score,
		Surface:   field,
		Candidate: candidate,
	}, nil
}

// Compare computes the windowed structural similarity between two equally
// dimensioned grayscale images. It returns the global score (mean of the
// field) and the per-pixel similarity field, whose values lie in [-1,1].
func Compare(ref, cand *image.Gray) (float64, *Field, error) {
	w, h := ref.Bounds().Dx(), ref.Bounds().Dy()
	if w != cand.Bounds().Dx() || h != cand.Bounds().Dy() {
		return 0, nil, ErrDimensionMismatch
	}
	if w == 0 || h == 0 {
		return 0, nil, ErrEmptyImage
	}

	const (
		c1 = (k1 * dynamicRange) * (k1 * dynamicRange)
		c2 = (k2 * dynamicRange) * (k2 * dynamicRange)
	)
	radius := WindowSize / 2

	field := NewField(w, h)
	var total float64

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-radius), min(w-1, x+radius)
			y0, y1 := max(0, y-radius), min(h-1, y+radius)
			n := float64((x1 - x0 + 1) * (y1 - y0 + 1))

			// Window means
			var sumR, sumC float64
			for wy := y0; wy <= y1; wy++ {
				for wx := x0; wx <= x1; wx++ {
					sumR += float64(ref.GrayAt(wx, wy).Y)
					sumC += float64(cand.GrayAt(wx, wy).Y)
				}
			}
			muR, muC := sumR/n, sumC/n

			// Window variances and covariance
			var varR, varC, cov float64
			for wy := y0; wy <= y1; wy++ {
				for wx := x0; wx <= x1; wx++ {
					dr := float64(ref.GrayAt(wx, wy).Y) - muR
					dc := float64(cand.GrayAt(wx, wy).Y) - muC
					varR += dr * dr
					varC += dc * dc
					cov += dr * dc
				}
			}
			varR /= n
			varC /= n
			cov /= n

			ssim := ((2*muR*muC + c1) * (2*cov + c2)) /
				((muR*muR + muC*muC + c1) * (varR + varC + c2))
			field.Set(x, y, ssim)
			total += ssim
		}
	}

	return total / float64(w*h), field, nil
}

// Grayscale converts an image to 8-bit grayscale using the standard luma
// transform.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
