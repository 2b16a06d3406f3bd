package similarity

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// fillRect paints a solid rectangle, used to fabricate structural edits.
func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRect(img, img.Bounds(), c)
	return img
}

func TestCompareIdenticalImages(t *testing.T) {
	img := uniformImage(32, 32, color.RGBA{200, 200, 200, 255})
	fillRect(img, image.Rect(8, 8, 24, 24), color.RGBA{30, 30, 30, 255})

	score, field, err := Compare(Grayscale(img), Grayscale(img))
	if err != nil {
		t.Fatalf("Compare returned error: %v", err)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("score for identical images = %v, want 1", score)
	}
	for i, v := range field.Values {
		if math.Abs(v-1) > 1e-9 {
			t.Fatalf("field value %d = %v for identical images, want 1", i, v)
		}
	}
}

func TestCompareDetectsEdit(t *testing.T) {
	ref := uniformImage(32, 32, color.RGBA{220, 220, 220, 255})
	fillRect(ref, image.Rect(4, 4, 12, 12), color.RGBA{0, 0, 0, 255})

	cand := uniformImage(32, 32, color.RGBA{220, 220, 220, 255})
	fillRect(cand, image.Rect(20, 20, 28, 28), color.RGBA{0, 0, 0, 255})

	score, field, err := Compare(Grayscale(ref), Grayscale(cand))
	if err != nil {
		t.Fatalf("Compare returned error: %v", err)
	}
	if score >= 0.99 {
		t.Errorf("score for structurally different images = %v, want < 0.99", score)
	}

	// The edited region must score below an untouched one.
	if field.At(8, 8) >= field.At(16, 0) {
		t.Errorf("edited region %v not below untouched region %v", field.At(8, 8), field.At(16, 0))
	}

	for i, v := range field.Values {
		if v < -1-1e-9 || v > 1+1e-9 {
			t.Fatalf("field value %d = %v outside [-1,1]", i, v)
		}
	}
}

func TestCompareDimensionMismatch(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 10, 10))
	b := image.NewGray(image.Rect(0, 0, 12, 10))

	if _, _, err := Compare(a, b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Compare error = %v, want ErrDimensionMismatch", err)
	}
}

func TestCompareEmptyImage(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 0, 0))

	if _, _, err := Compare(a, a); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Compare error = %v, want ErrEmptyImage", err)
	}
}

func TestMapIdenticalImages(t *testing.T) {
	img := uniformImage(24, 24, color.RGBA{180, 180, 180, 255})
	fillRect(img, image.Rect(6, 6, 18, 18), color.RGBA{40, 40, 40, 255})

	result, err := NewMapper().Map(img, img)
	if err != nil {
		t.Fatalf("Map returned error: %v", err)
	}
	if math.Abs(result.Score-1) > 1e-9 {
		t.Errorf("score = %v, want 1", result.Score)
	}
	if result.Surface.Width != 24 || result.Surface.Height != 24 {
		t.Errorf("surface dimensions = %dx%d, want 24x24", result.Surface.Width, result.Surface.Height)
	}
	min, max := result.Surface.MinMax()
	if min < 0 || max > 1 {
		t.Errorf("surface values outside [0,1]: min=%v max=%v", min, max)
	}
}

func TestMapResamplesMismatchedCandidate(t *testing.T) {
	ref := uniformImage(40, 30, color.RGBA{200, 200, 200, 255})
	cand := uniformImage(80, 60, color.RGBA{200, 200, 200, 255})

	result, err := NewMapper().Map(ref, cand)
	if err != nil {
		t.Fatalf("Map returned error: %v", err)
	}

	bounds := result.Candidate.Bounds()
	if bounds.Dx() != 40 || bounds.Dy() != 30 {
		t.Errorf("resampled candidate = %dx%d, want 40x30", bounds.Dx(), bounds.Dy())
	}
	if result.Surface.Width != 40 || result.Surface.Height != 30 {
		t.Errorf("surface = %dx%d, want 40x30", result.Surface.Width, result.Surface.Height)
	}
}

func TestMapEmptyImage(t *testing.T) {
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	ok := uniformImage(10, 10, color.RGBA{255, 255, 255, 255})

	if _, err := NewMapper().Map(empty, ok); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Map error = %v, want ErrEmptyImage", err)
	}
	if _, err := NewMapper().Map(ok, empty); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Map error = %v, want ErrEmptyImage", err)
	}
}

func TestGrayscale(t *testing.T) {
	img := uniformImage(2, 1, color.RGBA{255, 255, 255, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 0, 0, 255})

	gray := Grayscale(img)

	if got := gray.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("white pixel converted to %d, want 255", got)
	}
	if got := gray.GrayAt(1, 0).Y; got != 0 {
		t.Errorf("black pixel converted to %d, want 0", got)
	}
}

func TestResampleDimensions(t *testing.T) {
	src := uniformImage(100, 50, color.RGBA{120, 60, 30, 255})

	dst := Resample(src, 25, 75)

	bounds := dst.Bounds()
	if bounds.Dx() != 25 || bounds.Dy() != 75 {
		t.Errorf("resampled to %dx%d, want 25x75", bounds.Dx(), bounds.Dy())
	}
	r, g, b, _ := dst.At(12, 37).RGBA()
	if delta(uint8(r>>8), 120) > 1 || delta(uint8(g>>8), 60) > 1 || delta(uint8(b>>8), 30) > 1 {
		t.Errorf("uniform image changed color after resampling: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func delta(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
