package similarity

import "math"

// Field is a dense grid of real-valued scores with the same dimensions as
// the compared grayscale images. Values are stored row-major.
type Field struct {
	Width  int
	Height int
	Values []float64
}

// NewField allocates a zeroed field of the given dimensions.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

// At returns the value at (x, y).
func (f *Field) At(x, y int) float64 {
	return f.Values[y*f.Width+x]
}

// Set stores a value at (x, y).
func (f *Field) Set(x, y int, v float64) {
	f.Values[y*f.Width+x] = v
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := NewField(f.Width, f.Height)
	copy(c.Values, f.Values)
	return c
}

// MinMax returns the smallest and largest values in the field.
func (f *Field) MinMax() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range f.Values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Normalize rescales all values into [0,1] using the field's own min/max.
// The scale is per-call on purpose: suspicion is relative per document
// pair, not absolute. A constant field normalizes to all zeros.
func (f *Field) Normalize() {
	min, max := f.MinMax()
	span := max - min
	if span == 0 {
		for i := range f.Values {
			f.Values[i] = 0
		}
		return
	}
	for i, v := range f.Values {
		f.Values[i] = (v - min) / span
	}
}

// Invert flips each value v to 1-v so that low similarity reads as high
// suspicion. Call after Normalize.
func (f *Field) Invert() {
	for i, v := range f.Values {
		f.Values[i] = 1 - v
	}
}

// GaussianBlur smooths the field in place with a separable Gaussian kernel
// of the given odd size. Sigma is derived from the kernel size (see
// gaussianKernel). Border windows are renormalized over their in-bounds taps.
func (f *Field) GaussianBlur(kernelSize int) {
	if kernelSize < 3 || kernelSize%2 == 0 {
		return
	}
	kernel := gaussianKernel(kernelSize)
	radius := kernelSize / 2

	// Horizontal pass
	tmp := make([]float64, len(f.Values))
	for y := 0; y < f.Height; y++ {
		row := y * f.Width
		for x := 0; x < f.Width; x++ {
			var sum, weight float64
			for k := -radius; k <= radius; k++ {
				xx := x + k
				if xx < 0 || xx >= f.Width {
					continue
				}
				w := kernel[k+radius]
				sum += w * f.Values[row+xx]
				weight += w
			}
			tmp[row+x] = sum / weight
		}
	}

	// Vertical pass
	for x := 0; x < f.Width; x++ {
		for y := 0; y < f.Height; y++ {
			var sum, weight float64
			for k := -radius; k <= radius; k++ {
				yy := y + k
				if yy < 0 || yy >= f.Height {
					continue
				}
				w := kernel[k+radius]
				sum += w * tmp[yy*f.Width+x]
				weight += w
			}
			f.Values[y*f.Width+x] = sum / weight
		}
	}
}

// gaussianKernel returns a normalized 1D Gaussian of the given odd size,
// with sigma = 0.3*((size-1)*0.5 - 1) + 0.8.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	radius := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}
