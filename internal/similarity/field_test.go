package similarity

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	f := NewField(3, 1)
	f.Set(0, 0, -1)
	f.Set(1, 0, 0)
	f.Set(2, 0, 1)

	f.Normalize()

	if got := f.At(0, 0); got != 0 {
		t.Errorf("min value normalized to %v, want 0", got)
	}
	if got := f.At(1, 0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("mid value normalized to %v, want 0.5", got)
	}
	if got := f.At(2, 0); got != 1 {
		t.Errorf("max value normalized to %v, want 1", got)
	}
}

func TestNormalizeConstantField(t *testing.T) {
	f := NewField(4, 4)
	for i := range f.Values {
		f.Values[i] = 0.7
	}

	f.Normalize()

	for i, v := range f.Values {
		if v != 0 {
			t.Fatalf("value %d = %v after normalizing constant field, want 0", i, v)
		}
	}
}

func TestInvert(t *testing.T) {
	f := NewField(2, 1)
	f.Set(0, 0, 0.2)
	f.Set(1, 0, 1)

	f.Invert()

	if got := f.At(0, 0); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("At(0,0) = %v, want 0.8", got)
	}
	if got := f.At(1, 0); got != 0 {
		t.Errorf("At(1,0) = %v, want 0", got)
	}
}

func TestGaussianBlurPreservesConstant(t *testing.T) {
	f := NewField(10, 10)
	for i := range f.Values {
		f.Values[i] = 0.5
	}

	f.GaussianBlur(BlurKernelSize)

	for i, v := range f.Values {
		if math.Abs(v-0.5) > 1e-9 {
			t.Fatalf("value %d = %v after blurring constant field, want 0.5", i, v)
		}
	}
}

func TestGaussianBlurStaysInRange(t *testing.T) {
	f := NewField(20, 20)
	f.Set(10, 10, 1)

	f.GaussianBlur(BlurKernelSize)

	min, max := f.MinMax()
	if min < 0 || max > 1 {
		t.Errorf("blurred values outside [0,1]: min=%v max=%v", min, max)
	}
	if max >= 1 {
		t.Errorf("single spike not spread by blur: max=%v", max)
	}
	if f.At(10, 10) <= f.At(0, 0) {
		t.Errorf("blur lost the hotspot: center=%v corner=%v", f.At(10, 10), f.At(0, 0))
	}
}

func TestGaussianBlurIgnoresInvalidKernel(t *testing.T) {
	f := NewField(3, 3)
	f.Set(1, 1, 1)
	before := f.Clone()

	f.GaussianBlur(4)
	f.GaussianBlur(1)

	for i := range f.Values {
		if f.Values[i] != before.Values[i] {
			t.Fatalf("field changed by invalid kernel size at %d", i)
		}
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	kernel := gaussianKernel(BlurKernelSize)

	var sum float64
	for _, v := range kernel {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("kernel sums to %v, want 1", sum)
	}
	if kernel[0] >= kernel[BlurKernelSize/2] {
		t.Errorf("kernel edge %v not below center %v", kernel[0], kernel[BlurKernelSize/2])
	}
}
