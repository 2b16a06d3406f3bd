package similarity

import (
	"image"

	"golang.org/x/image/draw"
)

// Resample scales an image to the given dimensions with bilinear
// interpolation.
func Resample(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
