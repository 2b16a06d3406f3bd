// Package overlay renders the suspicion surface onto the candidate image.
//
// Each suspicion value is mapped through a jet-style perceptual color scale
// (cool blues for low values, hot reds for high ones) and blended with the
// candidate at a fixed mix ratio. The weights are tuned so the underlying
// document stays legible under the heat colors and are not user
// configurable.
package overlay

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"certverify/internal/similarity"
)

const (
	// CandidateWeight and HeatWeight are the fixed per-pixel blend weights.
	CandidateWeight = 0.7
	HeatWeight      = 0.3

	// PlaceholderWidth and PlaceholderHeight size the blank image emitted
	// when no suspicion surface could be computed.
	PlaceholderWidth  = 300
	PlaceholderHeight = 200
)

// Render composites the color-mapped suspicion surface over the candidate
// image. The surface and candidate must share dimensions; the output always
// matches the candidate's dimensions.
func Render(surface *similarity.Field, candidate image.Image) *image.RGBA {
	bounds := candidate.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, _ := candidate.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			heat := HeatColor(surface.At(x, y))
			out.SetRGBA(x, y, color.RGBA{
				R: blend(uint8(r>>8), heat.R),
				G: blend(uint8(g>>8), heat.G),
				B: blend(uint8(b>>8), heat.B),
				A: 0xff,
			})
		}
	}
	return out
}

// Placeholder returns the minimal blank image written when the similarity
// pipeline failed, so overlay retrieval never 404s for a processed request.
func Placeholder() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, PlaceholderWidth, PlaceholderHeight))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// WritePNG encodes the image to the given path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// HeatColor maps a suspicion value in [0,1] through the jet color scale.
// Out-of-range values are clamped.
func HeatColor(v float64) color.RGBA {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	// Piecewise-linear jet: dark blue -> blue -> cyan -> yellow -> red ->
	// dark red across four equal segments.
	return color.RGBA{
		R: jetChannel(v - 0.75),
		G: jetChannel(v - 0.5),
		B: jetChannel(v - 0.25),
		A: 0xff,
	}
}

// jetChannel evaluates one color channel of the jet scale: a triangular
// ramp centered on the channel's peak, clamped to [0,255].
func jetChannel(d float64) uint8 {
	if d < 0 {
		d = -d
	}
	v := 1.5 - 4*d
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

func blend(candidate, heat uint8) uint8 {
	return uint8(CandidateWeight*float64(candidate) + HeatWeight*float64(heat) + 0.5)
}
