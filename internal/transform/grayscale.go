package transform

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

func validateGrayscale(mode string) error {
	return checkMode(StepGrayscale, mode, GrayAverage, GrayLuminosity, GrayPerceptual)
}

// Grayscale reduces r to a single-channel raster.
//
// Modes:
//   - average: unweighted channel mean
//   - luminosity: BT.601 weights (0.299 R, 0.587 G, 0.114 B)
//   - perceptual: CIE L*a*b* lightness, which tracks perceived brightness
//     more closely on saturated captcha palettes
//
// A single-channel input is returned as an unchanged copy regardless of mode.
func Grayscale(r *raster.Raster, mode string) (*raster.Raster, error) {
	if r == nil {
		return nil, failf(StepGrayscale, "nil input raster")
	}
	if err := validateGrayscale(mode); err != nil {
		return nil, err
	}
	if r.Gray() {
		return r.Clone(), nil
	}

	w, h := r.Width(), r.Height()
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v uint8
			switch mode {
			case GrayAverage:
				sum := int(r.At(x, y, 0)) + int(r.At(x, y, 1)) + int(r.At(x, y, 2))
				v = uint8(sum / 3)
			case GrayLuminosity:
				v = r.Luminance(x, y)
			case GrayPerceptual:
				c := colorful.Color{
					R: float64(r.At(x, y, 0)) / 255,
					G: float64(r.At(x, y, 1)) / 255,
					B: float64(r.At(x, y, 2)) / 255,
				}
				l, _, _ := c.Lab()
				v = clamp8(math.Round(l * 255))
			}
			g.Pix[y*g.Stride+x] = v
		}
	}
	return raster.FromImage(g), nil
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
