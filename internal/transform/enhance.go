package transform

import (
	"math"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

func validateEnhance(mode string, amount float64) error {
	if err := checkMode(StepEnhance, mode, EnhanceContrast, EnhanceSharpen, EnhanceEqualize); err != nil {
		return err
	}
	switch mode {
	case EnhanceContrast:
		if amount < -100 || amount > 100 {
			return failf(StepEnhance, "contrast amount must be in -100..100, got %g", amount)
		}
	case EnhanceSharpen:
		if amount <= 0 || amount > 10 {
			return failf(StepEnhance, "sharpen amount must be in (0, 10], got %g", amount)
		}
	}
	return nil
}

// Enhance boosts glyph-to-background separation before thresholding or OCR.
//
// Modes:
//   - contrast: linear contrast change by amount percent
//   - sharpen: unsharp mask with sigma amount
//   - equalize: gray histogram equalization; the output is single channel
func Enhance(r *raster.Raster, mode string, amount float64) (*raster.Raster, error) {
	if r == nil {
		return nil, failf(StepEnhance, "nil input raster")
	}
	if err := validateEnhance(mode, amount); err != nil {
		return nil, err
	}
	switch mode {
	case EnhanceContrast:
		return matchDepth(r, imaging.AdjustContrast(r.ToImage(), amount)), nil
	case EnhanceSharpen:
		return matchDepth(r, imaging.Sharpen(r.ToImage(), amount)), nil
	default:
		return equalize(grayOf(r)), nil
	}
}

// equalize remaps gray values so the cumulative histogram becomes linear,
// spreading a washed-out value range across the full 0..255 span.
func equalize(g *raster.Raster) *raster.Raster {
	cum := histogram.NewRGBAHistogram(g.ToImage()).R.Cumulative()

	total := 0
	cdfMin := 0
	for _, n := range cum.Bins {
		if n > 0 {
			cdfMin = n
			break
		}
	}
	if len(cum.Bins) > 0 {
		total = cum.Bins[len(cum.Bins)-1]
	}
	if total == 0 || total == cdfMin {
		// Uniform image, nothing to spread.
		return g.Clone()
	}

	var lut [256]uint8
	for v := range lut {
		i := v
		if i >= len(cum.Bins) {
			i = len(cum.Bins) - 1
		}
		scaled := float64(cum.Bins[i]-cdfMin) / float64(total-cdfMin) * 255
		lut[v] = clamp8(math.Round(scaled))
	}

	w, h := g.Width(), g.Height()
	out := make([]uint8, w*h)
	for i := range out {
		out[i] = lut[g.At(i%w, i/w, 0)]
	}
	return raster.Must(raster.New(w, h, raster.DepthGray, out))
}
