package transform

import (
	"github.com/anthonynsimon/bild/histogram"
	bsegment "github.com/anthonynsimon/bild/segment"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

func validateThreshold(mode string, level, block int, offset float64) error {
	if err := checkMode(StepThreshold, mode, ThresholdBinary, ThresholdAdaptive, ThresholdOtsu); err != nil {
		return err
	}
	switch mode {
	case ThresholdBinary:
		if level < 1 || level > 255 {
			return failf(StepThreshold, "level must be in 1..255, got %d", level)
		}
	case ThresholdAdaptive:
		if block < 3 || block%2 == 0 {
			return failf(StepThreshold, "block must be odd and >= 3, got %d", block)
		}
		if offset < -128 || offset > 128 {
			return failf(StepThreshold, "offset must be in -128..128, got %g", offset)
		}
	}
	return nil
}

// Threshold binarizes r into a single-channel raster whose pixels are all
// either 0 or 255. Color inputs are reduced to luminosity first.
//
// Modes:
//   - binary: fixed cut at level
//   - otsu: global cut chosen by maximizing between-class variance
//   - adaptive: per-pixel cut at the local block mean minus offset, which
//     survives the uneven backgrounds common on captcha images
func Threshold(r *raster.Raster, mode string, level, block int, offset float64) (*raster.Raster, error) {
	if r == nil {
		return nil, failf(StepThreshold, "nil input raster")
	}
	if err := validateThreshold(mode, level, block, offset); err != nil {
		return nil, err
	}
	g := grayOf(r)
	switch mode {
	case ThresholdBinary:
		return raster.FromImage(bsegment.Threshold(g.ToImage(), uint8(level))), nil
	case ThresholdOtsu:
		// The Otsu cut marks the last value of the dark class, so the
		// comparison must be strict.
		return binarize(g, otsuLevel(g)), nil
	default:
		return adaptiveThreshold(g, block, offset), nil
	}
}

// binarize maps values above cut to white and everything else to black.
func binarize(g *raster.Raster, cut uint8) *raster.Raster {
	w, h := g.Width(), g.Height()
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if g.At(x, y, 0) > cut {
				out[y*w+x] = 255
			}
		}
	}
	return raster.Must(raster.New(w, h, raster.DepthGray, out))
}

// otsuLevel picks the global threshold that maximizes the between-class
// variance of the gray histogram.
func otsuLevel(g *raster.Raster) uint8 {
	bins := histogram.NewRGBAHistogram(g.ToImage()).R.Bins

	total := 0
	sum := 0.0
	for v, n := range bins {
		total += n
		sum += float64(v) * float64(n)
	}
	if total == 0 {
		return 128
	}

	var (
		best    float64
		level   int
		sumBack float64
		weightB int
	)
	for v, n := range bins {
		weightB += n
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumBack += float64(v) * float64(n)
		meanB := sumBack / float64(weightB)
		meanF := (sum - sumBack) / float64(weightF)
		diff := meanB - meanF
		variance := float64(weightB) * float64(weightF) * diff * diff
		if variance > best {
			best = variance
			level = v
		}
	}
	return uint8(level)
}

// adaptiveThreshold compares each pixel against the mean of its surrounding
// block. A summed-area table keeps the block mean O(1) per pixel.
func adaptiveThreshold(g *raster.Raster, block int, offset float64) *raster.Raster {
	w, h := g.Width(), g.Height()
	radius := block / 2

	stride := w + 1
	sums := make([]uint64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row uint64
		for x := 0; x < w; x++ {
			row += uint64(g.At(x, y, 0))
			sums[(y+1)*stride+x+1] = sums[y*stride+x+1] + row
		}
	}

	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		y0 := clampInt(y-radius, 0, h-1)
		y1 := clampInt(y+radius, 0, h-1)
		for x := 0; x < w; x++ {
			x0 := clampInt(x-radius, 0, w-1)
			x1 := clampInt(x+radius, 0, w-1)

			area := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			total := sums[(y1+1)*stride+x1+1] - sums[y0*stride+x1+1] -
				sums[(y1+1)*stride+x0] + sums[y0*stride+x0]
			mean := float64(total) / float64(area)

			if float64(g.At(x, y, 0)) > mean-offset {
				out[y*w+x] = 255
			}
		}
	}
	return raster.Must(raster.New(w, h, raster.DepthGray, out))
}
