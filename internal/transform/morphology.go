package transform

import (
	"github.com/anthonynsimon/bild/effect"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

func validateMorphology(mode string, kernel int) error {
	if err := checkMode(StepMorphology, mode, MorphErode, MorphDilate, MorphOpen, MorphClose); err != nil {
		return err
	}
	return checkOddKernel(StepMorphology, kernel)
}

// Morphology applies a structural filter with the given kernel size.
// Erode shrinks bright regions, dilate grows them. Open (erode then dilate)
// removes bright speckle; close (dilate then erode) fills dark pinholes in
// glyph strokes. On the usual dark-text-on-light binarized captcha, open
// thickens strokes slightly and close thins them.
func Morphology(r *raster.Raster, mode string, kernel int) (*raster.Raster, error) {
	if r == nil {
		return nil, failf(StepMorphology, "nil input raster")
	}
	if err := validateMorphology(mode, kernel); err != nil {
		return nil, err
	}
	radius := float64(kernel / 2)
	img := r.ToImage()
	switch mode {
	case MorphErode:
		return matchDepth(r, effect.Erode(img, radius)), nil
	case MorphDilate:
		return matchDepth(r, effect.Dilate(img, radius)), nil
	case MorphOpen:
		return matchDepth(r, effect.Dilate(effect.Erode(img, radius), radius)), nil
	default:
		return matchDepth(r, effect.Erode(effect.Dilate(img, radius), radius)), nil
	}
}
