package transform

import (
	"fmt"
	"image"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

// Step names. Config files and pipeline definitions refer to operations by
// these identifiers; anything else is a configuration error.
const (
	StepGrayscale  = "grayscale"
	StepDenoise    = "denoise"
	StepThreshold  = "threshold"
	StepMorphology = "morphology"
	StepEnhance    = "enhance"
	StepDeskew     = "deskew"
	StepSegment    = "segment"
)

// Grayscale modes.
const (
	GrayAverage    = "average"
	GrayLuminosity = "luminosity"
	GrayPerceptual = "perceptual"
)

// Denoise modes.
const (
	DenoiseGaussian  = "gaussian"
	DenoiseMedian    = "median"
	DenoiseBilateral = "bilateral"
)

// Threshold modes.
const (
	ThresholdBinary   = "binary"
	ThresholdAdaptive = "adaptive"
	ThresholdOtsu     = "otsu"
)

// Morphology modes.
const (
	MorphErode  = "erode"
	MorphDilate = "dilate"
	MorphOpen   = "open"
	MorphClose  = "close"
)

// Enhance modes.
const (
	EnhanceContrast = "contrast"
	EnhanceSharpen  = "sharpen"
	EnhanceEqualize = "equalize"
)

// Step describes a single pipeline operation together with its parameters.
// Name selects the operation, Mode the variant. Which numeric fields apply
// depends on the operation; unused fields are ignored and zero values take
// the operation's default.
//
// Field usage by step:
//
//	grayscale:  Mode
//	denoise:    Mode, Kernel
//	threshold:  Mode, Level (binary), Block and Offset (adaptive)
//	morphology: Mode, Kernel
//	enhance:    Mode, Amount
//	deskew:     Tolerance
//	segment:    MinArea
type Step struct {
	Name      string  `json:"name"`
	Mode      string  `json:"mode,omitempty"`
	Kernel    int     `json:"kernel,omitempty"`
	Level     int     `json:"level,omitempty"`
	Block     int     `json:"block,omitempty"`
	Offset    float64 `json:"offset,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`
	MinArea   int     `json:"min_area,omitempty"`
}

// Error reports a failed or misconfigured transform. Step is the operation
// name, Reason a human-readable cause. Pipeline and Index are filled in when
// the failure occurred while executing a named pipeline.
type Error struct {
	Step     string
	Pipeline string
	Index    int
	Reason   string
}

func (e *Error) Error() string {
	if e.Pipeline != "" {
		return fmt.Sprintf("pipeline %q step %d (%s): %s", e.Pipeline, e.Index, e.Step, e.Reason)
	}
	if e.Step == "" {
		return "transform: " + e.Reason
	}
	return fmt.Sprintf("transform %s: %s", e.Step, e.Reason)
}

func failf(step, format string, args ...interface{}) *Error {
	return &Error{Step: step, Reason: fmt.Sprintf(format, args...)}
}

// normalized returns a copy of s with zero-valued parameters replaced by the
// operation's defaults.
func (s Step) normalized() Step {
	switch s.Name {
	case StepGrayscale:
		if s.Mode == "" {
			s.Mode = GrayLuminosity
		}
	case StepDenoise:
		if s.Mode == "" {
			s.Mode = DenoiseGaussian
		}
		if s.Kernel == 0 {
			if s.Mode == DenoiseMedian {
				s.Kernel = 3
			} else {
				s.Kernel = 5
			}
		}
	case StepThreshold:
		if s.Mode == "" {
			s.Mode = ThresholdAdaptive
		}
		if s.Mode == ThresholdBinary && s.Level == 0 {
			s.Level = 128
		}
		if s.Mode == ThresholdAdaptive {
			if s.Block == 0 {
				s.Block = 11
			}
			if s.Offset == 0 {
				s.Offset = 2
			}
		}
	case StepMorphology:
		if s.Mode == "" {
			s.Mode = MorphOpen
		}
		if s.Kernel == 0 {
			s.Kernel = 3
		}
	case StepEnhance:
		if s.Mode == "" {
			s.Mode = EnhanceContrast
		}
		if s.Amount == 0 {
			switch s.Mode {
			case EnhanceContrast:
				s.Amount = 50
			case EnhanceSharpen:
				s.Amount = 1
			}
		}
	case StepDeskew:
		if s.Tolerance == 0 {
			s.Tolerance = 1
		}
	case StepSegment:
		if s.MinArea == 0 {
			s.MinArea = 10
		}
	}
	return s
}

// Validate checks the step name, mode, and parameter ranges after applying
// defaults. It returns a *Error describing the first problem found, or nil.
func (s Step) Validate() error {
	n := s.normalized()
	switch n.Name {
	case StepGrayscale:
		return validateGrayscale(n.Mode)
	case StepDenoise:
		return validateDenoise(n.Mode, n.Kernel)
	case StepThreshold:
		return validateThreshold(n.Mode, n.Level, n.Block, n.Offset)
	case StepMorphology:
		return validateMorphology(n.Mode, n.Kernel)
	case StepEnhance:
		return validateEnhance(n.Mode, n.Amount)
	case StepDeskew:
		return validateDeskew(n.Tolerance)
	case StepSegment:
		return validateSegment(n.MinArea)
	case "":
		return failf("", "missing step name")
	default:
		return failf(n.Name, "unknown step name")
	}
}

// Apply runs a single step against r and returns the transformed raster.
// The input raster is never modified. Parameters are defaulted and validated
// exactly as by Validate.
func Apply(r *raster.Raster, s Step) (*raster.Raster, error) {
	if r == nil {
		return nil, failf(s.Name, "nil input raster")
	}
	n := s.normalized()
	if err := n.Validate(); err != nil {
		return nil, err
	}
	switch n.Name {
	case StepGrayscale:
		return Grayscale(r, n.Mode)
	case StepDenoise:
		return Denoise(r, n.Mode, n.Kernel)
	case StepThreshold:
		return Threshold(r, n.Mode, n.Level, n.Block, n.Offset)
	case StepMorphology:
		return Morphology(r, n.Mode, n.Kernel)
	case StepEnhance:
		return Enhance(r, n.Mode, n.Amount)
	case StepDeskew:
		return Deskew(r, n.Tolerance)
	default:
		// StepSegment: inside a pipeline the step must keep producing a
		// single raster, so it crops to the union of the glyph regions.
		return CropToContent(r, n.MinArea)
	}
}

func checkMode(step, mode string, allowed ...string) error {
	for _, a := range allowed {
		if mode == a {
			return nil
		}
	}
	return failf(step, "unknown mode %q", mode)
}

func checkOddKernel(step string, kernel int) error {
	if kernel < 3 || kernel%2 == 0 {
		return failf(step, "kernel must be odd and >= 3, got %d", kernel)
	}
	return nil
}

// matchDepth converts an image produced by a filter back into a raster with
// the same channel depth as the source, so grayscale inputs stay single
// channel even though most filters return RGBA.
func matchDepth(src *raster.Raster, img image.Image) *raster.Raster {
	if src.Gray() {
		return raster.GrayFromImage(img)
	}
	return raster.FromImage(img)
}

// grayOf returns r itself when it is already single channel, otherwise a
// luminosity-weighted reduction. Callers must treat the result as read-only.
func grayOf(r *raster.Raster) *raster.Raster {
	if r.Gray() {
		return r
	}
	w, h := r.Width(), r.Height()
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Pix[y*g.Stride+x] = r.Luminance(x, y)
		}
	}
	return raster.FromImage(g)
}
