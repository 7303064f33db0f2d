package recognize

import (
	"errors"
	"fmt"
	"time"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

// Soft failure sentinels. The solver records either as a zero-confidence
// attempt and keeps going; neither aborts a resolution.
var (
	// ErrEngineUnavailable reports a missing, broken, or crashed OCR
	// backend.
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// ErrEngineTimeout reports an attempt that exceeded its configured
	// time budget and was abandoned.
	ErrEngineTimeout = errors.New("ocr attempt timed out")
)

// Engine mode names, mirroring the tesseract OCR engine choices.
const (
	ModeDefault  = "default"
	ModeLegacy   = "legacy"
	ModeLSTM     = "lstm"
	ModeCombined = "combined"
)

// Config describes one recognizer variant: how the OCR engine should be
// parameterized for a single attempt. Variants are tried in descending
// Priority order; ties keep their configured order.
//
// A zero PSM selects automatic page segmentation. Language defaults to
// "eng" and TimeoutMS to 10000.
type Config struct {
	ID         string `json:"id"`
	PSM        int    `json:"psm,omitempty"`
	EngineMode string `json:"engine_mode,omitempty"`
	Whitelist  string `json:"whitelist,omitempty"`
	Language   string `json:"language,omitempty"`
	TimeoutMS  int    `json:"timeout_ms,omitempty"`
	Priority   int    `json:"priority"`

	// PerChar recognizes segmented glyphs one at a time with a
	// single-character page mode and joins the readings.
	PerChar bool `json:"per_character,omitempty"`
}

// Normalized returns a copy of c with defaults filled in.
func (c Config) Normalized() Config {
	if c.PSM == 0 {
		c.PSM = 3
	}
	if c.EngineMode == "" {
		c.EngineMode = ModeDefault
	}
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 10000
	}
	return c
}

// Validate checks the config after applying defaults.
func (c Config) Validate() error {
	if c.ID == "" {
		return errors.New("recognizer id must not be empty")
	}
	n := c.Normalized()
	if n.PSM < 1 || n.PSM > 13 {
		return fmt.Errorf("recognizer %q: psm must be in 0..13, got %d", c.ID, c.PSM)
	}
	switch n.EngineMode {
	case ModeDefault, ModeLegacy, ModeLSTM, ModeCombined:
	default:
		return fmt.Errorf("recognizer %q: unknown engine mode %q", c.ID, c.EngineMode)
	}
	if n.TimeoutMS <= 0 {
		return fmt.Errorf("recognizer %q: timeout_ms must be positive, got %d", c.ID, c.TimeoutMS)
	}
	return nil
}

// Timeout returns the attempt budget as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Normalized().TimeoutMS) * time.Millisecond
}

// Result is one raw engine reading. Confidence uses the engine's native
// 0..100 scale; the Runner clamps it on the way out.
type Result struct {
	Text       string
	Confidence float64
}

// Engine reads text from a raster. Calls block until the engine finishes;
// the Runner layers timeouts on top. Implementations must be safe for
// concurrent use.
type Engine interface {
	Recognize(r *raster.Raster, cfg Config) (Result, error)
}
