// Package config defines the solver configuration, its defaults, and the
// JSON file and environment loading around it. Every option is validated up
// front; a bad value is rejected here, never at use time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/darkchamp11/Captcha-Solver/internal/pipeline"
	"github.com/darkchamp11/Captcha-Solver/internal/recognize"
	"github.com/darkchamp11/Captcha-Solver/internal/transform"
)

// Error reports an invalid configuration value. Configuration errors are
// fatal: nothing runs until the configuration is fixed.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Config is the complete solver configuration.
type Config struct {
	// Threshold is the confidence a candidate needs to end a resolution
	// early, in 0..100.
	Threshold float64 `json:"threshold"`

	// Language is the default OCR language for recognizers that do not
	// set their own.
	Language string `json:"language,omitempty"`

	// BatchWorkers caps concurrent resolutions during batch solving.
	BatchWorkers int `json:"batch_workers,omitempty"`

	// TessdataPrefix overrides the tesseract trained-data directory.
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`

	// SaveDir, when set, collects every preprocessed raster as PNG files.
	SaveDir string `json:"save_dir,omitempty"`

	Pipelines   []pipeline.Config  `json:"pipelines"`
	Recognizers []recognize.Config `json:"recognizers"`
}

// whitelistAlnum is the default character whitelist: captcha answers in the
// wild are almost always alphanumeric.
const whitelistAlnum = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Default returns the built-in configuration: one standard cleanup pipeline
// and a ladder of recognizer variants, whitelisted page modes first, looser
// unrestricted ones after.
func Default() Config {
	standard := pipeline.Config{
		ID: "standard",
		Steps: []transform.Step{
			{Name: transform.StepGrayscale},
			{Name: transform.StepDenoise, Mode: transform.DenoiseGaussian, Kernel: 5},
			{Name: transform.StepThreshold, Mode: transform.ThresholdAdaptive, Block: 11, Offset: 2},
			{Name: transform.StepMorphology, Mode: transform.MorphOpen, Kernel: 3},
			{Name: transform.StepMorphology, Mode: transform.MorphClose, Kernel: 3},
		},
	}

	ladder := []recognize.Config{
		{ID: "word-wl", PSM: 8, Whitelist: whitelistAlnum, Priority: 5},
		{ID: "line-wl", PSM: 7, Whitelist: whitelistAlnum, Priority: 4},
		{ID: "block-wl", PSM: 6, Whitelist: whitelistAlnum, Priority: 3},
		{ID: "word", PSM: 8, Priority: 2},
		{ID: "line", PSM: 7, Priority: 1},
		{ID: "raw-line", PSM: 13, Priority: 0},
	}

	return Config{
		Threshold:    60,
		Language:     "eng",
		BatchWorkers: 4,
		Pipelines:    []pipeline.Config{standard},
		Recognizers:  ladder,
	}
}

// Load reads a JSON configuration file. Unknown fields are rejected so
// typos fail loudly instead of silently falling back to defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, &Error{Field: path, Reason: err.Error()}
	}
	return cfg, nil
}

// Normalize fills omitted values from defaults: the global language flows
// into recognizers that leave theirs empty, and zero knobs take the
// built-in values.
func (c Config) Normalize() Config {
	def := Default()
	if c.Threshold == 0 {
		c.Threshold = def.Threshold
	}
	if c.Language == "" {
		c.Language = def.Language
	}
	if c.BatchWorkers == 0 {
		c.BatchWorkers = def.BatchWorkers
	}
	if len(c.Pipelines) == 0 {
		c.Pipelines = def.Pipelines
	}
	if len(c.Recognizers) == 0 {
		c.Recognizers = def.Recognizers
	}
	for i := range c.Recognizers {
		if c.Recognizers[i].Language == "" {
			c.Recognizers[i].Language = c.Language
		}
	}
	return c
}

// Validate checks the whole configuration after normalization. It returns
// a *Error naming the first offending field.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 100 {
		return &Error{Field: "threshold", Reason: fmt.Sprintf("must be in 0..100, got %g", c.Threshold)}
	}
	if c.BatchWorkers < 1 {
		return &Error{Field: "batch_workers", Reason: fmt.Sprintf("must be positive, got %d", c.BatchWorkers)}
	}
	if len(c.Pipelines) == 0 {
		return &Error{Field: "pipelines", Reason: "at least one pipeline is required"}
	}
	if len(c.Recognizers) == 0 {
		return &Error{Field: "recognizers", Reason: "at least one recognizer is required"}
	}
	seen := make(map[string]bool, len(c.Pipelines))
	for i, p := range c.Pipelines {
		if err := p.Validate(); err != nil {
			return &Error{Field: fmt.Sprintf("pipelines[%d]", i), Reason: err.Error()}
		}
		if seen[p.ID] {
			return &Error{Field: fmt.Sprintf("pipelines[%d]", i), Reason: fmt.Sprintf("duplicate pipeline id %q", p.ID)}
		}
		seen[p.ID] = true
	}
	seen = make(map[string]bool, len(c.Recognizers))
	for i, r := range c.Recognizers {
		if err := r.Validate(); err != nil {
			return &Error{Field: fmt.Sprintf("recognizers[%d]", i), Reason: err.Error()}
		}
		if seen[r.ID] {
			return &Error{Field: fmt.Sprintf("recognizers[%d]", i), Reason: fmt.Sprintf("duplicate recognizer id %q", r.ID)}
		}
		seen[r.ID] = true
	}
	return nil
}

// ApplyEnv overlays CAPTCHA_* environment variables onto the config.
// Variables override file values, which override defaults.
//
//	CAPTCHA_THRESHOLD       confidence threshold
//	CAPTCHA_LANGUAGE        default OCR language
//	CAPTCHA_BATCH_WORKERS   batch parallelism
//	CAPTCHA_TESSDATA_PREFIX tesseract data directory
//	CAPTCHA_SAVE_DIR        processed-image directory
func (c Config) ApplyEnv() (Config, error) {
	if v := os.Getenv("CAPTCHA_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c, &Error{Field: "CAPTCHA_THRESHOLD", Reason: err.Error()}
		}
		c.Threshold = f
	}
	if v := os.Getenv("CAPTCHA_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := os.Getenv("CAPTCHA_BATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, &Error{Field: "CAPTCHA_BATCH_WORKERS", Reason: err.Error()}
		}
		c.BatchWorkers = n
	}
	if v := os.Getenv("CAPTCHA_TESSDATA_PREFIX"); v != "" {
		c.TessdataPrefix = v
	}
	if v := os.Getenv("CAPTCHA_SAVE_DIR"); v != "" {
		c.SaveDir = v
	}
	return c, nil
}
