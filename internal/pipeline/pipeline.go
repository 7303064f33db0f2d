// Package pipeline chains transform steps into named preprocessing
// sequences. A pipeline is deterministic: the same input raster always
// produces the same output, so results can be memoized per image while a
// captcha is being resolved.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/transform"
)

// Config is an ordered list of transform steps under a stable identifier.
// The id ends up in recognition candidates, so it should stay meaningful
// ("raw", "binarized", "aggressive").
type Config struct {
	ID    string           `json:"id"`
	Steps []transform.Step `json:"steps"`
}

// Validate checks the id and every step. Step errors carry the pipeline id
// and the zero-based step index.
func (c Config) Validate() error {
	if c.ID == "" {
		return errors.New("pipeline id must not be empty")
	}
	for i, s := range c.Steps {
		if err := s.Validate(); err != nil {
			return tagged(err, c.ID, i)
		}
	}
	return nil
}

// Run applies the steps in order and returns the final raster. The input is
// never modified. A pipeline with no steps is the identity and returns an
// unchanged copy. The first failing step aborts the run; its error names the
// pipeline and the index of the step that failed.
func (c Config) Run(r *raster.Raster) (*raster.Raster, error) {
	if r == nil {
		return nil, fmt.Errorf("pipeline %q: nil input raster", c.ID)
	}
	if len(c.Steps) == 0 {
		return r.Clone(), nil
	}
	cur := r
	for i, s := range c.Steps {
		next, err := transform.Apply(cur, s)
		if err != nil {
			return nil, tagged(err, c.ID, i)
		}
		cur = next
	}
	return cur, nil
}

// tagged stamps the pipeline id and step index onto transform errors so the
// failure can be traced back to a config entry.
func tagged(err error, id string, index int) error {
	var terr *transform.Error
	if errors.As(err, &terr) {
		terr.Pipeline = id
		terr.Index = index
		return terr
	}
	return fmt.Errorf("pipeline %q step %d: %w", id, index, err)
}
