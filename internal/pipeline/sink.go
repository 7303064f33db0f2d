package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

// Sink receives preprocessed rasters for offline inspection. Implementations
// must be safe for concurrent use.
type Sink interface {
	Save(name string, r *raster.Raster) error
}

// FileSink writes each raster as a PNG file named <name>.png under Dir,
// creating the directory on first use.
type FileSink struct {
	Dir string
}

func (s FileSink) Save(name string, r *raster.Raster) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create sink directory: %w", err)
	}
	path := filepath.Join(s.Dir, name+".png")
	if err := imaging.Save(r.ToImage(), path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
