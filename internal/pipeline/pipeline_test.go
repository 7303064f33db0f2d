package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/synth"
	"github.com/darkchamp11/Captcha-Solver/internal/transform"
)

func TestRun_NoStepsIsIdentity(t *testing.T) {
	cfg := Config{ID: "raw"}
	src := synth.Captcha("K9", 60, 24, 2)

	out, err := cfg.Run(src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Equal(src) {
		t.Fatal("identity pipeline changed the raster")
	}
	if out == src {
		t.Fatal("identity pipeline must return a copy")
	}
}

func TestRun_AppliesStepsInOrder(t *testing.T) {
	cfg := Config{ID: "binarized", Steps: []transform.Step{
		{Name: transform.StepGrayscale},
		{Name: transform.StepThreshold, Mode: transform.ThresholdOtsu},
	}}
	src := synth.Captcha("K9", 60, 24, 2)

	out, err := cfg.Run(src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Gray() {
		t.Fatalf("depth = %d, want 1", out.Depth())
	}
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			if v := out.At(x, y, 0); v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d after threshold, want 0 or 255", x, y, v)
			}
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	cfg := Config{ID: "aggressive", Steps: []transform.Step{
		{Name: transform.StepGrayscale},
		{Name: transform.StepDenoise, Mode: transform.DenoiseGaussian, Kernel: 5},
		{Name: transform.StepThreshold},
		{Name: transform.StepMorphology, Mode: transform.MorphOpen},
	}}
	src := synth.Captcha("XY7", 90, 32, 123)

	a, err := cfg.Run(src)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	b, err := cfg.Run(src)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !a.Equal(b) {
		t.Fatal("same pipeline on same input produced different rasters")
	}
}

func TestRun_FailureNamesStep(t *testing.T) {
	cfg := Config{ID: "broken", Steps: []transform.Step{
		{Name: transform.StepGrayscale},
		{Name: transform.StepDenoise, Kernel: 4},
	}}

	_, err := cfg.Run(synth.Clean("A", 30, 20))
	if err == nil {
		t.Fatal("Run with a bad step succeeded")
	}
	var terr *transform.Error
	if !errors.As(err, &terr) {
		t.Fatalf("error %T is not *transform.Error", err)
	}
	if terr.Pipeline != "broken" || terr.Index != 1 {
		t.Errorf("error tagged %q/%d, want %q/1", terr.Pipeline, terr.Index, "broken")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{ID: "p", Steps: []transform.Step{{Name: transform.StepGrayscale}}}, false},
		{"empty steps ok", Config{ID: "p"}, false},
		{"missing id", Config{Steps: []transform.Step{{Name: transform.StepGrayscale}}}, true},
		{"bad step", Config{ID: "p", Steps: []transform.Step{{Name: "posterize"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate = %v, want nil", err)
			}
		})
	}
}

func TestFileSink_SaveRoundTrip(t *testing.T) {
	sink := FileSink{Dir: filepath.Join(t.TempDir(), "processed")}
	src := synth.Clean("S", 24, 16)

	if err := sink.Save("unit_raw", src); err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := filepath.Join(sink.Dir, "unit_raw.png")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	back, err := raster.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !back.Equal(src) {
		t.Fatal("PNG round trip changed pixels")
	}
}
