package transform

import (
	"testing"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/synth"
)

func countDark(r *raster.Raster) int {
	n := 0
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if r.At(x, y, 0) < 128 {
				n++
			}
		}
	}
	return n
}

func TestMorphology_SpeckleBehavior(t *testing.T) {
	// One dark pixel on a white field. Erode (min filter) grows dark
	// regions, dilate and close remove a lone dark speckle, open keeps it.
	tests := []struct {
		mode    string
		minDark int
		maxDark int
	}{
		{MorphErode, 9, 81},
		{MorphDilate, 0, 0},
		{MorphClose, 0, 0},
		{MorphOpen, 1, 9},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			src := speckled(t, 9, 255, 0)
			out, err := Morphology(src, tt.mode, 3)
			if err != nil {
				t.Fatalf("Morphology: %v", err)
			}
			if n := countDark(out); n < tt.minDark || n > tt.maxDark {
				t.Errorf("dark pixels = %d, want within [%d, %d]", n, tt.minDark, tt.maxDark)
			}
		})
	}
}

func TestMorphology_PreservesShape(t *testing.T) {
	src := synth.Captcha("MJ9", 72, 28, 5)
	out, err := Morphology(src, MorphOpen, 3)
	if err != nil {
		t.Fatalf("Morphology: %v", err)
	}
	if out.Width() != src.Width() || out.Height() != src.Height() || out.Depth() != src.Depth() {
		t.Errorf("shape %dx%dx%d, want %dx%dx%d",
			out.Width(), out.Height(), out.Depth(), src.Width(), src.Height(), src.Depth())
	}
}

func TestMorphology_BadParams(t *testing.T) {
	src := speckled(t, 5, 255, 0)
	if _, err := Morphology(src, "thin", 3); err == nil {
		t.Error("unknown mode accepted")
	}
	if _, err := Morphology(src, MorphErode, 2); err == nil {
		t.Error("even kernel accepted")
	}
}
