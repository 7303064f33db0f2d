package transform

import (
	"image/color"
	"math"
	"testing"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/synth"
)

func TestEstimateSkew_RuledLines(t *testing.T) {
	// 1 degree Hough quantization plus raster aliasing on short lines
	// justifies the loose tolerance.
	const tolerance = 1.5

	for _, angle := range []float64{0, 5, -7, 12} {
		r := synth.Ruled(240, 100, angle)
		got, err := EstimateSkew(r)
		if err != nil {
			t.Fatalf("EstimateSkew(%g): %v", angle, err)
		}
		if math.Abs(got-angle) > tolerance {
			t.Errorf("EstimateSkew(%g) = %g, want within %g", angle, got, tolerance)
		}
	}
}

func TestEstimateSkew_BlankIsZero(t *testing.T) {
	r := fillRaster(t, 60, 30, raster.DepthRGB, color.White)
	got, err := EstimateSkew(r)
	if err != nil {
		t.Fatalf("EstimateSkew: %v", err)
	}
	if got != 0 {
		t.Errorf("EstimateSkew(blank) = %g, want 0", got)
	}
}

func TestDeskew_WithinToleranceIsIdentity(t *testing.T) {
	r := synth.Ruled(200, 80, 0)
	out, err := Deskew(r, 1)
	if err != nil {
		t.Fatalf("Deskew: %v", err)
	}
	if !out.Equal(r) {
		t.Fatal("straight input should come back unchanged")
	}
}

func TestDeskew_CorrectsRotation(t *testing.T) {
	r := synth.Ruled(200, 80, 10)
	out, err := Deskew(r, 1)
	if err != nil {
		t.Fatalf("Deskew: %v", err)
	}
	if out.Depth() != r.Depth() {
		t.Errorf("depth = %d, want %d", out.Depth(), r.Depth())
	}
	residual, err := EstimateSkew(out)
	if err != nil {
		t.Fatalf("EstimateSkew after deskew: %v", err)
	}
	if math.Abs(residual) > 1.5 {
		t.Errorf("residual skew = %g, want within 1.5", residual)
	}
}

func TestDeskew_BadTolerance(t *testing.T) {
	r := synth.Ruled(40, 20, 0)
	if _, err := Deskew(r, -1); err == nil {
		t.Error("negative tolerance accepted")
	}
	if _, err := Deskew(r, 60); err == nil {
		t.Error("tolerance above 45 accepted")
	}
}
