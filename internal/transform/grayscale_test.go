package transform

import (
	"image/color"
	"testing"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
)

func fillRaster(t *testing.T, w, h, depth int, c color.Color) *raster.Raster {
	t.Helper()
	r, err := raster.Fill(w, h, depth, c)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	return r
}

func grayFromPixels(t *testing.T, w, h int, pix []uint8) *raster.Raster {
	t.Helper()
	r, err := raster.New(w, h, raster.DepthGray, pix)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestGrayscale_Modes(t *testing.T) {
	red := fillRaster(t, 4, 4, raster.DepthRGB, color.NRGBA{R: 255, A: 255})

	tests := []struct {
		mode string
		lo   uint8
		hi   uint8
	}{
		{GrayAverage, 85, 85},
		{GrayLuminosity, 76, 76},
		// CIE lightness rates pure red brighter than its BT.601 weight.
		{GrayPerceptual, 128, 144},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			out, err := Grayscale(red, tt.mode)
			if err != nil {
				t.Fatalf("Grayscale: %v", err)
			}
			if !out.Gray() {
				t.Fatalf("depth = %d, want 1", out.Depth())
			}
			if v := out.At(0, 0, 0); v < tt.lo || v > tt.hi {
				t.Errorf("pixel = %d, want within [%d, %d]", v, tt.lo, tt.hi)
			}
		})
	}
}

func TestGrayscale_GrayInputIsCopied(t *testing.T) {
	g := fillRaster(t, 6, 3, raster.DepthGray, color.Gray{Y: 140})
	out, err := Grayscale(g, GrayAverage)
	if err != nil {
		t.Fatalf("Grayscale: %v", err)
	}
	if !out.Equal(g) {
		t.Fatal("gray input should pass through unchanged")
	}
	if out == g {
		t.Fatal("gray input should be copied, not aliased")
	}
}

func TestGrayscale_BadMode(t *testing.T) {
	r := fillRaster(t, 2, 2, raster.DepthRGB, color.White)
	if _, err := Grayscale(r, "sepia"); err == nil {
		t.Fatal("unknown mode accepted")
	}
}
