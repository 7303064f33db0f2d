package raster

import (
	"image"
	"image/color"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		depth   int
		pixLen  int
		wantErr bool
	}{
		{"valid gray", 4, 3, DepthGray, 12, false},
		{"valid rgb", 4, 3, DepthRGB, 36, false},
		{"zero width", 0, 3, DepthGray, 0, true},
		{"negative height", 4, -1, DepthGray, 0, true},
		{"bad depth", 4, 3, 2, 24, true},
		{"short buffer", 4, 3, DepthGray, 11, true},
		{"long buffer", 4, 3, DepthGray, 13, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.width, tt.height, tt.depth, make([]uint8, tt.pixLen))
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_CopiesBuffer(t *testing.T) {
	pix := []uint8{1, 2, 3, 4}
	r, err := New(2, 2, DepthGray, pix)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	pix[0] = 99
	if r.At(0, 0, 0) != 1 {
		t.Errorf("mutating the source buffer leaked into the raster: got %d, want 1", r.At(0, 0, 0))
	}

	out := r.Pix()
	out[1] = 99
	if r.At(1, 0, 0) != 2 {
		t.Errorf("mutating Pix() result leaked into the raster: got %d, want 2", r.At(1, 0, 0))
	}
}

func TestFromImage_Gray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range g.Pix {
		g.Pix[i] = uint8(i * 10)
	}

	r := FromImage(g)
	if !r.Gray() {
		t.Fatalf("expected depth %d, got %d", DepthGray, r.Depth())
	}
	if r.Width() != 3 || r.Height() != 2 {
		t.Fatalf("unexpected dimensions %dx%d", r.Width(), r.Height())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			want := uint8((y*3 + x) * 10)
			if got := r.At(x, y, 0); got != want {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestFromImage_Color(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	r := FromImage(img)
	if r.Depth() != DepthRGB {
		t.Fatalf("expected depth %d, got %d", DepthRGB, r.Depth())
	}
	if r.At(0, 0, 0) != 10 || r.At(0, 0, 1) != 20 || r.At(0, 0, 2) != 30 {
		t.Errorf("pixel (0,0) = %d,%d,%d, want 10,20,30", r.At(0, 0, 0), r.At(0, 0, 1), r.At(0, 0, 2))
	}
	if r.At(1, 0, 0) != 200 || r.At(1, 0, 1) != 100 || r.At(1, 0, 2) != 50 {
		t.Errorf("pixel (1,0) = %d,%d,%d, want 200,100,50", r.At(1, 0, 0), r.At(1, 0, 1), r.At(1, 0, 2))
	}
}

func TestFromImage_OffsetBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(5, 7, 8, 9))
	img.Set(5, 7, color.NRGBA{R: 42, A: 255})

	r := FromImage(img)
	if r.Width() != 3 || r.Height() != 2 {
		t.Fatalf("unexpected dimensions %dx%d", r.Width(), r.Height())
	}
	if r.At(0, 0, 0) != 42 {
		t.Errorf("origin pixel = %d, want 42", r.At(0, 0, 0))
	}
}

func TestToImage_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		depth int
	}{
		{"gray", DepthGray},
		{"rgb", DepthRGB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := make([]uint8, 4*3*tt.depth)
			for i := range pix {
				pix[i] = uint8(i * 7)
			}
			r, err := New(4, 3, tt.depth, pix)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}

			back := FromImage(r.ToImage())
			if !r.Equal(back) {
				t.Error("ToImage/FromImage round trip changed pixel data")
			}
		})
	}
}

func TestGrayFromImage_RecoverExact(t *testing.T) {
	// A grayscale raster pushed through an RGBA image keeps equal channels,
	// and GrayFromImage must recover the original values exactly.
	pix := []uint8{0, 17, 99, 128, 200, 255}
	r, err := New(3, 2, DepthGray, pix)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	rgba := image.NewRGBA(r.Bounds())
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			v := r.At(x, y, 0)
			rgba.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	back := GrayFromImage(rgba)
	if !r.Equal(back) {
		t.Error("GrayFromImage did not recover the original gray values")
	}
}

func TestEqual(t *testing.T) {
	a, _ := New(2, 2, DepthGray, []uint8{1, 2, 3, 4})
	b, _ := New(2, 2, DepthGray, []uint8{1, 2, 3, 4})
	c, _ := New(2, 2, DepthGray, []uint8{1, 2, 3, 5})
	d, _ := New(4, 1, DepthGray, []uint8{1, 2, 3, 4})

	if !a.Equal(b) {
		t.Error("identical rasters reported unequal")
	}
	if a.Equal(c) {
		t.Error("different pixels reported equal")
	}
	if a.Equal(d) {
		t.Error("different dimensions reported equal")
	}
	if a.Equal(nil) {
		t.Error("nil comparison reported equal")
	}
}

func TestClone_Independent(t *testing.T) {
	a, _ := New(2, 1, DepthGray, []uint8{5, 6})
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone differs from original")
	}
}

func TestLuminance(t *testing.T) {
	gray, _ := New(1, 1, DepthGray, []uint8{77})
	if got := gray.Luminance(0, 0); got != 77 {
		t.Errorf("gray luminance = %d, want 77", got)
	}

	// BT.601: 0.299*255 = 76 for pure red.
	red, _ := New(1, 1, DepthRGB, []uint8{255, 0, 0})
	if got := red.Luminance(0, 0); got != 76 {
		t.Errorf("red luminance = %d, want 76", got)
	}
}

func TestFill(t *testing.T) {
	r, err := Fill(3, 2, DepthRGB, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	if err != nil {
		t.Fatalf("Fill() failed: %v", err)
	}
	if r.At(2, 1, 0) != 9 || r.At(2, 1, 1) != 8 || r.At(2, 1, 2) != 7 {
		t.Errorf("unexpected fill color %d,%d,%d", r.At(2, 1, 0), r.At(2, 1, 1), r.At(2, 1, 2))
	}
}
