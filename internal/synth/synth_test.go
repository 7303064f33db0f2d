package synth

import "testing"

func TestCaptcha_Deterministic(t *testing.T) {
	a := Captcha("AB3K", 200, 80, 42)
	b := Captcha("AB3K", 200, 80, 42)
	if !a.Equal(b) {
		t.Error("same seed produced different captchas")
	}

	c := Captcha("AB3K", 200, 80, 43)
	if a.Equal(c) {
		t.Error("different seeds produced identical captchas")
	}
}

func TestCaptcha_Dimensions(t *testing.T) {
	r := Captcha("XY", 120, 48, 1)
	if r.Width() != 120 || r.Height() != 48 {
		t.Errorf("unexpected dimensions %dx%d", r.Width(), r.Height())
	}
}

func TestClean_HasDarkGlyphs(t *testing.T) {
	r := Clean("W", 60, 30)

	dark := 0
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			if r.Luminance(x, y) < 128 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("rendered text produced no dark pixels")
	}
}

func TestRuled_Horizontal(t *testing.T) {
	r := Ruled(100, 40, 0)

	// A zero-angle rule is a horizontal run of dark pixels near mid-height.
	y := r.Height() / 2
	dark := 0
	for x := 0; x < r.Width(); x++ {
		if r.Luminance(x, y) < 128 {
			dark++
		}
	}
	if dark < r.Width()/2 {
		t.Errorf("expected a horizontal line at y=%d, found %d dark pixels", y, dark)
	}
}
