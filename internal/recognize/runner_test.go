package recognize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/synth"
)

type scripted struct {
	res Result
	err error
}

// fakeEngine plays back scripted results in call order and records the
// configs it was called with. The last script entry repeats.
type fakeEngine struct {
	mu     sync.Mutex
	script []scripted
	delay  time.Duration
	calls  []Config
}

func (f *fakeEngine) Recognize(r *raster.Raster, cfg Config) (Result, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cfg)
	i := len(f.calls) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	s := f.script[i]
	return s.res, s.err
}

func testRunner(e Engine) *Runner {
	return NewRunner(e, zerolog.Nop())
}

func TestAttempt_CleansAndClamps(t *testing.T) {
	eng := &fakeEngine{script: []scripted{{res: Result{Text: " A B/3K\n", Confidence: 140}}}}
	ru := testRunner(eng)

	res, err := ru.Attempt(context.Background(), synth.Clean("A", 20, 20), Config{ID: "r"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.Text != "AB3K" {
		t.Errorf("text = %q, want %q", res.Text, "AB3K")
	}
	if res.Confidence != 100 {
		t.Errorf("confidence = %g, want 100", res.Confidence)
	}
}

func TestAttempt_WhitelistPenalty(t *testing.T) {
	eng := &fakeEngine{script: []scripted{{res: Result{Text: "AB!", Confidence: 60}}}}
	ru := testRunner(eng)

	res, err := ru.Attempt(context.Background(), synth.Clean("A", 20, 20), Config{ID: "wl", Whitelist: "AB"})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if math.Abs(res.Confidence-40) > 1e-9 {
		t.Errorf("confidence = %g, want 40 after 2/3 penalty", res.Confidence)
	}
}

func TestAttempt_TimeoutAbandons(t *testing.T) {
	eng := &fakeEngine{
		delay:  300 * time.Millisecond,
		script: []scripted{{res: Result{Text: "X", Confidence: 90}}},
	}
	ru := testRunner(eng)

	start := time.Now()
	_, err := ru.Attempt(context.Background(), synth.Clean("A", 20, 20), Config{ID: "slow", TimeoutMS: 40})
	if !errors.Is(err, ErrEngineTimeout) {
		t.Fatalf("err = %v, want ErrEngineTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("attempt blocked %s waiting on the abandoned engine call", elapsed)
	}
}

func TestAttempt_ContextCancelled(t *testing.T) {
	eng := &fakeEngine{
		delay:  300 * time.Millisecond,
		script: []scripted{{res: Result{Text: "X", Confidence: 90}}},
	}
	ru := testRunner(eng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ru.Attempt(ctx, synth.Clean("A", 20, 20), Config{ID: "r"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAttempt_EngineErrorPassthrough(t *testing.T) {
	eng := &fakeEngine{script: []scripted{{err: fmt.Errorf("%w: library missing", ErrEngineUnavailable)}}}
	ru := testRunner(eng)

	_, err := ru.Attempt(context.Background(), synth.Clean("A", 20, 20), Config{ID: "r"})
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("err = %v, want ErrEngineUnavailable", err)
	}
}

func TestAttempt_PerChar(t *testing.T) {
	eng := &fakeEngine{script: []scripted{
		{res: Result{Text: "A", Confidence: 80}},
		{res: Result{Text: "B", Confidence: 60}},
	}}
	ru := testRunner(eng)

	res, err := ru.Attempt(context.Background(), synth.Clean("AB", 64, 24), Config{ID: "pc", PerChar: true})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.Text != "AB" {
		t.Errorf("text = %q, want %q", res.Text, "AB")
	}
	if math.Abs(res.Confidence-70) > 1e-9 {
		t.Errorf("confidence = %g, want 70", res.Confidence)
	}

	eng.mu.Lock()
	defer eng.mu.Unlock()
	if len(eng.calls) != 2 {
		t.Fatalf("engine saw %d calls, want 2", len(eng.calls))
	}
	for i, c := range eng.calls {
		if c.PSM != 10 || c.PerChar {
			t.Errorf("glyph call %d: psm = %d, perchar = %v, want 10/false", i, c.PSM, c.PerChar)
		}
	}
}

func TestAttempt_PerCharGlyphFailureDegrades(t *testing.T) {
	eng := &fakeEngine{script: []scripted{
		{res: Result{Text: "A", Confidence: 80}},
		{err: fmt.Errorf("%w: glyph unreadable", ErrEngineUnavailable)},
	}}
	ru := testRunner(eng)

	res, err := ru.Attempt(context.Background(), synth.Clean("AB", 64, 24), Config{ID: "pc", PerChar: true})
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if res.Text != "A" {
		t.Errorf("text = %q, want %q", res.Text, "A")
	}
	if math.Abs(res.Confidence-40) > 1e-9 {
		t.Errorf("confidence = %g, want 40 with one unread glyph", res.Confidence)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{" A B\n", "AB"},
		{"a|b/c\\d", "abcd"},
		{"x_y~z`", "xyz"},
		{"A\x00B\x07", "AB"},
		{"AB3K", "AB3K"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"minimal", Config{ID: "r"}, false},
		{"full", Config{ID: "r", PSM: 8, EngineMode: ModeLSTM, Whitelist: "ABC", Language: "eng", TimeoutMS: 500, Priority: 10}, false},
		{"missing id", Config{PSM: 8}, true},
		{"psm too high", Config{ID: "r", PSM: 14}, true},
		{"bad engine mode", Config{ID: "r", EngineMode: "neural"}, true},
		{"negative timeout", Config{ID: "r", TimeoutMS: -5}, true},
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

func TestConfigNormalized(t *testing.T) {
	n := Config{ID: "x"}.Normalized()
	if n.Language != "eng" {
		t.Errorf("language = %q, want eng", n.Language)
	}
	if n.TimeoutMS != 10000 {
		t.Errorf("timeout_ms = %d, want 10000", n.TimeoutMS)
	}
	if n.PSM != 3 {
		t.Errorf("psm = %d, want 3", n.PSM)
	}
	if n.EngineMode != ModeDefault {
		t.Errorf("engine_mode = %q, want %q", n.EngineMode, ModeDefault)
	}
}
