package recognize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/transform"
)

// perCharMinArea is the smallest connected region treated as a glyph when
// a recognizer runs in per-character mode.
const perCharMinArea = 10

// noiseChars are artifacts the engine tends to read out of residual
// strike-through lines; captcha answers never contain them.
const noiseChars = "|\\/_~`"

// Runner executes single recognition attempts: it wraps an Engine call in
// the attempt's time budget, cleans the raw reading, clamps confidence into
// 0..100, and punishes readings that stray outside the whitelist.
type Runner struct {
	engine Engine
	log    zerolog.Logger
}

// NewRunner wraps engine. The logger only emits attempt-level debug detail.
func NewRunner(engine Engine, log zerolog.Logger) *Runner {
	return &Runner{engine: engine, log: log}
}

// Attempt runs one recognition pass over r with cfg. The engine call runs in
// its own goroutine; when the attempt budget or ctx expires first, Attempt
// returns immediately and the stuck call is abandoned to finish on its own.
// Timeouts surface as ErrEngineTimeout, cancellation as ctx.Err().
func (ru *Runner) Attempt(ctx context.Context, r *raster.Raster, cfg Config) (Result, error) {
	if r == nil {
		return Result{}, errors.New("nil raster")
	}
	cfg = cfg.Normalized()

	type outcome struct {
		res Result
		err error
	}
	// Buffered so the abandoned goroutine can always deliver and exit.
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		var o outcome
		if cfg.PerChar {
			o.res, o.err = ru.perChar(r, cfg)
		} else {
			o.res, o.err = ru.engine.Recognize(r, cfg)
		}
		done <- o
	}()

	timer := time.NewTimer(cfg.Timeout())
	defer timer.Stop()

	select {
	case o := <-done:
		if o.err != nil {
			ru.log.Debug().Str("recognizer", cfg.ID).Err(o.err).Msg("attempt failed")
			return Result{}, o.err
		}
		res := ru.finish(o.res, cfg)
		ru.log.Debug().
			Str("recognizer", cfg.ID).
			Str("text", res.Text).
			Float64("confidence", res.Confidence).
			Dur("elapsed", time.Since(start)).
			Msg("attempt finished")
		return res, nil
	case <-timer.C:
		ru.log.Debug().Str("recognizer", cfg.ID).Dur("budget", cfg.Timeout()).Msg("attempt abandoned")
		return Result{}, fmt.Errorf("%w after %s", ErrEngineTimeout, cfg.Timeout())
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// perChar splits the raster into glyphs and reads each with a
// single-character page mode, joining the readings left to right. The final
// confidence is the mean over all glyphs; a glyph the engine cannot read
// contributes nothing, degrading the mean instead of failing the attempt.
func (ru *Runner) perChar(r *raster.Raster, cfg Config) (Result, error) {
	glyphs, err := transform.Segment(r, perCharMinArea)
	if err != nil {
		return Result{}, err
	}
	if len(glyphs) == 0 {
		return Result{}, nil
	}

	single := cfg
	single.PerChar = false
	single.PSM = 10

	var b strings.Builder
	sum := 0.0
	for _, g := range glyphs {
		res, err := ru.engine.Recognize(g, single)
		if err != nil {
			ru.log.Debug().Str("recognizer", cfg.ID).Err(err).Msg("glyph read failed")
			continue
		}
		b.WriteString(CleanText(res.Text))
		sum += res.Confidence
	}
	return Result{Text: b.String(), Confidence: sum / float64(len(glyphs))}, nil
}

func (ru *Runner) finish(res Result, cfg Config) Result {
	res.Text = CleanText(res.Text)
	res.Confidence = ClampConfidence(res.Confidence)
	if cfg.Whitelist != "" && res.Text != "" {
		res.Confidence *= whitelistPenalty(res.Text, cfg.Whitelist)
	}
	return res
}

// CleanText strips whitespace, unprintable characters, and known noise
// characters from a raw engine reading.
func CleanText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) || strings.ContainsRune(noiseChars, r) {
			return -1
		}
		return r
	}, s)
}

// ClampConfidence forces a confidence figure into the 0..100 range.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// whitelistPenalty scales confidence by the fraction of characters the
// whitelist allows. The curve is linear in that fraction; retune here if a
// captcha family needs off-whitelist readings punished harder.
func whitelistPenalty(text, whitelist string) float64 {
	kept, total := 0, 0
	for _, r := range text {
		total++
		if strings.ContainsRune(whitelist, r) {
			kept++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(kept) / float64(total)
}
