package solver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/darkchamp11/Captcha-Solver/internal/config"
	"github.com/darkchamp11/Captcha-Solver/internal/pipeline"
	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/recognize"
)

// PlanEntry pairs one preprocessing pipeline with one recognizer variant.
type PlanEntry struct {
	Pipeline   pipeline.Config
	Recognizer recognize.Config
}

// Candidate is one recognition attempt's result. Attempt is the 1-based
// position in the plan walk and breaks exact confidence ties. Err carries
// the failure text of a zero-confidence attempt whose pipeline or engine
// failed; it is empty for a clean reading.
type Candidate struct {
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	PipelineID   string  `json:"pipeline_id"`
	RecognizerID string  `json:"recognizer_id"`
	Attempt      int     `json:"attempt"`
	Err          string  `json:"error,omitempty"`
}

// Outcome is the final result of one resolution, together with the full
// attempt history that led to it. ID ties the outcome to its log lines and
// saved rasters.
type Outcome struct {
	ID           string      `json:"id"`
	Text         string      `json:"text"`
	Confidence   float64     `json:"confidence"`
	MetThreshold bool        `json:"met_threshold"`
	Attempts     []Candidate `json:"attempts"`
	DurationMS   int64       `json:"duration_ms"`
}

// BatchResult carries one entry of a batch resolution. Err is non-nil only
// for resolutions that could not run at all, usually after cancellation.
type BatchResult struct {
	Outcome *Outcome
	Err     error
}

type state int

const (
	statePending state = iota
	stateAttempting
	stateDone
	stateExhausted
)

func (s state) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateAttempting:
		return "attempting"
	case stateDone:
		return "done"
	default:
		return "exhausted"
	}
}

// Options tune a Solver beyond its plan.
type Options struct {
	// Threshold is the confidence bar a candidate must reach to stop the
	// plan walk early. Zero means the default of 60.
	Threshold float64

	// Workers caps concurrent resolutions in ResolveBatch. Zero means 4.
	Workers int

	// Sink, when set, receives every preprocessed raster for inspection.
	Sink pipeline.Sink

	// Stats, when set, replaces the solver's own tracker. Handing several
	// solvers one tracker aggregates their counters.
	Stats *Stats
}

const (
	defaultThreshold = 60
	defaultWorkers   = 4
)

// Solver resolves captcha rasters against a fixed attempt plan. It is safe
// for concurrent use.
type Solver struct {
	plan      []PlanEntry
	threshold float64
	workers   int
	runner    *recognize.Runner
	sink      pipeline.Sink
	stats     *Stats
	log       zerolog.Logger
}

// NewPlan builds an attempt plan as the cross-product of pipelines and
// recognizers. Recognizers are ordered by descending priority (stable for
// ties), and each recognizer tries every pipeline in configured order
// before the plan moves on to the next recognizer.
func NewPlan(pipes []pipeline.Config, recs []recognize.Config) []PlanEntry {
	ordered := make([]recognize.Config, len(recs))
	copy(ordered, recs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	plan := make([]PlanEntry, 0, len(pipes)*len(ordered))
	for _, rc := range ordered {
		for _, pc := range pipes {
			plan = append(plan, PlanEntry{Pipeline: pc, Recognizer: rc})
		}
	}
	return plan
}

// New validates the plan and builds a Solver around runner. An empty plan
// and out-of-range options are configuration errors.
func New(log zerolog.Logger, runner *recognize.Runner, plan []PlanEntry, opts Options) (*Solver, error) {
	if runner == nil {
		return nil, errors.New("nil runner")
	}
	if len(plan) == 0 {
		return nil, &config.Error{Field: "plan", Reason: "attempt plan is empty"}
	}
	for i, entry := range plan {
		if err := entry.Pipeline.Validate(); err != nil {
			return nil, &config.Error{Field: fmt.Sprintf("plan[%d].pipeline", i), Reason: err.Error()}
		}
		if err := entry.Recognizer.Validate(); err != nil {
			return nil, &config.Error{Field: fmt.Sprintf("plan[%d].recognizer", i), Reason: err.Error()}
		}
	}

	threshold := opts.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	if threshold < 0 || threshold > 100 {
		return nil, &config.Error{Field: "threshold", Reason: fmt.Sprintf("must be in 0..100, got %g", opts.Threshold)}
	}
	workers := opts.Workers
	if workers == 0 {
		workers = defaultWorkers
	}
	if workers < 0 {
		return nil, &config.Error{Field: "workers", Reason: fmt.Sprintf("must be positive, got %d", opts.Workers)}
	}
	stats := opts.Stats
	if stats == nil {
		stats = NewStats()
	}

	return &Solver{
		plan:      plan,
		threshold: threshold,
		workers:   workers,
		runner:    runner,
		sink:      opts.Sink,
		stats:     stats,
		log:       log,
	}, nil
}

// Threshold returns the confidence bar the solver stops early at.
func (s *Solver) Threshold() float64 { return s.threshold }

// Plan returns the solver's attempt plan.
func (s *Solver) Plan() []PlanEntry { return s.plan }

// Resolve walks the attempt plan over r and returns the outcome. Each
// distinct pipeline preprocesses the image at most once; failed steps and
// engine errors become zero-confidence candidates and the walk continues.
// The walk stops early once a candidate reaches the threshold.
//
// Cancellation of ctx aborts the resolution with ctx's error; nothing is
// recorded in the statistics for an aborted resolution.
func (s *Solver) Resolve(ctx context.Context, r *raster.Raster) (*Outcome, error) {
	if len(s.plan) == 0 {
		return nil, &config.Error{Field: "plan", Reason: "attempt plan is empty"}
	}
	if r == nil {
		return nil, errors.New("nil raster")
	}

	resID := uuid.New().String()
	start := time.Now()
	log := s.log.With().Str("resolution", resID).Logger()
	log.Debug().Stringer("state", statePending).Int("plan_entries", len(s.plan)).Msg("resolution starting")

	// Preprocessing is memoized per pipeline id for this raster; a failed
	// pipeline is memoized with its failure text so it does not rerun.
	type prep struct {
		img *raster.Raster
		err string
	}
	processed := make(map[string]prep, len(s.plan))
	attempts := make([]Candidate, 0, len(s.plan))
	best := -1

	for i, entry := range s.plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debug().Stringer("state", stateAttempting).Int("entry", i).
			Str("pipeline", entry.Pipeline.ID).Str("recognizer", entry.Recognizer.ID).
			Msg("attempting plan entry")

		cand := Candidate{
			PipelineID:   entry.Pipeline.ID,
			RecognizerID: entry.Recognizer.ID,
			Attempt:      i + 1,
		}

		p, seen := processed[entry.Pipeline.ID]
		if !seen {
			img, err := entry.Pipeline.Run(r)
			if err != nil {
				log.Warn().Err(err).Str("pipeline", entry.Pipeline.ID).Msg("preprocessing failed")
				p = prep{err: err.Error()}
			} else {
				p = prep{img: img}
			}
			processed[entry.Pipeline.ID] = p
			if p.img != nil && s.sink != nil {
				if err := s.sink.Save(resID+"_"+entry.Pipeline.ID, p.img); err != nil {
					log.Warn().Err(err).Msg("failed to save processed raster")
				}
			}
		}

		if p.img == nil {
			cand.Err = p.err
		} else {
			res, err := s.runner.Attempt(ctx, p.img, entry.Recognizer)
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return nil, err
			case err != nil:
				log.Warn().Err(err).Str("recognizer", entry.Recognizer.ID).Msg("attempt failed")
				cand.Err = err.Error()
			default:
				cand.Text = res.Text
				cand.Confidence = res.Confidence
			}
		}

		attempts = append(attempts, cand)
		if best < 0 || cand.Confidence > attempts[best].Confidence {
			best = len(attempts) - 1
		}
		if cand.Confidence >= s.threshold {
			break
		}
	}

	win := attempts[best]
	outcome := &Outcome{
		ID:           resID,
		Text:         win.Text,
		Confidence:   win.Confidence,
		MetThreshold: win.Confidence >= s.threshold,
		Attempts:     attempts,
		DurationMS:   time.Since(start).Milliseconds(),
	}
	s.stats.Record(outcome)

	final := stateExhausted
	if outcome.MetThreshold {
		final = stateDone
	}
	log.Info().Stringer("state", final).
		Str("text", outcome.Text).
		Float64("confidence", outcome.Confidence).
		Int("attempts", len(attempts)).
		Msg("resolution finished")
	return outcome, nil
}

// ResolveBatch resolves every raster concurrently and returns results in
// input order. Cancellation stops scheduling; entries that could not run
// report ctx's error in their slot.
func (s *Solver) ResolveBatch(ctx context.Context, rs []*raster.Raster) []BatchResult {
	results := make([]BatchResult, len(rs))
	if len(rs) == 0 {
		return results
	}

	workers := s.workers
	if workers > len(rs) {
		workers = len(rs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out, err := s.Resolve(ctx, rs[i])
				results[i] = BatchResult{Outcome: out, Err: err}
			}
		}()
	}
	for i := range rs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// Statistics returns a snapshot of the solver's tracker.
func (s *Solver) Statistics() Snapshot {
	return s.stats.Snapshot()
}

// ResetStatistics zeroes the tracker.
func (s *Solver) ResetStatistics() {
	s.stats.Reset()
}
