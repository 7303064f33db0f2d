package solver

import "sync"

// Stats accumulates resolution counters for one solver lifetime. All four
// counters move under a single mutex, so a concurrent snapshot never
// observes a half-applied record.
type Stats struct {
	mu          sync.Mutex
	resolutions uint64
	successes   uint64
	confidence  float64
	attempts    uint64
}

// NewStats returns an empty tracker.
func NewStats() *Stats {
	return &Stats{}
}

// Record folds one finished resolution into the counters.
func (s *Stats) Record(o *Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolutions++
	if o.MetThreshold {
		s.successes++
	}
	s.confidence += o.Confidence
	s.attempts += uint64(len(o.Attempts))
}

// Snapshot is a point-in-time view of the tracker. Rates and averages are 0
// while nothing has been recorded.
type Snapshot struct {
	TotalProcessed uint64  `json:"total_processed"`
	Successes      uint64  `json:"successes"`
	SuccessRate    float64 `json:"success_rate"`
	AvgConfidence  float64 `json:"average_confidence"`
	AvgAttempts    float64 `json:"average_attempts"`
}

// Snapshot returns a consistent copy of the current counters. SuccessRate
// is a percentage.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		TotalProcessed: s.resolutions,
		Successes:      s.successes,
	}
	if s.resolutions > 0 {
		snap.SuccessRate = float64(s.successes) / float64(s.resolutions) * 100
		snap.AvgConfidence = s.confidence / float64(s.resolutions)
		snap.AvgAttempts = float64(s.attempts) / float64(s.resolutions)
	}
	return snap
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolutions = 0
	s.successes = 0
	s.confidence = 0
	s.attempts = 0
}
