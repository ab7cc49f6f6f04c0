package backend

import (
	"sync/atomic"
	"time"
)

// Stats tracks backend call metrics. A Stats value is shared by a client and
// every token-scoped copy derived from it.
type Stats struct {
	calls   atomic.Int64
	errors  atomic.Int64
	latency atomic.Int64 // Total latency in nanoseconds
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Calls            int64   `json:"calls"`
	Errors           int64   `json:"errors"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	ErrorRate        float64 `json:"error_rate"`
}

func (s *Stats) record(duration time.Duration, err error) {
	s.calls.Add(1)
	s.latency.Add(duration.Nanoseconds())
	if err != nil {
		s.errors.Add(1)
	}
}

// Snapshot returns the current metrics
func (s *Stats) Snapshot() StatsSnapshot {
	calls := s.calls.Load()
	errs := s.errors.Load()
	snap := StatsSnapshot{Calls: calls, Errors: errs}
	if calls > 0 {
		snap.AverageLatencyMs = float64(s.latency.Load()) / float64(calls) / 1e6
		snap.ErrorRate = float64(errs) / float64(calls) * 100
	}
	return snap
}
