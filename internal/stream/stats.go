package stream

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Stats tracks inter-arrival jitter across delivered payloads, a
// diagnostic side channel the loop feeds but never blocks on.
type Stats struct {
	mu        sync.Mutex
	intervals []float64
	lastSeen  time.Time
}

// NewStats constructs an empty jitter tracker retaining up to capacity
// inter-arrival samples (oldest dropped first).
func NewStats(capacity int) *Stats {
	return &Stats{intervals: make([]float64, 0, capacity)}
}

// observe records the gap since the previous call, in seconds. The first
// call only seeds lastSeen and reports no interval yet.
func (s *Stats) observe(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lastSeen.IsZero() {
		gap := now.Sub(s.lastSeen).Seconds()
		if len(s.intervals) == cap(s.intervals) && cap(s.intervals) > 0 {
			copy(s.intervals, s.intervals[1:])
			s.intervals = s.intervals[:len(s.intervals)-1]
		}
		s.intervals = append(s.intervals, gap)
	}
	s.lastSeen = now
}

// JitterStdDev returns the standard deviation of recorded inter-arrival
// intervals, the loop's block-to-block jitter figure.
func (s *Stats) JitterStdDev() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.intervals) < 2 {
		return 0
	}
	return stat.StdDev(s.intervals, nil)
}

// Mean returns the mean inter-arrival interval in seconds.
func (s *Stats) Mean() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.intervals) == 0 {
		return 0
	}
	return stat.Mean(s.intervals, nil)
}
