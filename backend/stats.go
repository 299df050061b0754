package backend

import (
	"sync"
	"time"
)

// Stats tracks request outcomes for one endpoint. The Manager uses it to
// suspend endpoints that keep failing and to rank the healthy ones. All
// methods are safe for concurrent use.
type Stats struct {
	mu                  sync.Mutex
	totalRequests       int
	successes           int
	failures            int
	cumulativeLatency   time.Duration
	consecutiveFailures int
	lastError           string
	lastFailure         time.Time
}

// StatsSnapshot is a point-in-time copy for display.
type StatsSnapshot struct {
	TotalRequests       int
	Successes           int
	Failures            int
	AverageLatency      time.Duration
	ConsecutiveFailures int
	LastError           string
	SuccessRate         float64
}

func (s *Stats) recordSuccess(latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests++
	s.successes++
	s.cumulativeLatency += latency
	s.consecutiveFailures = 0
}

func (s *Stats) recordFailure(errMsg string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalRequests++
	s.failures++
	s.consecutiveFailures++
	s.lastError = errMsg
	s.lastFailure = now
}

// suspended reports whether the endpoint should be skipped: too many
// consecutive failures, the latest within the cooldown window.
func (s *Stats) suspended(now time.Time, maxConsecutive int, cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures >= maxConsecutive && now.Sub(s.lastFailure) < cooldown
}

// score ranks an endpoint: success rate scaled to 100 minus a latency
// penalty capped at 50. An untried endpoint scores a full 100.
func (s *Stats) score() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	rate := 1.0
	if s.totalRequests > 0 {
		rate = float64(s.successes) / float64(s.totalRequests)
	}
	var avg float64
	if s.successes > 0 {
		avg = s.cumulativeLatency.Seconds() / float64(s.successes)
	}
	penalty := avg * 10
	if penalty > 50 {
		penalty = 50
	}
	return rate*100 - penalty
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s = Stats{}
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		TotalRequests:       s.totalRequests,
		Successes:           s.successes,
		Failures:            s.failures,
		ConsecutiveFailures: s.consecutiveFailures,
		LastError:           s.lastError,
		SuccessRate:         1.0,
	}
	if s.totalRequests > 0 {
		snap.SuccessRate = float64(s.successes) / float64(s.totalRequests)
	}
	if s.successes > 0 {
		snap.AverageLatency = s.cumulativeLatency / time.Duration(s.successes)
	}
	return snap
}
