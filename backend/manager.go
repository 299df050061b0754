package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// maxConsecutiveFailures suspends an endpoint from the chain once
	// reached within the failure cooldown window.
	maxConsecutiveFailures = 5
	failureCooldown        = 5 * time.Minute
)

// ErrNoEndpoints is returned when the chain is empty or every endpoint is
// suspended.
var ErrNoEndpoints = errors.New("backend: no endpoints available")

// Manager walks an ordered fallback chain of endpoints. Each call tries
// endpoints in order, pacing requests to each endpoint's configured rate,
// and returns the first success; a failing endpoint is recorded and the
// next one tried. Endpoints that keep failing are suspended for a
// cooldown window.
type Manager struct {
	endpoints []*Endpoint
	now       func() time.Time
}

// NewManager builds a manager over endpoints in fallback-chain order.
func NewManager(endpoints ...*Endpoint) *Manager {
	return &Manager{endpoints: endpoints, now: time.Now}
}

// Endpoints returns the chain in fallback order.
func (m *Manager) Endpoints() []*Endpoint { return m.endpoints }

// Translate tries each endpoint in chain order and returns the first
// successful result. When every endpoint fails, the last error is
// returned wrapped with the endpoint that produced it.
func (m *Manager) Translate(ctx context.Context, texts []string, srcLang, tgtLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var lastErr error
	tried := 0
	for _, ep := range m.endpoints {
		if ep.stats.suspended(m.now(), maxConsecutiveFailures, failureCooldown) {
			continue
		}
		tried++

		if err := m.waitTurn(ctx, ep); err != nil {
			return nil, err
		}

		start := m.now()
		out, err := ep.Translate(ctx, texts, srcLang, tgtLang)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ep.stats.recordFailure(err.Error(), m.now())
			lastErr = fmt.Errorf("%s: %w", ep.name, err)
			continue
		}
		ep.stats.recordSuccess(m.now().Sub(start))
		return out, nil
	}
	if tried == 0 {
		return nil, ErrNoEndpoints
	}
	return nil, lastErr
}

// waitTurn enforces the endpoint's minimum inter-request interval. The
// pacing lock serializes concurrent workers targeting the same endpoint
// so each observes the previous request time.
func (m *Manager) waitTurn(ctx context.Context, ep *Endpoint) error {
	interval := ep.minInterval()
	if interval <= 0 {
		return nil
	}
	ep.paceMu.Lock()
	defer ep.paceMu.Unlock()
	if wait := interval - m.now().Sub(ep.lastRequest); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	ep.lastRequest = m.now()
	return nil
}

// Ranked is one row of the advisory endpoint ranking.
type Ranked struct {
	Endpoint *Endpoint
	Score    float64
}

// Best returns the highest-scoring non-suspended endpoint, or nil when
// none qualifies. Advisory only; Translate always honors chain order.
func (m *Manager) Best() *Endpoint {
	var best *Endpoint
	bestScore := 0.0
	for _, ep := range m.endpoints {
		if ep.stats.suspended(m.now(), maxConsecutiveFailures, failureCooldown) {
			continue
		}
		if s := ep.stats.score(); best == nil || s > bestScore {
			best, bestScore = ep, s
		}
	}
	return best
}

// Ranking returns all endpoints ordered best-first by score.
func (m *Manager) Ranking() []Ranked {
	out := make([]Ranked, 0, len(m.endpoints))
	for _, ep := range m.endpoints {
		out = append(out, Ranked{Endpoint: ep, Score: ep.stats.score()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// ResetStats zeroes every endpoint's counters.
func (m *Manager) ResetStats() {
	for _, ep := range m.endpoints {
		ep.stats.Reset()
	}
}

// Close releases every endpoint's resources.
func (m *Manager) Close() error {
	var firstErr error
	for _, ep := range m.endpoints {
		if err := ep.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
