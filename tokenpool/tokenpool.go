// Package tokenpool rotates API credentials for one backend. Tokens that
// recently failed sit out a cooldown window and additionally skip a number
// of rotation rounds proportional to their accumulated error count, so a
// flaky key drains traffic toward healthy ones instead of failing every
// other request.
package tokenpool

import (
	"sync"
	"time"
)

// DefaultCooldown is applied when RecordError is called without a
// server-provided retry delay.
const DefaultCooldown = 60 * time.Second

// Pool is a rotating credential pool. All methods are safe for concurrent
// use.
type Pool struct {
	mu         sync.Mutex
	tokens     []string
	cursor     int
	skipRounds []int
	usage      map[string]int64
	errors     map[string]int
	cooldown   map[string]time.Time
	now        func() time.Time
}

// TokenStat is a point-in-time snapshot of one token's health.
type TokenStat struct {
	Token             string
	Uses              int64
	Errors            int
	CooldownRemaining time.Duration
	SkipRounds        int
}

// New builds a pool over tokens in the given rotation order.
func New(tokens []string) *Pool {
	p := &Pool{
		tokens:     make([]string, len(tokens)),
		cursor:     -1,
		skipRounds: make([]int, len(tokens)),
		usage:      make(map[string]int64),
		errors:     make(map[string]int),
		cooldown:   make(map[string]time.Time),
		now:        time.Now,
	}
	copy(p.tokens, tokens)
	return p
}

// Len reports the number of tokens in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tokens)
}

// Next hands out the next eligible token. The cursor advances one slot per
// attempt; a token with outstanding skip-rounds burns one round and is
// passed over, a token in cooldown is passed over without side effects.
// After two full rotations with no eligible token, the token whose cooldown
// expires soonest is returned anyway so the caller can still make progress.
// ok is false only when the pool is empty.
func (p *Pool) Next() (token string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.tokens)
	if n == 0 {
		return "", false
	}
	now := p.now()
	for attempts := 0; attempts < 2*n; attempts++ {
		p.cursor = (p.cursor + 1) % n
		idx := p.cursor
		if p.skipRounds[idx] > 0 {
			p.skipRounds[idx]--
			continue
		}
		tok := p.tokens[idx]
		if until, found := p.cooldown[tok]; found && until.After(now) {
			continue
		}
		p.usage[tok]++
		return tok, true
	}
	for _, tok := range p.tokens {
		if until, found := p.cooldown[tok]; !found || !until.After(now) {
			p.usage[tok]++
			return tok, true
		}
	}
	best := p.tokens[0]
	for _, tok := range p.tokens[1:] {
		if p.cooldown[tok].Before(p.cooldown[best]) {
			best = tok
		}
	}
	p.usage[best]++
	return best, true
}

// RecordError puts token into cooldown and raises its skip-round debt by
// its cumulative error count, so repeat offenders sit out progressively
// longer. A non-positive cooldown falls back to DefaultCooldown.
func (p *Pool) RecordError(token string, cooldown time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	p.errors[token]++
	p.cooldown[token] = p.now().Add(cooldown)
	if idx := p.indexOf(token); idx >= 0 {
		p.skipRounds[idx] += p.errors[token]
	}
}

// RecordSuccess decays the token's error count and skip-round debt by one,
// floored at zero.
func (p *Pool) RecordSuccess(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errors[token] > 0 {
		p.errors[token]--
	}
	if idx := p.indexOf(token); idx >= 0 && p.skipRounds[idx] > 0 {
		p.skipRounds[idx]--
	}
}

// ResetAll clears error counts, cooldowns, and skip-round debt. Usage
// counters survive.
func (p *Pool) ResetAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = make(map[string]int)
	p.cooldown = make(map[string]time.Time)
	for i := range p.skipRounds {
		p.skipRounds[i] = 0
	}
}

// ResetCooldowns lifts all active cooldowns but keeps error counts and
// skip-round debt.
func (p *Pool) ResetCooldowns() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldown = make(map[string]time.Time)
}

// Stats snapshots every token in rotation order.
func (p *Pool) Stats() []TokenStat {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	out := make([]TokenStat, len(p.tokens))
	for i, tok := range p.tokens {
		s := TokenStat{
			Token:      tok,
			Uses:       p.usage[tok],
			Errors:     p.errors[tok],
			SkipRounds: p.skipRounds[i],
		}
		if until, found := p.cooldown[tok]; found && until.After(now) {
			s.CooldownRemaining = until.Sub(now)
		}
		out[i] = s
	}
	return out
}

func (p *Pool) indexOf(token string) int {
	for i, tok := range p.tokens {
		if tok == token {
			return i
		}
	}
	return -1
}
