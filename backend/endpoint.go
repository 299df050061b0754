package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ymylive/translator/tokenpool"
)

// Endpoint is one configured backend: a protocol adapter kind, a rotating
// credential pool, and its own dual-tier result cache. Each endpoint owns
// its cache outright; nothing is shared between endpoints, so two
// endpoints of the same kind never see each other's results.
type Endpoint struct {
	name    string
	cfg     Config
	factory Factory
	pool    *tokenpool.Pool
	stats   *Stats

	mem  *memCache
	disk *sqlCache // nil when the persistent tier is disabled

	// pacing state, serialized by the Manager's rate-limit wait
	paceMu      sync.Mutex
	lastRequest time.Time
}

// NewEndpoint builds an endpoint from cfg. cacheDir holds the persistent
// cache tier; pass "" to run with the memory tier only.
func NewEndpoint(cfg Config, cacheDir string) (*Endpoint, error) {
	factory, err := factoryFor(cfg.Kind)
	if err != nil {
		return nil, err
	}
	e := &Endpoint{
		name:    cfg.displayName(),
		cfg:     cfg,
		factory: factory,
		pool:    tokenpool.New(cfg.APIKeys),
		stats:   &Stats{},
		mem:     newMemCache(),
	}
	if cacheDir != "" {
		disk, err := openSQLCache(cacheDir, e.name)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", e.name, err)
		}
		e.disk = disk
	}
	return e, nil
}

// Name returns the endpoint's display name.
func (e *Endpoint) Name() string { return e.name }

// Stats returns the endpoint's outcome counters.
func (e *Endpoint) Stats() *Stats { return e.stats }

// Pool returns the endpoint's credential pool.
func (e *Endpoint) Pool() *tokenpool.Pool { return e.pool }

// Translate serves each text from the cache tiers where possible and
// sends only the misses to the adapter, under a credential drawn from the
// pool. A failing call puts that credential into cooldown; a rate-limit
// error carries the server's requested wait into the cooldown.
func (e *Endpoint) Translate(ctx context.Context, texts []string, srcLang, tgtLang string) ([]string, error) {
	results := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if cached, ok := e.cached(srcLang, tgtLang, text); ok {
			results[i] = cached
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return results, nil
	}

	// A keyless pool hands out the empty credential, which local and
	// unauthenticated endpoints accept.
	token, _ := e.pool.Next()
	adapter := e.factory(e.cfg, token)

	out, err := adapter.Translate(ctx, missTexts, srcLang, tgtLang)
	if err != nil {
		cooldown := time.Duration(0)
		var rle *RateLimitError
		if errors.As(err, &rle) {
			cooldown = rle.RetryAfter
		}
		e.pool.RecordError(token, cooldown)
		return nil, err
	}
	if len(out) != len(missTexts) {
		e.pool.RecordError(token, 0)
		return nil, countError(e.name, len(missTexts), len(out))
	}
	e.pool.RecordSuccess(token)

	for j, idx := range missIdx {
		results[idx] = out[j]
		e.store(srcLang, tgtLang, missTexts[j], out[j])
	}
	return results, nil
}

// cached consults memory first, then the persistent tier, back-filling
// memory on a disk hit.
func (e *Endpoint) cached(srcLang, tgtLang, text string) (string, bool) {
	if v, ok := e.mem.get(srcLang, tgtLang, text); ok {
		return v, true
	}
	if e.disk == nil {
		return "", false
	}
	v, err := e.disk.get(srcLang, tgtLang, text)
	if err != nil {
		return "", false
	}
	e.mem.set(srcLang, tgtLang, text, v)
	return v, true
}

func (e *Endpoint) store(srcLang, tgtLang, text, translated string) {
	e.mem.set(srcLang, tgtLang, text, translated)
	if e.disk != nil {
		// A failed disk write costs a future re-translation, nothing more.
		_ = e.disk.set(srcLang, tgtLang, text, translated)
	}
}

// minInterval derives the pacing gap from the configured rate. Zero or
// negative RPS means unpaced.
func (e *Endpoint) minInterval() time.Duration {
	if e.cfg.RPS <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / e.cfg.RPS)
}

// CacheLen reports entries in the persistent tier, or the memory tier
// when no persistent tier is open.
func (e *Endpoint) CacheLen() (int, error) {
	if e.disk != nil {
		return e.disk.count()
	}
	return e.mem.len(), nil
}

// ClearCache empties both cache tiers.
func (e *Endpoint) ClearCache() error {
	e.mem = newMemCache()
	if e.disk != nil {
		return e.disk.clear()
	}
	return nil
}

// Close releases the persistent cache tier.
func (e *Endpoint) Close() error {
	if e.disk != nil {
		return e.disk.close()
	}
	return nil
}
