package backend

import "sync"

// memCache is the short-term tier of an endpoint's result cache: a map
// keyed by language pair and source text, alive for the process lifetime.
type memCache struct {
	mu      sync.RWMutex
	entries map[memKey]string
}

type memKey struct {
	srcLang, tgtLang, text string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[memKey]string)}
}

func (c *memCache) get(srcLang, tgtLang, text string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[memKey{srcLang, tgtLang, text}]
	return v, ok
}

func (c *memCache) set(srcLang, tgtLang, text, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memKey{srcLang, tgtLang, text}] = translated
}

func (c *memCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
