package cipher

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a derived program is reused.
const DefaultCacheTTL = 6 * time.Hour

type cacheEntry struct {
	prog  Program
	expAt time.Time
}

// CacheStats reports cache usage counters.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// ProgramCache stores derived programs keyed by the SHA-1 of the script text.
// It is safe for concurrent use.
type ProgramCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewProgramCache creates a cache whose entries expire after ttl.
// A non-positive ttl uses DefaultCacheTTL.
func NewProgramCache(ttl time.Duration) *ProgramCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ProgramCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKeyForJS(playerJS string) string {
	h := sha1.Sum([]byte(playerJS))
	return hex.EncodeToString(h[:])
}

// Get returns the program derived from script, if cached and not expired.
func (c *ProgramCache) Get(script string) (Program, bool) {
	key := cacheKeyForJS(script)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expAt) {
		if ok {
			delete(c.entries, key)
		}
		c.misses++
		return nil, false
	}
	c.hits++
	return e.prog, true
}

// Put stores prog for script.
func (c *ProgramCache) Put(script string, prog Program) {
	key := cacheKeyForJS(script)
	cp := append(Program(nil), prog...)
	c.mu.Lock()
	c.entries[key] = cacheEntry{prog: cp, expAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Cleanup removes expired entries and returns how many were dropped.
func (c *ProgramCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.expAt) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *ProgramCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
