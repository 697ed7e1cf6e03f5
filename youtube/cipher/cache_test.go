package cipher

import (
	"sync"
	"testing"
	"time"
)

func TestProgramCache(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewProgramCache(time.Hour)
	c.now = func() time.Time { return now }

	prog := Program{{Kind: Reverse}, {Kind: DropFront, Arg: 2}}
	if _, ok := c.Get("script-a"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Put("script-a", prog)
	prog[0].Kind = SwapWithFront // stored copy must not change

	got, ok := c.Get("script-a")
	if !ok || got[0].Kind != Reverse {
		t.Fatalf("Get = %v, %v", got, ok)
	}
	if _, ok := c.Get("script-b"); ok {
		t.Fatal("different script should miss")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("script-a"); ok {
		t.Fatal("expired entry should miss")
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 3 || s.Entries != 0 {
		t.Fatalf("Stats = %+v", s)
	}
}

func TestProgramCacheCleanup(t *testing.T) {
	now := time.Now()
	c := NewProgramCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Put("old", Program{{Kind: Reverse}})
	now = now.Add(2 * time.Minute)
	c.Put("fresh", Program{{Kind: Reverse}})

	if n := c.Cleanup(); n != 1 {
		t.Fatalf("Cleanup removed %d, want 1", n)
	}
	if s := c.Stats(); s.Entries != 1 {
		t.Fatalf("Entries = %d, want 1", s.Entries)
	}
}

func TestProgramCacheDefaultsTTL(t *testing.T) {
	if c := NewProgramCache(0); c.ttl != DefaultCacheTTL {
		t.Fatalf("ttl = %v, want %v", c.ttl, DefaultCacheTTL)
	}
}

func TestCacheKeyForJS(t *testing.T) {
	if cacheKeyForJS("a") == cacheKeyForJS("b") {
		t.Fatal("different scripts share a key")
	}
	if len(cacheKeyForJS("a")) != 40 {
		t.Fatalf("unexpected key length %d", len(cacheKeyForJS("a")))
	}
}

func TestProgramCacheConcurrency(t *testing.T) {
	c := NewProgramCache(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put("s", Program{{Kind: DropFront, Arg: i}})
			c.Get("s")
		}(i)
	}
	wg.Wait()
	if s := c.Stats(); s.Hits+s.Misses != 20 {
		t.Fatalf("Stats = %+v", s)
	}
}
