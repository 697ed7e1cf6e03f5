package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytget/ytinfo/internal/api/handlers"
)

// rateLimiter is a sliding-window counter keyed by client.
type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// cleanup drops keys whose requests all fell out of the window.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, times := range rl.requests {
		if valid := rl.within(now, times); len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func (rl *rateLimiter) within(now time.Time, times []time.Time) []time.Time {
	valid := times[:0]
	for _, t := range times {
		if now.Sub(t) <= rl.window {
			valid = append(valid, t)
		}
	}
	return valid
}

func (rl *rateLimiter) isAllowed(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := rl.within(now, rl.requests[key])
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// run cleans up every interval until ctx is done.
func (rl *rateLimiter) run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// RateLimit allows at most limit requests per window for each client IP.
// A non-positive limit disables limiting. Stale entries are purged until
// ctx is done.
func RateLimit(ctx context.Context, limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newRateLimiter(limit, window)
	go limiter.run(ctx, window)

	return func(c *gin.Context) {
		if !limiter.isAllowed(c.ClientIP()) {
			handlers.Abort(c, handlers.NewRateLimitError())
			return
		}
		c.Next()
	}
}
