package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// staleAfter is how long an unused per-key limiter survives before cleanup.
const staleAfter = time.Hour

// rateLimiterEntry holds a limiter and last access time for cleanup.
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

// rateLimiter throttles per key using token buckets. Each key gets an
// independent limiter; stale limiters are removed by the cleanup loop to
// prevent unbounded memory growth.
type rateLimiter struct {
	limiters sync.Map // map[string]*rateLimiterEntry
	rps      float64
	burst    int
	interval time.Duration
}

// NewRateLimiter creates a per-key rate limiter. rps is the sustained rate,
// burst the spike capacity, cleanupInterval how often stale entries are swept.
func NewRateLimiter(rps float64, burst int, cleanupInterval time.Duration) RateLimiter {
	return &rateLimiter{
		rps:      rps,
		burst:    burst,
		interval: cleanupInterval,
	}
}

// Allow reports whether one more operation for the key fits the limit.
func (r *rateLimiter) Allow(key string) bool {
	return r.getLimiter(key).Allow()
}

// getLimiter retrieves or creates the limiter for a key.
func (r *rateLimiter) getLimiter(key string) *rate.Limiter {
	if val, ok := r.limiters.Load(key); ok {
		entry := val.(*rateLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &rateLimiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(r.rps), r.burst),
		lastAccess: time.Now(),
	}
	if existing, loaded := r.limiters.LoadOrStore(key, entry); loaded {
		return existing.(*rateLimiterEntry).limiter
	}
	return entry.limiter
}

// StartCleanup removes limiters not accessed recently until the context is
// cancelled.
func (r *rateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			threshold := time.Now().Add(-staleAfter)
			r.limiters.Range(func(key, value any) bool {
				entry := value.(*rateLimiterEntry)
				entry.mu.Lock()
				stale := entry.lastAccess.Before(threshold)
				entry.mu.Unlock()

				if stale {
					r.limiters.Delete(key)
				}
				return true
			})
		}
	}
}
