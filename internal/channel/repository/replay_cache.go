package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// replayEntry pairs a message ID with its expiry for ordered eviction.
type replayEntry struct {
	id        string
	expiresAt time.Time
}

// ReplayCache is a bounded TTL set of processed envelope IDs. Entries expire
// after the configured TTL; when the cache is full the oldest entry is
// evicted so the cache never grows past its capacity.
type ReplayCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	seen     map[string]time.Time
	order    []replayEntry
	interval time.Duration
	logger   *slog.Logger
}

// NewReplayCache creates a replay cache with the given TTL, capacity, and
// prune interval.
func NewReplayCache(ttl time.Duration, capacity int, pruneInterval time.Duration, logger *slog.Logger) *ReplayCache {
	return &ReplayCache{
		ttl:      ttl,
		capacity: capacity,
		seen:     make(map[string]time.Time),
		order:    make([]replayEntry, 0),
		interval: pruneInterval,
		logger:   logger,
	}
}

// Seen reports whether the message ID is present and unexpired.
func (c *ReplayCache) Seen(ctx context.Context, messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt, ok := c.seen[messageID]
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		delete(c.seen, messageID)
		return false
	}
	return true
}

// Record inserts the message ID with the cache TTL, evicting the oldest
// entry if the cache is at capacity.
func (c *ReplayCache) Record(ctx context.Context, messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.pruneLocked(now)

	for len(c.seen) >= c.capacity && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest.id)
	}

	expiresAt := now.Add(c.ttl)
	c.seen[messageID] = expiresAt
	c.order = append(c.order, replayEntry{id: messageID, expiresAt: expiresAt})
}

// Len returns the number of unexpired entries.
func (c *ReplayCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked(time.Now())
	return len(c.seen)
}

// StartPruner removes expired entries on the configured interval until the
// context is cancelled.
func (c *ReplayCache) StartPruner(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			before := len(c.seen)
			c.pruneLocked(time.Now())
			removed := before - len(c.seen)
			c.mu.Unlock()

			if removed > 0 {
				c.logger.Debug("replay cache pruned", slog.Int("removed", removed))
			}
		}
	}
}

// pruneLocked drops expired entries. Caller must hold the lock. The order
// queue is expiry-ordered because the TTL is constant.
func (c *ReplayCache) pruneLocked(now time.Time) {
	idx := 0
	for idx < len(c.order) && now.After(c.order[idx].expiresAt) {
		delete(c.seen, c.order[idx].id)
		idx++
	}
	if idx > 0 {
		c.order = c.order[idx:]
	}
}
