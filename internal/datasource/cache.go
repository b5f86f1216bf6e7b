package datasource

import (
	"context"
	"sync"
	"time"
)

// cache is a TTL map typed to the value it stores. Entries are inserted
// atomically on fetch completion; readers never observe a partially
// written entry and never block on in-flight fetches.
type cache[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func newCache[T any](ttl time.Duration) *cache[T] {
	return &cache[T]{
		ttl:     ttl,
		entries: make(map[string]cacheEntry[T]),
	}
}

// get returns the cached value for key, or the zero value and false when
// the key is absent or expired.
func (c *cache[T]) get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// set stores value under key with the cache's default TTL.
func (c *cache[T]) set(key string, value T) {
	c.setTTL(key, value, c.ttl)
}

// setTTL stores value under key with an explicit TTL.
func (c *cache[T]) setTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// invalidate removes key from the cache.
func (c *cache[T]) invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// sweep drops every expired entry and reports how many remain.
func (c *cache[T]) sweep() int {
	now := time.Now()
	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	n := len(c.entries)
	c.mu.Unlock()
	return n
}

// RateLimiter is a token bucket for outbound provider calls: maxTokens
// requests per refillRate window, with tokens restored one window at a
// time rather than continuously.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing maxTokens requests per
// refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
// It sleeps until the next scheduled refill instead of polling.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		next := rl.lastRefill.Add(rl.refillRate)
		rl.mu.Unlock()

		sleep := time.Until(next)
		if sleep < time.Millisecond {
			sleep = time.Millisecond
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill credits one token per elapsed window. Caller holds mu.
func (rl *RateLimiter) refill() {
	elapsed := time.Since(rl.lastRefill)
	if elapsed < rl.refillRate {
		return
	}
	periods := int(elapsed / rl.refillRate)
	rl.tokens += periods
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
}
