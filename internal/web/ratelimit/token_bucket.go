package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// TokenBucket is an in-process limiter. Each key holds up to limit tokens
// that refill continuously over window.
type TokenBucket struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter allowing limit requests per window per key
func NewTokenBucket(limit int, window time.Duration) *TokenBucket {
	tb := &TokenBucket{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go tb.evictLoop(2 * window)
	return tb
}

func (tb *TokenBucket) rate() float64 {
	return float64(tb.limit) / tb.window.Seconds()
}

// Allow takes a token for key if one is available
func (tb *TokenBucket) Allow(_ context.Context, key string) (Decision, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(tb.limit), last: now}
		tb.buckets[key] = b
	}

	if elapsed := now.Sub(b.last); elapsed > 0 {
		b.tokens = math.Min(float64(tb.limit), b.tokens+elapsed.Seconds()*tb.rate())
		b.last = now
	}

	d := Decision{Limit: tb.limit}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
		d.Remaining = int(b.tokens)
		return d, nil
	}

	missing := 1 - b.tokens
	d.RetryAfter = time.Duration(missing / tb.rate() * float64(time.Second))
	return d, nil
}

func (tb *TokenBucket) evictLoop(idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tb.evictIdle(idle)
		case <-tb.done:
			return
		}
	}
}

// evictIdle drops buckets untouched for longer than idle; they would be full
func (tb *TokenBucket) evictIdle(idle time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	for key, b := range tb.buckets {
		if now.Sub(b.last) > idle {
			delete(tb.buckets, key)
		}
	}
}

// Close stops the eviction goroutine
func (tb *TokenBucket) Close() error {
	tb.once.Do(func() { close(tb.done) })
	return nil
}
