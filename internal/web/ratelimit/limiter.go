// Package ratelimit throttles repeated requests from the same client.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether another request for key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Decision is the outcome of one Allow call
type Decision struct {
	// Allowed reports whether the request may proceed
	Allowed bool
	// Limit is the number of requests permitted per window
	Limit int
	// Remaining is how many more requests fit in the current window
	Remaining int
	// RetryAfter is how long a rejected client should wait
	RetryAfter time.Duration
}
