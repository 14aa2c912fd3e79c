// Package ratelimit meters exchange request weight with golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limiter spends a per-minute weight budget. Each call declares its weight.
type Limiter struct {
	limiter *rate.Limiter
	budget  int
}

// New creates a limiter refilling weightPerMinute units per minute, bursting up to a tenth of it.
func New(weightPerMinute int) *Limiter {
	if weightPerMinute < 1 {
		weightPerMinute = 1
	}
	burst := weightPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(weightPerMinute)/60.0), burst),
		budget:  weightPerMinute,
	}
}

// Wait blocks for a weight-1 request.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// WaitWeight blocks until weight units are available. Weights above the burst are
// clamped so heavy endpoints still pass, after draining the bucket.
func (l *Limiter) WaitWeight(ctx context.Context, weight int) error {
	if weight < 1 {
		weight = 1
	}
	if b := l.limiter.Burst(); weight > b {
		weight = b
	}
	if err := l.limiter.WaitN(ctx, weight); err != nil {
		return fmt.Errorf("rate limit wait (weight %d): %w", weight, err)
	}
	return nil
}

// Allow reports whether a weight-1 request may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Tokens returns the currently available weight.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// Budget is the configured weight per minute.
func (l *Limiter) Budget() int {
	return l.budget
}
