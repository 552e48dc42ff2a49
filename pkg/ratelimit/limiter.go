package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter blocks until another request may be sent
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewRequestLimiter returns a token bucket allowing rpm requests per minute
// with the given burst. A non-positive rpm disables limiting.
func NewRequestLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// Unlimited never blocks
type Unlimited struct{}

// Wait only reports context cancellation
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
