package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	errs "igrelations/pkg/errors"
	"igrelations/pkg/logger"
	"igrelations/pkg/retry"
)

// Range is an inclusive interval of delays
type Range struct {
	Min time.Duration `yaml:"min" json:"min"`
	Max time.Duration `yaml:"max" json:"max"`
}

// Draw returns a uniform delay in [Min, Max]
func (r Range) Draw(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	span := int64(r.Max - r.Min)
	return r.Min + time.Duration(rng.Int63n(span+1))
}

// Mean returns the midpoint of the range
func (r Range) Mean() time.Duration {
	return r.Min + (r.Max-r.Min)/2
}

// Validate checks that the range is well formed
func (r Range) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("minimum delay must not be negative, got %s", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("maximum delay %s is below minimum %s", r.Max, r.Min)
	}
	return nil
}

// PacerConfig configures the pause taken between profile fetches
type PacerConfig struct {
	Success Range
	Failure Range
	// BackoffMultiplier scales the failure delay per consecutive failure; 1 disables escalation
	BackoffMultiplier float64
	// MaxFailureDelay caps the escalated failure delay
	MaxFailureDelay time.Duration
}

// DefaultPacerConfig returns the 7-18s success and 20-30s failure ranges
func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		Success:           Range{Min: 7 * time.Second, Max: 18 * time.Second},
		Failure:           Range{Min: 20 * time.Second, Max: 30 * time.Second},
		BackoffMultiplier: 1,
		MaxFailureDelay:   5 * time.Minute,
	}
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// AdaptivePacer draws jittered pauses and stretches them after repeated failures
type AdaptivePacer struct {
	cfg     PacerConfig
	limiter Limiter
	sleep   Sleeper
	logger  logger.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	failures int
}

// Option configures an AdaptivePacer
type Option func(*AdaptivePacer)

// WithLimiter sets the limiter consulted before every attempt
func WithLimiter(l Limiter) Option {
	return func(p *AdaptivePacer) { p.limiter = l }
}

// WithRand sets the random source used for jitter
func WithRand(rng *rand.Rand) Option {
	return func(p *AdaptivePacer) { p.rng = rng }
}

// WithSleeper replaces the context-aware sleep
func WithSleeper(s Sleeper) Option {
	return func(p *AdaptivePacer) { p.sleep = s }
}

// WithLogger sets the pacer logger
func WithLogger(l logger.Logger) Option {
	return func(p *AdaptivePacer) { p.logger = l }
}

// NewAdaptivePacer creates a pacer
func NewAdaptivePacer(cfg PacerConfig, opts ...Option) *AdaptivePacer {
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	p := &AdaptivePacer{
		cfg:     cfg,
		limiter: Unlimited{},
		sleep:   retry.Wait,
		logger:  logger.NewNopLogger(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire waits for the request limiter before an attempt
func (p *AdaptivePacer) Acquire(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Pause sleeps after an attempt whose outcome was err and returns the delay taken
func (p *AdaptivePacer) Pause(ctx context.Context, err error) (time.Duration, error) {
	delay := p.Next(err)
	p.logger.DebugWithFields("pausing", map[string]interface{}{
		"delay_ms": delay.Milliseconds(),
		"failed":   err != nil,
	})
	return delay, p.sleep(ctx, delay)
}

// Next records the outcome and returns the delay to take, without sleeping
func (p *AdaptivePacer) Next(err error) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		p.failures = 0
		return p.cfg.Success.Draw(p.rng)
	}

	p.failures++
	base := p.cfg.Failure.Draw(p.rng)
	backoff := &retry.ExponentialBackoff{
		BaseDelay:  base,
		MaxDelay:   p.cfg.MaxFailureDelay,
		Multiplier: p.cfg.BackoffMultiplier,
	}
	delay := backoff.NextDelay(p.failures)
	if delay < base {
		// cap below the drawn base never shortens the failure range
		delay = base
	}

	if after := errs.RetryAfterOf(err); after > delay {
		delay = after
	}
	return delay
}

// ConsecutiveFailures reports the current failure streak
func (p *AdaptivePacer) ConsecutiveFailures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// Estimate returns the expected pacing time for n fetches assuming success
func (p *AdaptivePacer) Estimate(n int) time.Duration {
	if n <= 1 {
		return 0
	}
	return time.Duration(n-1) * p.cfg.Success.Mean()
}
