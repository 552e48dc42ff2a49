package ratelimit

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	errs "igrelations/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

type countingLimiter struct {
	calls int
}

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.calls++
	return ctx.Err()
}

func newTestPacer(cfg PacerConfig, s *recordingSleeper) *AdaptivePacer {
	return NewAdaptivePacer(cfg,
		WithRand(rand.New(rand.NewSource(42))),
		WithSleeper(s.sleep),
	)
}

func TestRangeDraw(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := Range{Min: 7 * time.Second, Max: 18 * time.Second}

	for i := 0; i < 1000; i++ {
		d := r.Draw(rng)
		assert.GreaterOrEqual(t, d, r.Min)
		assert.LessOrEqual(t, d, r.Max)
	}

	fixed := Range{Min: time.Second, Max: time.Second}
	assert.Equal(t, time.Second, fixed.Draw(rng))
	assert.Equal(t, 12500*time.Millisecond, r.Mean())
}

func TestRangeValidate(t *testing.T) {
	assert.NoError(t, Range{Min: 0, Max: time.Second}.Validate())
	assert.Error(t, Range{Min: -time.Second, Max: time.Second}.Validate())
	assert.Error(t, Range{Min: 2 * time.Second, Max: time.Second}.Validate())
}

func TestPauseUsesSuccessAndFailureRanges(t *testing.T) {
	s := &recordingSleeper{}
	p := newTestPacer(DefaultPacerConfig(), s)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		d, err := p.Pause(ctx, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 7*time.Second)
		assert.LessOrEqual(t, d, 18*time.Second)
	}

	for i := 0; i < 200; i++ {
		d, err := p.Pause(ctx, errors.New("boom"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 20*time.Second)
		assert.LessOrEqual(t, d, 30*time.Second, "multiplier 1 keeps the fixed range")
	}

	assert.Len(t, s.delays, 400)
}

func TestFailureEscalationAndReset(t *testing.T) {
	cfg := PacerConfig{
		Success:           Range{Min: time.Second, Max: time.Second},
		Failure:           Range{Min: 10 * time.Second, Max: 10 * time.Second},
		BackoffMultiplier: 2,
		MaxFailureDelay:   35 * time.Second,
	}
	p := newTestPacer(cfg, &recordingSleeper{})
	fail := errors.New("fail")

	assert.Equal(t, 10*time.Second, p.Next(fail))
	assert.Equal(t, 20*time.Second, p.Next(fail))
	assert.Equal(t, 35*time.Second, p.Next(fail))
	assert.Equal(t, 35*time.Second, p.Next(fail))
	assert.Equal(t, 4, p.ConsecutiveFailures())

	assert.Equal(t, time.Second, p.Next(nil))
	assert.Equal(t, 0, p.ConsecutiveFailures())
	assert.Equal(t, 10*time.Second, p.Next(fail))
}

func TestCapBelowFailureRangeKeepsBase(t *testing.T) {
	cfg := PacerConfig{
		Failure:           Range{Min: 20 * time.Second, Max: 20 * time.Second},
		BackoffMultiplier: 3,
		MaxFailureDelay:   5 * time.Second,
	}
	p := newTestPacer(cfg, &recordingSleeper{})

	assert.Equal(t, 20*time.Second, p.Next(errors.New("x")))
	assert.Equal(t, 20*time.Second, p.Next(errors.New("x")))
}

func TestRetryAfterFloor(t *testing.T) {
	p := newTestPacer(DefaultPacerConfig(), &recordingSleeper{})

	limited := errs.New(errs.ErrorTypeRateLimit, 429, "please wait")
	limited.RetryAfter = 2 * time.Minute
	assert.Equal(t, 2*time.Minute, p.Next(limited))

	short := errs.New(errs.ErrorTypeRateLimit, 429, "please wait")
	short.RetryAfter = time.Second
	d := p.Next(short)
	assert.GreaterOrEqual(t, d, 20*time.Second)
}

func TestPauseCancelled(t *testing.T) {
	p := NewAdaptivePacer(DefaultPacerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Pause(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquireUsesLimiter(t *testing.T) {
	l := &countingLimiter{}
	p := NewAdaptivePacer(DefaultPacerConfig(), WithLimiter(l))

	require.NoError(t, p.Acquire(context.Background()))
	require.NoError(t, p.Acquire(context.Background()))
	assert.Equal(t, 2, l.calls)
}

func TestEstimate(t *testing.T) {
	p := NewAdaptivePacer(DefaultPacerConfig())
	assert.Zero(t, p.Estimate(0))
	assert.Zero(t, p.Estimate(1))
	assert.Equal(t, 25*time.Second, p.Estimate(3))
}

func TestNewRequestLimiter(t *testing.T) {
	ctx := context.Background()

	unlimited := NewRequestLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, unlimited.Wait(ctx))
	}

	l := NewRequestLimiter(60, 2)
	assert.Equal(t, 2, l.Burst())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
