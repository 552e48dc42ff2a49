package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "igrelations/pkg/errors"
	"igrelations/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDelayConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Delay:       func(error, int) time.Duration { return 0 },
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewTestLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{10, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.2,
	}

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 1600*time.Millisecond)
		assert.LessOrEqual(t, d, 2400*time.Millisecond)
	}
}

func TestConstantBackoff(t *testing.T) {
	cb := &ConstantBackoff{Delay: 3 * time.Second}
	assert.Zero(t, cb.NextDelay(0))
	assert.Equal(t, 3*time.Second, cb.NextDelay(1))
	assert.Equal(t, 3*time.Second, cb.NextDelay(7))
}

func TestErrorTypeBackoffHonorsRetryAfter(t *testing.T) {
	etb := &ErrorTypeBackoff{
		NetworkErrorBackoff: &ConstantBackoff{Delay: time.Second},
		RateLimitBackoff:    &ConstantBackoff{Delay: 5 * time.Second},
		ServerErrorBackoff:  &ConstantBackoff{Delay: 2 * time.Second},
		DefaultBackoff:      &ConstantBackoff{Delay: 3 * time.Second},
	}

	assert.Equal(t, time.Second, etb.DelayFor(errs.New(errs.ErrorTypeNetwork, 0, "x"), 1))
	assert.Equal(t, 2*time.Second, etb.DelayFor(errs.New(errs.ErrorTypeServerError, 502, "x"), 1))
	assert.Equal(t, 3*time.Second, etb.DelayFor(errors.New("plain"), 1))

	limited := errs.New(errs.ErrorTypeRateLimit, 429, "slow")
	assert.Equal(t, 5*time.Second, etb.DelayFor(limited, 1))
	limited.RetryAfter = time.Minute
	assert.Equal(t, time.Minute, etb.DelayFor(limited, 1))
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), noDelayConfig(3), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, 0, "temporary")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), noDelayConfig(2), func(ctx context.Context) error {
		attempts++
		return errs.New(errs.ErrorTypeServerError, 500, "down")
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, err.Error(), "max retry attempts (2) exceeded")
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authErr := errs.New(errs.ErrorTypeAuth, 401, "login required")
	err := Do(context.Background(), noDelayConfig(5), func(ctx context.Context) error {
		attempts++
		return authErr
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, authErr, err)
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := noDelayConfig(5)
	cfg.Delay = func(error, int) time.Duration { return time.Hour }
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	err := Do(ctx, cfg, func(ctx context.Context) error {
		return errs.New(errs.ErrorTypeNetwork, 0, "flaky")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWait(t *testing.T) {
	require.NoError(t, Wait(context.Background(), 0))
	require.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Wait(ctx, 0), context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), noDelayConfig(3), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errs.New(errs.ErrorTypeRateLimit, 429, "slow down")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, attempts)
}
