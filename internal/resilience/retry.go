package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryConfig shapes the retry loop for calls to flaky upstreams such as
// vendor FTP drops and retail pricing endpoints.
type RetryConfig struct {
	// MaxAttempts counts every try including the first, so 1 disables
	// retries. Zero or negative means the default of 3.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry. Default 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the growth of the delay. Default 30s.
	MaxBackoff time.Duration

	// Multiplier scales the delay after each failed attempt. Default 2.0.
	Multiplier float64

	// JitterFraction spreads each delay by up to this fraction in either
	// direction, keeping parallel fetchers from hammering an upstream in
	// lockstep. Default 0.25.
	JitterFraction float64

	// ShouldRetry decides whether an error is worth another attempt.
	// Nil means IsTransient.
	ShouldRetry func(err error) bool

	// OnRetry fires before each backoff sleep with the 1-based number of
	// the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the retry settings used for catalog and
// pricing fetches.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

// Do runs fn until it succeeds, the attempts run out, the error is not
// retryable, or ctx is cancelled. The last error wins.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for calls that produce a value. On failure the zero value is
// returned alongside the last error.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	retryable := cfg.ShouldRetry
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		switch {
		case ctx.Err() != nil:
			return zero, lastErr
		case !retryable(err):
			return zero, lastErr
		case attempt == cfg.MaxAttempts-1:
			return zero, lastErr
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}
		if sleep(ctx, backoffFor(attempt, cfg)) != nil {
			return zero, lastErr
		}
	}
	return zero, lastErr
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoffFor computes the delay after the given 0-based attempt:
// exponential growth from InitialBackoff, capped at MaxBackoff, then
// spread by the jitter band.
func backoffFor(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	d = math.Min(d, float64(cfg.MaxBackoff))
	if cfg.JitterFraction > 0 {
		band := d * cfg.JitterFraction
		d += (rand.Float64()*2 - 1) * band
	}
	return time.Duration(math.Max(d, 0))
}

// RetryLogger returns an OnRetry hook that logs every retry against the
// named source and operation.
func RetryLogger(source, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("source", source),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
