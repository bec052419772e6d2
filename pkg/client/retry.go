package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/etsy-terms/pkg/metrics"
)

// Prometheus metrics for retry operations.
var (
	etsyRetriesTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "etsy_retries_total",
		Help: "Total number of retry attempts by operation",
	}, []string{"operation"})

	etsyRetryBackoffSeconds = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etsy_retry_backoff_seconds",
		Help:    "Backoff duration before retries by operation",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"operation"})

	etsyRetryExhaustedTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "etsy_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by operation",
	}, []string{"operation"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt. It doubles on every retry.
	InitialBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 1 * time.Second,
	}
}

// MaxAttemptsLimit bounds MaxAttempts. With a 1s base the last wait is already years.
const MaxAttemptsLimit = 30

// maxBackoff is the largest representable wait.
const maxBackoff = time.Duration(math.MaxInt64)

// Backoff returns the wait after the given failed attempt: InitialBackoff * 2^(attempt-1),
// saturating at the largest time.Duration instead of overflowing.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if c.InitialBackoff <= 0 {
		return 0
	}
	shift := attempt - 1
	if shift >= 63 || c.InitialBackoff > maxBackoff>>shift {
		return maxBackoff
	}
	return c.InitialBackoff << shift
}

// Operation identifies a retried call in logs and errors.
type Operation struct {
	Name string
	Args []any
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier retries operations that fail with ErrRateLimitExceeded.
// It holds no per-call state and is safe for concurrent use.
type Retrier struct {
	config RetryConfig
	sleep  SleepFunc
	logger zerolog.Logger
}

// NewRetrier creates a retrier with the given configuration.
func NewRetrier(config RetryConfig, logger zerolog.Logger) *Retrier {
	return &Retrier{
		config: config,
		sleep:  sleepContext,
		logger: logger,
	}
}

// Config returns the retry configuration.
func (r *Retrier) Config() RetryConfig {
	return r.config
}

// sleepContext waits with context cancellation support.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn until it succeeds, fails with an error other than
// ErrRateLimitExceeded, or MaxAttempts is reached. Exhaustion returns a
// *RetriesExhaustedError wrapping the last rate limit error.
func Retry[T any](ctx context.Context, r *Retrier, op Operation, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.Info().
					Str("operation", op.Name).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return result, nil
		}

		lastErr = err

		if !errors.Is(err, ErrRateLimitExceeded) {
			return zero, err
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		wait := r.config.Backoff(attempt)
		etsyRetriesTotal.WithLabelValues(op.Name).Inc()
		etsyRetryBackoffSeconds.WithLabelValues(op.Name).Observe(wait.Seconds())

		r.logger.Info().
			Str("operation", op.Name).
			Interface("args", op.Args).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msgf("Backing off %.1f seconds after %d tries calling %s", wait.Seconds(), attempt, op.Name)

		if err := r.sleep(ctx, wait); err != nil {
			r.logger.Warn().
				Str("operation", op.Name).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return zero, fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}
	}

	etsyRetryExhaustedTotal.WithLabelValues(op.Name).Inc()
	r.logger.Warn().
		Str("operation", op.Name).
		Interface("args", op.Args).
		Int("max_attempts", r.config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return zero, &RetriesExhaustedError{
		Operation: op.Name,
		Attempts:  r.config.MaxAttempts,
		Err:       lastErr,
	}
}
