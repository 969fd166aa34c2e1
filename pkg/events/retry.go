package events

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// ErrRetryExhausted is returned when every flush attempt failed.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context ends during backoff.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

var (
	flushRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filter_flush_retries_total",
		Help: "Total number of flush retry attempts after a product event",
	})

	flushRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filter_flush_retry_backoff_seconds",
		Help:    "Backoff duration before a flush retry",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// RetryConfig holds the configuration for flush retries.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first one).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// nextBackoff returns the backoff following current, capped at MaxBackoff.
func (c RetryConfig) nextBackoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * c.BackoffMultiplier)
	if next > c.MaxBackoff {
		return c.MaxBackoff
	}
	return next
}

// retryWithBackoff runs fn until it succeeds or cfg.MaxAttempts is reached.
// Backoff grows exponentially with ±20% jitter and respects ctx cancellation.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)
	backoff := cfg.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("Flush succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if attempt >= attempts {
			break
		}

		flushRetriesTotal.Inc()
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		flushRetryBackoffSeconds.Observe(jitter.Seconds())

		logger.Debug().Err(err).Int("attempt", attempt).Dur("backoff", jitter).Msg("Retrying flush after backoff")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = cfg.nextBackoff(backoff)
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
