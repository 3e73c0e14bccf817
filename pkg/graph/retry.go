package graph

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	graphRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	graphRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graph_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	graphRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// BackoffBase is the base of the exponential backoff in seconds:
	// attempt n waits BackoffBase^n seconds (before server hints and jitter).
	BackoffBase float64

	// MaxBackoff caps a single backoff wait.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BackoffBase: 2,
		MaxBackoff:  5 * time.Minute,
	}
}

// throttleDelay computes the wait before retrying a throttled request.
// The server-supplied Retry-After always wins over the exponential term,
// and a sub-second random jitter is added to spread concurrent retries.
func (c RetryConfig) throttleDelay(attempt int, retryAfter time.Duration) time.Duration {
	backoff := c.exponentialDelay(attempt)
	if retryAfter > backoff {
		backoff = retryAfter
	}
	jitter := time.Duration(rand.Float64() * float64(time.Second))
	return backoff + jitter
}

// exponentialDelay computes the backoff for a network-level retry.
func (c RetryConfig) exponentialDelay(attempt int) time.Duration {
	d := time.Duration(math.Pow(c.BackoffBase, float64(attempt)) * float64(time.Second))
	if d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	return d
}

// sleepContext waits for the given duration or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
