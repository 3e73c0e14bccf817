// Package metrics provides the centralized Prometheus registry
// reference for the chat-extract service. All metrics are defined in
// their respective packages (graph, cache, ratelimit, jobs) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their
// respective packages and served at /metrics by exportd.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/graph):
//   - graph_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - graph_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - graph_errors_total{class} (Counter): Errors by class (permission, not_found, throttled, network, client, server)
//
// Retry Metrics (pkg/graph):
//   - graph_retries_total{error_class} (Counter): Retry attempts by error class
//   - graph_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - graph_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Throttle Metrics (pkg/ratelimit):
//   - graph_throttle_hold_seconds (Gauge): Length of the most recent shared Retry-After hold
//   - graph_throttle_updates_total{status} (Counter): Holds recorded from throttling responses
//   - graph_throttle_waits_total (Counter): Requests that waited out a shared hold
//
// Lookup Cache Metrics (pkg/cache):
//   - graph_lookup_cache_hits_total (Counter): Lookup cache hits
//   - graph_lookup_cache_misses_total (Counter): Lookup cache misses
//   - graph_lookup_cache_written_bytes_total (Counter): Bytes written to the lookup cache
//   - graph_lookup_cache_errors_total{operation} (Counter): Cache operation errors
//
// Run Metrics (pkg/jobs):
//   - jobs_started_total{kind} (Counter): Background runs started by kind
//   - jobs_completed_total{kind} (Counter): Runs finished successfully by kind
//   - jobs_failed_total{kind} (Counter): Runs finished with an error by kind
//   - job_duration_seconds{kind} (Histogram): Run duration from submission to terminal state
//
// Example Prometheus Queries:
//
//   # Lookup cache hit rate
//   rate(graph_lookup_cache_hits_total[5m]) /
//   (rate(graph_lookup_cache_hits_total[5m]) + rate(graph_lookup_cache_misses_total[5m]))
//
//   # Run failure rate by kind
//   rate(jobs_failed_total[5m]) / rate(jobs_started_total[5m])
//
//   # P95 Graph request latency
//   histogram_quantile(0.95, rate(graph_request_duration_seconds_bucket[5m]))
//
//   # Time spent throttled
//   graph_throttle_hold_seconds > 0
