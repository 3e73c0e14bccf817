// Package graph provides a resilient client for paginated Microsoft
// Graph collections with retry, rate-limit handling, and typed errors.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xprtyg33k/teams-chat-extract/pkg/auth"
	"github.com/xprtyg33k/teams-chat-extract/pkg/cache"
	"github.com/xprtyg33k/teams-chat-extract/pkg/ratelimit"
)

// DefaultBaseURL is the Graph API v1.0 root.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Prometheus metrics for Graph client operations.
var (
	graphRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_requests_total",
		Help: "Total Graph requests by endpoint and status",
	}, []string{"endpoint", "status"})

	graphRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "graph_request_duration_seconds",
		Help:    "Graph request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	graphErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_errors_total",
		Help: "Total Graph errors by class",
	}, []string{"class"})
)

// Client is the Graph API client.
type Client struct {
	httpClient *http.Client
	throttle   *ratelimit.Tracker
	cache      *cache.Manager
	config     Config
	retry      RetryConfig
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the Graph API (default DefaultBaseURL).
	BaseURL string

	// Tokens supplies the bearer token for every request (REQUIRED).
	Tokens auth.TokenProvider

	// MaxRetries is the attempt cap for transient failures.
	MaxRetries int

	// BackoffBase is the exponential backoff base in seconds.
	BackoffBase float64

	// Timeout per HTTP request.
	Timeout time.Duration

	// Redis enables the shared throttle state and the lookup cache
	// when set. The client works without it; state is then per-process.
	Redis *redis.Client

	// LookupCacheTTL bounds how long user lookups are cached.
	LookupCacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(tokens auth.TokenProvider) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Tokens:         tokens,
		MaxRetries:     5,
		BackoffBase:    2,
		Timeout:        30 * time.Second,
		LookupCacheTTL: 10 * time.Minute,
	}
}

// New creates a new Graph client.
func New(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token provider is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.LookupCacheTTL <= 0 {
		cfg.LookupCacheTTL = 10 * time.Minute
	}

	logger := log.With().Str("component", "graph-client").Logger()

	var throttle *ratelimit.Tracker
	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		throttle = ratelimit.NewTracker(cfg.Redis, logger)
		cacheManager = cache.NewManager(cfg.Redis)
	}

	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries
	retry.BackoffBase = cfg.BackoffBase

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		throttle: throttle,
		cache:    cacheManager,
		config:   cfg,
		retry:    retry,
		logger:   logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// FetchPage issues one GET for a collection page. Transient failures
// (429/503/504 and network errors) are retried with backoff inside this
// call; 403 and 404 abort immediately with typed errors.
func (c *Client) FetchPage(ctx context.Context, endpoint string, query url.Values) (*Page, error) {
	raw, err := c.GetJSON(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	var envelope pageEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode collection response: %w", err)
	}
	return &Page{Items: envelope.Value, NextLink: envelope.NextLink}, nil
}

// GetObject issues one GET for a single resource and unmarshals the
// response into v, with the same retry behavior as FetchPage.
func (c *Client) GetObject(ctx context.Context, endpoint string, query url.Values, v any) error {
	raw, err := c.GetJSON(ctx, endpoint, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode resource response: %w", err)
	}
	return nil
}

// GetJSON issues one GET and returns the raw response body after the
// full retry/backoff treatment.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	fullURL, err := c.resolveURL(endpoint, query)
	if err != nil {
		return nil, err
	}
	endpointLabel := metricEndpoint(endpoint)

	startTime := time.Now()
	defer func() {
		graphRequestDuration.WithLabelValues(endpointLabel).Observe(time.Since(startTime).Seconds())
	}()

	var lastErr error
	var lastClass ErrorClass

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		// Honor the shared throttle hold before spending a request.
		if err := c.waitForThrottle(ctx); err != nil {
			return nil, err
		}

		resp, reqErr := c.get(ctx, fullURL)
		if reqErr != nil {
			lastErr = reqErr
			lastClass = ErrorClassNetwork
			graphErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			graphRequestsTotal.WithLabelValues(endpointLabel, "network_error").Inc()

			if attempt == c.retry.MaxAttempts-1 {
				break
			}
			delay := c.retry.exponentialDelay(attempt)
			c.logRetry(ErrorClassNetwork, attempt, delay, reqErr)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		graphRequestsTotal.WithLabelValues(endpointLabel, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusOK {
			body, err := readBody(resp)
			if err != nil {
				return nil, err
			}
			if attempt > 0 {
				c.logger.Info().
					Str("endpoint", endpointLabel).
					Int("attempt", attempt+1).
					Msg("Request succeeded after retry")
			}
			return body, nil
		}

		class := classifyStatus(resp.StatusCode)
		graphErrorsTotal.WithLabelValues(string(class)).Inc()

		if !shouldRetry(class) {
			return nil, terminalError(resp, class)
		}

		// Throttled: record the server hint and back off.
		retryAfter := parseRetryAfter(resp.Header)
		drainBody(resp)

		if c.throttle != nil {
			if err := c.throttle.UpdateFromHeaders(ctx, resp.StatusCode, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update shared throttle state")
			}
		}

		lastErr = &APIError{StatusCode: resp.StatusCode, Class: class, Message: resp.Status}
		lastClass = class

		if attempt == c.retry.MaxAttempts-1 {
			break
		}
		delay := c.retry.throttleDelay(attempt, retryAfter)
		c.logRetry(class, attempt, delay, lastErr)
		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	graphRetryExhaustedTotal.WithLabelValues(string(lastClass)).Inc()
	c.logger.Warn().
		Str("endpoint", endpointLabel).
		Str("error_class", string(lastClass)).
		Int("max_attempts", c.retry.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, c.retry.MaxAttempts, lastErr)
}

// get issues a single GET with the bearer token attached.
func (c *Client) get(ctx context.Context, fullURL string) (*http.Response, error) {
	token, err := c.config.Tokens.BearerToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire bearer token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// waitForThrottle sleeps out any cluster-wide Retry-After hold.
func (c *Client) waitForThrottle(ctx context.Context) error {
	if c.throttle == nil {
		return nil
	}
	hold, err := c.throttle.Delay(ctx)
	if err != nil {
		// Shared state unavailable; proceed with local backoff only.
		c.logger.Warn().Err(err).Msg("Shared throttle state unavailable")
		return nil
	}
	if hold <= 0 {
		return nil
	}
	c.logger.Debug().Dur("hold", hold).Msg("Waiting out shared throttle hold")
	return sleepContext(ctx, hold)
}

func (c *Client) logRetry(class ErrorClass, attempt int, delay time.Duration, cause error) {
	graphRetriesTotal.WithLabelValues(string(class)).Inc()
	graphRetryBackoffSeconds.WithLabelValues(string(class)).Observe(delay.Seconds())
	c.logger.Warn().
		Err(cause).
		Str("error_class", string(class)).
		Int("attempt", attempt+1).
		Int("max_attempts", c.retry.MaxAttempts).
		Dur("backoff", delay).
		Msg("Retrying request after backoff")
}

// resolveURL builds the request URL. Continuation links arrive as full
// URLs and are used verbatim; relative endpoints are joined to BaseURL
// with the caller's query parameters.
func (c *Client) resolveURL(endpoint string, query url.Values) (string, error) {
	full := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		full = c.config.BaseURL + endpoint
	}
	u, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// readBody reads and closes the body of a 200 response.
func readBody(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// terminalError builds the typed error for a non-retryable status,
// carrying the server's error message when one is present.
func terminalError(resp *http.Response, class ErrorClass) error {
	defer resp.Body.Close()

	msg := resp.Status
	var body graphErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		msg = body.Error.Message
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Class: class, Message: msg}
	switch class {
	case ErrorClassPermission:
		apiErr.Err = ErrPermissionDenied
	case ErrorClassNotFound:
		apiErr.Err = ErrNotFound
	}
	return apiErr
}

// parseRetryAfter reads the Retry-After header as a second count.
// Returns 0 when absent or unparsable.
func parseRetryAfter(headers http.Header) time.Duration {
	raw := headers.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func drainBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}

// metricEndpoint strips continuation-link hosts and opaque ids so the
// endpoint label stays low-cardinality.
func metricEndpoint(endpoint string) string {
	if i := strings.Index(endpoint, "?"); i >= 0 {
		endpoint = endpoint[:i]
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		if u, err := url.Parse(endpoint); err == nil {
			endpoint = u.Path
		}
	}
	parts := strings.Split(endpoint, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, "19:") || strings.HasPrefix(p, "19%3a") || strings.HasPrefix(p, "19%3A") {
			parts[i] = "{chat-id}"
		}
	}
	return strings.Join(parts, "/")
}
