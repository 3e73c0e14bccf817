package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for throttle tracking.
var (
	graphThrottleHoldSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graph_throttle_hold_seconds",
		Help: "Remaining seconds of the current shared throttle hold",
	})

	graphThrottleUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_throttle_updates_total",
		Help: "Total throttle holds recorded by HTTP status",
	}, []string{"status"})

	graphThrottleWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_throttle_waits_total",
		Help: "Total requests delayed by the shared throttle hold",
	})
)

// Tracker records and queries the shared throttle hold.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new throttle tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current throttle state from Redis.
// Returns a cleared state when none is recorded.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	data, err := t.redis.Get(ctx, RedisKeyState).Bytes()
	if err == redis.Nil {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get throttle state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse throttle state: %w", err)
	}
	return &state, nil
}

// UpdateFromHeaders records a hold from a throttled response. Responses
// without a usable Retry-After header are ignored; the client's own
// exponential backoff covers those.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, status int, headers http.Header) error {
	if status != http.StatusTooManyRequests &&
		status != http.StatusServiceUnavailable &&
		status != http.StatusGatewayTimeout {
		return nil
	}

	raw := headers.Get("Retry-After")
	if raw == "" {
		return nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return nil
	}

	hold := time.Duration(seconds) * time.Second
	if hold > MaxHold {
		hold = MaxHold
	}

	now := time.Now()
	state := &State{
		HoldUntil:  now.Add(hold),
		LastStatus: status,
		LastUpdate: now,
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal throttle state: %w", err)
	}

	// The key expires with the hold, so cleared state needs no sweeper.
	if err := t.redis.Set(ctx, RedisKeyState, data, hold).Err(); err != nil {
		return fmt.Errorf("store throttle state: %w", err)
	}

	graphThrottleUpdatesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	graphThrottleHoldSeconds.Set(hold.Seconds())

	t.logger.Warn().
		Int("status", status).
		Dur("hold", hold).
		Time("hold_until", state.HoldUntil).
		Msg("Recorded shared throttle hold")

	return nil
}

// Delay returns how long the caller should wait before issuing a
// request. Zero means no hold is active.
func (t *Tracker) Delay(ctx context.Context) (time.Duration, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return 0, err
	}

	remaining := state.Remaining()
	if remaining > 0 {
		graphThrottleWaitsTotal.Inc()
		t.logger.Debug().
			Dur("remaining", remaining).
			Int("status", state.LastStatus).
			Msg("Shared throttle hold active")
	}
	graphThrottleHoldSeconds.Set(remaining.Seconds())

	return remaining, nil
}
