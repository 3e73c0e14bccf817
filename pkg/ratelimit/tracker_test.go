package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestGetState_Empty(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())

	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error: %v", err)
	}
	if state.Active() {
		t.Error("empty state should not be active")
	}
	if got := state.Remaining(); got != 0 {
		t.Errorf("Remaining() = %v, want 0", got)
	}
}

func TestUpdateFromHeaders(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		wantHold   bool
	}{
		{"throttled_429", http.StatusTooManyRequests, "30", true},
		{"unavailable_503", http.StatusServiceUnavailable, "10", true},
		{"gateway_timeout_504", http.StatusGatewayTimeout, "5", true},
		{"success_ignored", http.StatusOK, "30", false},
		{"forbidden_ignored", http.StatusForbidden, "30", false},
		{"missing_header", http.StatusTooManyRequests, "", false},
		{"unparsable_header", http.StatusTooManyRequests, "soon", false},
		{"zero_seconds", http.StatusTooManyRequests, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestRedis(t)
			tracker := NewTracker(client, zerolog.Nop())
			ctx := context.Background()

			headers := http.Header{}
			if tt.retryAfter != "" {
				headers.Set("Retry-After", tt.retryAfter)
			}

			if err := tracker.UpdateFromHeaders(ctx, tt.status, headers); err != nil {
				t.Fatalf("UpdateFromHeaders() error: %v", err)
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState() error: %v", err)
			}
			if state.Active() != tt.wantHold {
				t.Errorf("Active() = %v, want %v", state.Active(), tt.wantHold)
			}
			if tt.wantHold && state.LastStatus != tt.status {
				t.Errorf("LastStatus = %d, want %d", state.LastStatus, tt.status)
			}
		})
	}
}

func TestUpdateFromHeaders_CapsAbsurdRetryAfter(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())
	ctx := context.Background()

	headers := http.Header{}
	headers.Set("Retry-After", "86400") // a day

	if err := tracker.UpdateFromHeaders(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error: %v", err)
	}

	delay, err := tracker.Delay(ctx)
	if err != nil {
		t.Fatalf("Delay() error: %v", err)
	}
	if delay > MaxHold {
		t.Errorf("Delay() = %v, want <= MaxHold (%v)", delay, MaxHold)
	}
}

func TestDelay(t *testing.T) {
	client := setupTestRedis(t)
	tracker := NewTracker(client, zerolog.Nop())
	ctx := context.Background()

	// No hold recorded.
	delay, err := tracker.Delay(ctx)
	if err != nil {
		t.Fatalf("Delay() error: %v", err)
	}
	if delay != 0 {
		t.Errorf("Delay() = %v, want 0", delay)
	}

	headers := http.Header{}
	headers.Set("Retry-After", "20")
	if err := tracker.UpdateFromHeaders(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error: %v", err)
	}

	delay, err = tracker.Delay(ctx)
	if err != nil {
		t.Fatalf("Delay() error: %v", err)
	}
	if delay <= 15*time.Second || delay > 20*time.Second {
		t.Errorf("Delay() = %v, want ~20s", delay)
	}
}
