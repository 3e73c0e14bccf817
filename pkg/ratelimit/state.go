// Package ratelimit shares server throttling hints across client
// instances. When any request receives a 429/503/504 with a Retry-After
// header, the hold is recorded in Redis so that every concurrently
// running job backs off together instead of each one burning retry
// attempts against the same throttled tenant.
package ratelimit

import (
	"time"
)

// Redis keys for throttle state storage.
const (
	RedisKeyState = "graph:throttle:state"
)

// MaxHold caps how long a recorded hold can gate requests, guarding
// against a corrupt or absurd Retry-After value poisoning the cluster.
const MaxHold = 5 * time.Minute

// State is the shared throttle state.
type State struct {
	// HoldUntil is the instant requests may resume. Derived from the
	// Retry-After header of the most recent throttled response.
	HoldUntil time.Time `json:"hold_until"`

	// LastStatus is the HTTP status that produced the hold (429, 503, 504).
	LastStatus int `json:"last_status"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`
}

// Active returns true while the hold gates requests.
func (s *State) Active() bool {
	return time.Now().Before(s.HoldUntil)
}

// Remaining returns the time left on the hold, clamped to [0, MaxHold].
func (s *State) Remaining() time.Duration {
	d := time.Until(s.HoldUntil)
	if d < 0 {
		return 0
	}
	if d > MaxHold {
		return MaxHold
	}
	return d
}

// IsStale returns true if the state is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}
