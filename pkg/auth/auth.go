// Package auth defines the bearer-token boundary between the export
// pipelines and whatever login flow supplies credentials. Token
// acquisition itself (device-code flow, refresh, caching) lives outside
// this module; pipelines only ever see a TokenProvider.
package auth

import (
	"context"
	"errors"
	"os"
)

// ErrNotAuthenticated is returned when no valid session exists.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenProvider supplies a bearer token for outgoing Graph requests.
type TokenProvider interface {
	// BearerToken returns a currently valid access token or
	// ErrNotAuthenticated when no session exists.
	BearerToken(ctx context.Context) (string, error)
}

// StaticProvider returns a fixed token. Used in tests and for
// pre-acquired tokens.
type StaticProvider struct {
	Token string
}

// BearerToken implements TokenProvider.
func (p StaticProvider) BearerToken(ctx context.Context) (string, error) {
	if p.Token == "" {
		return "", ErrNotAuthenticated
	}
	return p.Token, nil
}

// EnvProvider reads the token from an environment variable on every
// call, so an external login helper can rotate it while the server runs.
type EnvProvider struct {
	// Var is the environment variable name. Defaults to
	// TEAMS_ACCESS_TOKEN when empty.
	Var string
}

// BearerToken implements TokenProvider.
func (p EnvProvider) BearerToken(ctx context.Context) (string, error) {
	name := p.Var
	if name == "" {
		name = "TEAMS_ACCESS_TOKEN"
	}
	token := os.Getenv(name)
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// ProviderFunc adapts a function to the TokenProvider interface.
type ProviderFunc func(ctx context.Context) (string, error)

// BearerToken implements TokenProvider.
func (f ProviderFunc) BearerToken(ctx context.Context) (string, error) {
	return f(ctx)
}
