package auth

import (
	"context"
	"errors"
	"testing"
)

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()

	token, err := StaticProvider{Token: "abc123"}.BearerToken(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "abc123" {
		t.Errorf("BearerToken() = %q, want %q", token, "abc123")
	}

	_, err = StaticProvider{}.BearerToken(ctx)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("empty provider error = %v, want ErrNotAuthenticated", err)
	}
}

func TestEnvProvider(t *testing.T) {
	ctx := context.Background()

	t.Setenv("TEST_GRAPH_TOKEN", "env-token")
	token, err := EnvProvider{Var: "TEST_GRAPH_TOKEN"}.BearerToken(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "env-token" {
		t.Errorf("BearerToken() = %q, want %q", token, "env-token")
	}

	t.Setenv("TEST_GRAPH_TOKEN", "")
	_, err = EnvProvider{Var: "TEST_GRAPH_TOKEN"}.BearerToken(ctx)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("unset var error = %v, want ErrNotAuthenticated", err)
	}
}

func TestProviderFunc(t *testing.T) {
	called := false
	p := ProviderFunc(func(ctx context.Context) (string, error) {
		called = true
		return "fn-token", nil
	})

	token, err := p.BearerToken(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || token != "fn-token" {
		t.Errorf("BearerToken() = %q (called=%v), want fn-token", token, called)
	}
}
