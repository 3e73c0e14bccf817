package graph

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetriesExhausted is returned when all retry attempts are exhausted.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrPermissionDenied is returned for HTTP 403 responses. Never retried.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned for HTTP 404 responses and unresolvable
	// identifiers. Never retried.
	ErrNotFound = errors.New("not found")

	// ErrContextCancelled is returned when the context is cancelled during
	// a backoff wait.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrAmbiguousUser is returned when a user identifier matches more
	// than one directory entry and no exact match disambiguates it.
	ErrAmbiguousUser = errors.New("ambiguous user identifier")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassPermission represents 403 responses.
	ErrorClassPermission ErrorClass = "permission"

	// ErrorClassNotFound represents 404 responses.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassThrottled represents 429/503/504 responses.
	ErrorClassThrottled ErrorClass = "throttled"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents other 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents other 5xx responses.
	ErrorClassServer ErrorClass = "server"
)

// APIError represents a Graph request failure with additional context.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph %s error (status %d): %s", e.Class, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("graph %s error (status %d): %v", e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("graph %s error (status %d)", e.Class, e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus categorizes an HTTP status code.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 403:
		return ErrorClassPermission
	case status == 404:
		return ErrorClassNotFound
	case status == 429 || status == 503 || status == 504:
		return ErrorClassThrottled
	case status >= 400 && status < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}

// shouldRetry determines whether a failure class is retried.
// Only throttling responses and network errors are transient; everything
// else is terminal at the point of detection.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassThrottled, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
