// Package testutil provides testing utilities for the Graph client and
// the layers built on top of it.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock Graph endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockGraph is a configurable mock Graph API server for testing.
type MockGraph struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockGraph creates a new mock Graph server.
func NewMockGraph() *MockGraph {
	mock := &MockGraph{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGraph) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGraph) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockGraph) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGraph) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockGraph) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCollection serves a paginated collection at path. Each element of
// pages is the JSON content of one "value" array (without brackets is
// not supported; pass full arrays like `[{"id":"1"},{"id":"2"}]`).
// Every page except the last carries an @odata.nextLink pointing back
// at the same path with a $skiptoken.
func (m *MockGraph) SetCollection(path string, pages ...string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 0
		if token := r.URL.Query().Get("$skiptoken"); token != "" {
			page, _ = strconv.Atoi(token)
		}
		if page >= len(pages) {
			page = len(pages) - 1
		}

		body := fmt.Sprintf(`{"value": %s`, pages[page])
		if page < len(pages)-1 {
			body += fmt.Sprintf(`, "@odata.nextLink": "%s%s?$skiptoken=%d"`, m.URL(), path, page+1)
		}
		body += "}"

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockGraph) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// defaultHandler answers unconfigured paths with an empty collection.
func (m *MockGraph) defaultHandler(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"value": []}`))
}

// NewCollectionResponse creates a 200 OK single-page collection.
func NewCollectionResponse(valueArray string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"value": %s}`, valueArray),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewObjectResponse creates a 200 OK single-object response.
func NewObjectResponse(object string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       object,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewThrottledResponse creates a 429 Too Many Requests response with a
// Retry-After header.
func NewThrottledResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": {"code": "TooManyRequests", "message": "Rate limit exceeded"}}`,
		Headers: map[string]string{
			"Retry-After":  strconv.Itoa(retryAfterSeconds),
			"Content-Type": "application/json",
		},
	}
}

// NewErrorResponse creates a Graph-shaped error response.
func NewErrorResponse(status int, code, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"error": {"code": %q, "message": %q}}`, code, message),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// Messages builds a JSON array of simple user messages, one per body
// string, with ascending ids and timestamps.
func Messages(start time.Time, bodies ...string) string {
	items := make([]string, 0, len(bodies))
	for i, body := range bodies {
		items = append(items, fmt.Sprintf(
			`{"id": "msg-%d", "messageType": "message", "createdDateTime": %q, "lastModifiedDateTime": %q, "from": {"user": {"id": "user-1", "displayName": "Test User"}}, "body": {"contentType": "html", "content": %q}}`,
			i+1,
			start.Add(time.Duration(i)*time.Minute).Format(time.RFC3339),
			start.Add(time.Duration(i)*time.Minute).Format(time.RFC3339),
			"<p>"+body+"</p>",
		))
	}
	return "[" + strings.Join(items, ", ") + "]"
}
