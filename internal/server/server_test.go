package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xprtyg33k/teams-chat-extract/internal/testutil"
	"github.com/xprtyg33k/teams-chat-extract/pkg/auth"
	"github.com/xprtyg33k/teams-chat-extract/pkg/graph"
	"github.com/xprtyg33k/teams-chat-extract/pkg/jobs"
)

func newTestServer(t *testing.T, mock *testutil.MockGraph, tokens auth.TokenProvider) *httptest.Server {
	t.Helper()

	cfg := graph.DefaultConfig(tokens)
	cfg.BaseURL = mock.URL()
	client, err := graph.New(cfg)
	require.NoError(t, err)

	registry, err := jobs.NewRegistry(jobs.Config{
		Client:      client,
		Tokens:      tokens,
		ArtifactDir: t.TempDir(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(New(registry, tokens).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func waitStatus(t *testing.T, baseURL, runID string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/api/runs/" + runID + "/status")
		require.NoError(t, err)

		var status map[string]any
		decodeBody(t, resp, &status)
		if s := status["status"].(string); s == "completed" || s == "failed" {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not finish", runID)
	return nil
}

func TestHealthz(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	ts := newTestServer(t, mock, auth.StaticProvider{Token: "test-token"})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthStatus(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()

	ts := newTestServer(t, mock, auth.StaticProvider{Token: "test-token"})
	resp, err := http.Get(ts.URL + "/api/auth/status")
	require.NoError(t, err)
	var status map[string]bool
	decodeBody(t, resp, &status)
	assert.True(t, status["authenticated"])

	anon := newTestServer(t, mock, auth.StaticProvider{})
	resp, err = http.Get(anon.URL + "/api/auth/status")
	require.NoError(t, err)
	decodeBody(t, resp, &status)
	assert.False(t, status["authenticated"])
}

func TestStartRunUnauthenticated(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	ts := newTestServer(t, mock, auth.StaticProvider{})

	resp := postJSON(t, ts.URL+"/api/runs/export-chat",
		`{"chat_id": "19:abc@thread.v2", "since": "2025-03-01"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStartRunValidationError(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	ts := newTestServer(t, mock, auth.StaticProvider{Token: "test-token"})

	tests := []struct {
		name string
		body string
	}{
		{"missing chat id", `{"since": "2025-03-01"}`},
		{"bad date", `{"chat_id": "19:abc@thread.v2", "since": "not-a-date"}`},
		{"bad format", `{"chat_id": "19:abc@thread.v2", "since": "2025-03-01", "format": "pdf"}`},
		{"malformed json", `{"chat_id": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/runs/export-chat", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	mock.SetResponse("/me/chats", testutil.NewCollectionResponse(`[
		{"id": "19:dm@thread.v2", "chatType": "oneOnOne", "members": [
			{"userId": "u1", "displayName": "Alice Ray", "email": "alice@example.com"}
		]}
	]`))
	ts := newTestServer(t, mock, auth.StaticProvider{Token: "test-token"})

	resp := postJSON(t, ts.URL+"/api/runs/list-chats", `{"chat_type": "all"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var started runResponse
	decodeBody(t, resp, &started)
	require.NotEmpty(t, started.RunID)
	assert.Equal(t, jobs.KindListChats, started.Kind)

	status := waitStatus(t, ts.URL, started.RunID)
	require.Equal(t, "completed", status["status"], "run failed: %v", status["error"])
	assert.Equal(t, float64(100), status["progress"])

	// Results carry the bounded grid view.
	resultsResp, err := http.Get(ts.URL + "/api/runs/" + started.RunID + "/results")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resultsResp.StatusCode)

	var results map[string]any
	decodeBody(t, resultsResp, &results)
	assert.Equal(t, started.RunID, results["run_id"])
	assert.Equal(t, float64(1), results["grid_total"])
	assert.Len(t, results["grid_data"], 1)

	// Download streams the artifact.
	downloadResp, err := http.Get(ts.URL + "/api/runs/" + started.RunID + "/download")
	require.NoError(t, err)
	defer downloadResp.Body.Close()
	assert.Equal(t, http.StatusOK, downloadResp.StatusCode)
	assert.Contains(t, downloadResp.Header.Get("Content-Disposition"), started.RunID+".json")

	// History includes the run.
	historyResp, err := http.Get(ts.URL + "/api/runs/history")
	require.NoError(t, err)
	var history map[string]any
	decodeBody(t, historyResp, &history)
	assert.Equal(t, float64(1), history["total"])
}

func TestUnknownRun(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	ts := newTestServer(t, mock, auth.StaticProvider{Token: "test-token"})

	for _, path := range []string{"/status", "/results", "/download"} {
		resp, err := http.Get(ts.URL + "/api/runs/no-such-run" + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "path %s", path)
	}
}
