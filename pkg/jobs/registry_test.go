package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xprtyg33k/teams-chat-extract/internal/testutil"
	"github.com/xprtyg33k/teams-chat-extract/pkg/auth"
	"github.com/xprtyg33k/teams-chat-extract/pkg/graph"
)

func newTestRegistry(t *testing.T, mock *testutil.MockGraph, tokens auth.TokenProvider) *Registry {
	t.Helper()

	cfg := graph.DefaultConfig(tokens)
	cfg.BaseURL = mock.URL()
	client, err := graph.New(cfg)
	require.NoError(t, err)

	reg, err := NewRegistry(Config{
		Client:      client,
		Tokens:      tokens,
		ArtifactDir: t.TempDir(),
	})
	require.NoError(t, err)
	return reg
}

func waitForTerminal(t *testing.T, reg *Registry, token string) Record {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := reg.Status(token)
		require.True(t, ok, "run %s disappeared", token)
		if rec.Status.Terminal() {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach a terminal state", token)
	return Record{}
}

func TestNewRegistryValidation(t *testing.T) {
	_, err := NewRegistry(Config{})
	assert.Error(t, err)

	_, err = NewRegistry(Config{Tokens: auth.StaticProvider{Token: "x"}})
	assert.Error(t, err)
}

func TestStartExportChatValidation(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	reg := newTestRegistry(t, mock, auth.StaticProvider{Token: "test-token"})

	tests := []struct {
		name   string
		params ExportChatParams
	}{
		{
			name:   "missing chat id",
			params: ExportChatParams{Since: "2025-03-01"},
		},
		{
			name:   "missing since",
			params: ExportChatParams{ChatID: "19:abc@thread.v2"},
		},
		{
			name:   "unparsable since",
			params: ExportChatParams{ChatID: "19:abc@thread.v2", Since: "yesterday"},
		},
		{
			name: "since after until",
			params: ExportChatParams{
				ChatID: "19:abc@thread.v2",
				Since:  "2025-03-02",
				Until:  "2025-03-01",
			},
		},
		{
			name: "unknown format",
			params: ExportChatParams{
				ChatID: "19:abc@thread.v2",
				Since:  "2025-03-01",
				Format: "pdf",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.StartExportChat(tt.params)
			require.Error(t, err)

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr), "expected ValidationError, got %T", err)
		})
	}

	// Rejected submissions never create records.
	assert.Empty(t, reg.ListAll())
	assert.Zero(t, mock.GetRequestCount())
}

func TestStartListChatsValidation(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	reg := newTestRegistry(t, mock, auth.StaticProvider{Token: "test-token"})

	var vErr *ValidationError

	_, err := reg.StartListChats(ListChatsParams{ChatType: "broadcast"})
	require.Error(t, err)
	assert.True(t, errors.As(err, &vErr))

	zero := 0
	_, err = reg.StartListChats(ListChatsParams{MaxParticipants: &zero})
	require.Error(t, err)
	assert.True(t, errors.As(err, &vErr))

	_, err = reg.StartListActiveChats(ListActiveChatsParams{MinActivityDays: -1})
	require.Error(t, err)
	assert.True(t, errors.As(err, &vErr))
}

func TestStartIsNonBlocking(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	mock.SetResponse("/me", testutil.MockResponse{
		StatusCode: 200,
		Body:       `{"id": "me-1", "displayName": "Me"}`,
		Delay:      300 * time.Millisecond,
	})
	reg := newTestRegistry(t, mock, auth.StaticProvider{Token: "test-token"})

	start := time.Now()
	token, err := reg.StartExportChat(ExportChatParams{
		ChatID: "19:abc@thread.v2",
		Since:  "2025-03-01",
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond, "Start must not wait for the pipeline")

	rec, ok := reg.Status(token)
	require.True(t, ok)
	assert.False(t, rec.Status.Terminal())
	assert.Less(t, rec.Progress, 100)

	waitForTerminal(t, reg, token)
}

func TestDistinctTokensAndIsolation(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	mock.SetResponse("/me", testutil.NewObjectResponse(`{"id": "me-1", "displayName": "Me"}`))
	// Only one of the two chats exists.
	mock.SetResponse("/chats/19:good@thread.v2", testutil.NewObjectResponse(
		`{"id": "19:good@thread.v2", "chatType": "oneOnOne"}`))
	mock.SetResponse("/chats/19:good@thread.v2/members", testutil.NewCollectionResponse(
		`[{"userId": "u1", "displayName": "Alice Ray", "email": "alice@example.com"}]`))
	mock.SetResponse("/chats/19:good@thread.v2/messages", testutil.NewCollectionResponse(
		testutil.Messages(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), "hello")))
	mock.SetResponse("/chats/19:missing@thread.v2", testutil.NewErrorResponse(
		404, "NotFound", "chat does not exist"))

	reg := newTestRegistry(t, mock, auth.StaticProvider{Token: "test-token"})

	good, err := reg.StartExportChat(ExportChatParams{ChatID: "19:good@thread.v2", Since: "2025-03-01"})
	require.NoError(t, err)
	bad, err := reg.StartExportChat(ExportChatParams{ChatID: "19:missing@thread.v2", Since: "2025-03-01"})
	require.NoError(t, err)
	assert.NotEqual(t, good, bad)

	goodRec := waitForTerminal(t, reg, good)
	badRec := waitForTerminal(t, reg, bad)

	assert.Equal(t, StatusCompleted, goodRec.Status)
	assert.Equal(t, 100, goodRec.Progress)
	require.NotNil(t, goodRec.Summary)
	assert.Empty(t, goodRec.Error)

	assert.Equal(t, StatusFailed, badRec.Status)
	assert.Equal(t, 100, badRec.Progress)
	assert.Nil(t, badRec.Summary)
	assert.Contains(t, badRec.Error, "chat does not exist")
	require.NotNil(t, badRec.CompletedAt)
}

func TestAuthFailureFailsRun(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	reg := newTestRegistry(t, mock, auth.StaticProvider{})

	token, err := reg.StartExportChat(ExportChatParams{ChatID: "19:abc@thread.v2", Since: "2025-03-01"})
	require.NoError(t, err, "auth is checked inside the run, not at submission")

	rec := waitForTerminal(t, reg, token)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, auth.ErrNotAuthenticated.Error())
	assert.Zero(t, mock.GetRequestCount())
}

func TestStatusUnknownToken(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	reg := newTestRegistry(t, mock, auth.StaticProvider{Token: "test-token"})

	_, ok := reg.Status("no-such-run")
	assert.False(t, ok)
	_, ok = reg.Result("no-such-run")
	assert.False(t, ok)
	_, ok = reg.ArtifactPath("no-such-run")
	assert.False(t, ok)
}

func TestListAllNewestFirst(t *testing.T) {
	mock := testutil.NewMockGraph()
	defer mock.Close()
	reg := newTestRegistry(t, mock, auth.StaticProvider{Token: "test-token"})

	var tokens []string
	for i := 0; i < 3; i++ {
		token, err := reg.StartListChats(ListChatsParams{})
		require.NoError(t, err)
		tokens = append(tokens, token)
		time.Sleep(5 * time.Millisecond)
	}

	all := reg.ListAll()
	require.Len(t, all, 3)
	assert.Equal(t, tokens[2], all[0].Token)
	assert.Equal(t, tokens[1], all[1].Token)
	assert.Equal(t, tokens[0], all[2].Token)

	for _, token := range tokens {
		waitForTerminal(t, reg, token)
	}
}
