package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatMessages_QueryShape(t *testing.T) {
	var path, filter, orderby string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		filter = r.URL.Query().Get("$filter")
		orderby = r.URL.Query().Get("$orderby")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"value": []}`))
	}))
	defer server.Close()
	client := newTestClient(t, server.URL, 3)

	_, err := client.ChatMessages(context.Background(), "19:abc@thread.v2",
		"lastModifiedDateTime gt 2025-03-01T00:00:00Z", "lastModifiedDateTime desc", nil)
	if err != nil {
		t.Fatalf("ChatMessages() failed: %v", err)
	}

	if path != "/chats/19%3Aabc%40thread.v2/messages" {
		t.Errorf("Path = %q, chat id not normalized", path)
	}
	if filter != "lastModifiedDateTime gt 2025-03-01T00:00:00Z" {
		t.Errorf("$filter = %q", filter)
	}
	if orderby != "lastModifiedDateTime desc" {
		t.Errorf("$orderby = %q", orderby)
	}
}

func TestFindChatsByParticipants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		switch r.URL.Path {
		case "/me/chats":
			w.Write([]byte(`{"value": [
				{"id": "19:both@thread.v2", "chatType": "group", "members": [
					{"userId": "u1", "displayName": "Alice"},
					{"userId": "u2", "displayName": "Bob"}
				]},
				{"id": "19:one@thread.v2", "chatType": "oneOnOne", "members": [
					{"userId": "u1", "displayName": "Alice"}
				]}
			]}`))
		default:
			w.Write([]byte(`{"value": []}`))
		}
	}))
	defer server.Close()
	client := newTestClient(t, server.URL, 3)

	chats, err := client.FindChatsByParticipants(context.Background(), []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("FindChatsByParticipants() failed: %v", err)
	}

	if len(chats) != 1 {
		t.Fatalf("Matches = %d, want 1", len(chats))
	}
	if chats[0].ID != "19:both@thread.v2" {
		t.Errorf("Matched chat = %q", chats[0].ID)
	}
	if len(chats[0].Members) != 2 {
		t.Errorf("Members = %d, want 2 (attached to the match)", len(chats[0].Members))
	}
}
