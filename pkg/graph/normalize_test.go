package graph

import "testing"

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name   string
		chatID string
		want   string
	}{
		{
			name:   "plain teams id",
			chatID: "19:abc@thread.v2",
			want:   "19%3Aabc%40thread.v2",
		},
		{
			name:   "already encoded",
			chatID: "19%3Aabc%40thread.v2",
			want:   "19%3Aabc%40thread.v2",
		},
		{
			name:   "meeting id with space",
			chatID: "19:meeting abc@thread.v2",
			want:   "19%3Ameeting%20abc%40thread.v2",
		},
		{
			name:   "no special characters",
			chatID: "plain",
			want:   "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeChatID(tt.chatID); got != tt.want {
				t.Errorf("NormalizeChatID(%q) = %q, want %q", tt.chatID, got, tt.want)
			}
		})
	}
}

func TestNormalizeChatID_Idempotent(t *testing.T) {
	ids := []string{
		"19:abc@thread.v2",
		"19%3Aabc%40thread.v2",
		"19:meeting abc@thread.v2",
		"plain",
	}

	for _, id := range ids {
		once := NormalizeChatID(id)
		twice := NormalizeChatID(once)
		if once != twice {
			t.Errorf("NormalizeChatID not idempotent for %q: %q != %q", id, once, twice)
		}
	}
}
