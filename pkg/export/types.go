package export

import (
	"time"
)

// Bounds for the UI-ready view.
const (
	// GridLimit is the maximum number of records in a grid preview.
	GridLimit = 50

	// PreviewTextLimit bounds free-text fields in grid rows, in runes.
	PreviewTextLimit = 300

	// TopSendersLimit bounds the per-sender aggregation in summaries.
	TopSendersLimit = 10
)

// Participant is one chat member in an export document.
type Participant struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// AttachmentInfo describes one message attachment.
type AttachmentInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	ContentURL string `json:"contentUrl,omitempty"`
}

// Message is one processed message in an export document. BodyText is
// the plain-text rendering of BodyHTML.
type Message struct {
	ID                   string           `json:"id"`
	CreatedDateTime      time.Time        `json:"createdDateTime"`
	LastModifiedDateTime time.Time        `json:"lastModifiedDateTime"`
	FromID               string           `json:"fromId"`
	FromName             string           `json:"fromName"`
	BodyText             string           `json:"body_text"`
	BodyHTML             string           `json:"body_html"`
	Attachments          []AttachmentInfo `json:"attachments"`
}

// ChatDocument is the full-fidelity export of one chat.
type ChatDocument struct {
	ChatID         string        `json:"chat_id"`
	ChatType       string        `json:"chat_type"`
	Participants   []Participant `json:"participants"`
	DateRangeStart time.Time     `json:"date_range_start"`
	DateRangeEnd   time.Time     `json:"date_range_end"`
	ExportedAt     time.Time     `json:"exported_at_utc"`
	MessageCount   int           `json:"message_count"`
	Messages       []Message     `json:"messages"`
}

// ChatRow is one chat in a list-style export.
type ChatRow struct {
	ChatID       string `json:"chat_id"`
	ChatType     string `json:"chat_type"`
	Topic        string `json:"topic,omitempty"`
	DisplayName  string `json:"display_name"`
	MemberCount  int    `json:"member_count"`
	LastActivity string `json:"last_activity,omitempty"`
}

// ChatListDocument is the full-fidelity export of a chat listing.
type ChatListDocument struct {
	Chats []ChatRow `json:"chats"`
	Total int       `json:"total"`
}

// SenderCount is one entry of the top-senders aggregation.
type SenderCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the bounded aggregate attached to a completed run.
type Summary struct {
	TotalMessages  int           `json:"total_messages,omitempty"`
	TotalChats     int           `json:"total_chats,omitempty"`
	DateRangeStart string        `json:"date_range_start,omitempty"`
	DateRangeEnd   string        `json:"date_range_end,omitempty"`
	TopSenders     []SenderCount `json:"top_senders,omitempty"`
	ChatType       string        `json:"chat_type,omitempty"`
	Participants   []string      `json:"participants,omitempty"`
}

// MessageRow is one grid-preview row for a message export.
type MessageRow struct {
	ID          string `json:"id"`
	Created     string `json:"created"`
	Sender      string `json:"sender"`
	BodyText    string `json:"body_text"`
	Attachments int    `json:"attachments"`
}

// Materialized is the outcome of materializing a record sequence: the
// persisted artifact plus the bounded view for pollers.
type Materialized struct {
	Path    string
	Summary Summary
	Grid    []any
	Total   int
}
