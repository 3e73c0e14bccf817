package graph

import (
	"encoding/json"
	"time"
)

// Page is one page of a paginated collection response. NextLink is the
// opaque continuation URL; an empty NextLink signals end of sequence.
type Page struct {
	Items    []json.RawMessage
	NextLink string
}

// pageEnvelope is the wire shape of a paginated Graph response.
type pageEnvelope struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// graphErrorBody is the wire shape of a Graph error response.
type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Chat is a Teams chat (1:1, group, or meeting).
type Chat struct {
	ID                 string          `json:"id"`
	ChatType           string          `json:"chatType"`
	Topic              string          `json:"topic"`
	LastMessagePreview *MessagePreview `json:"lastMessagePreview,omitempty"`

	// Members is populated when the chat list was fetched with
	// $expand=members; nil otherwise.
	Members []ChatMember `json:"members,omitempty"`
}

// MessagePreview carries the last-activity hint attached to a chat.
type MessagePreview struct {
	CreatedDateTime time.Time `json:"createdDateTime"`
}

// ChatMember is one participant of a chat.
type ChatMember struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Message is a single chat message.
type Message struct {
	ID                   string       `json:"id"`
	MessageType          string       `json:"messageType"`
	CreatedDateTime      time.Time    `json:"createdDateTime"`
	LastModifiedDateTime time.Time    `json:"lastModifiedDateTime"`
	From                 *MessageFrom `json:"from,omitempty"`
	Body                 ItemBody     `json:"body"`
	Attachments          []Attachment `json:"attachments,omitempty"`
}

// MessageFrom identifies the sender of a message. User is nil for
// system event messages.
type MessageFrom struct {
	User *Identity `json:"user,omitempty"`
}

// Identity is a user reference embedded in a message.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ItemBody is a message body with its content type.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Attachment is a file or card attached to a message.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl,omitempty"`
}

// User is a directory user.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// SenderName returns the display name of the message sender, or
// "Unknown" when the sender is absent (system messages).
func (m *Message) SenderName() string {
	if m.From == nil || m.From.User == nil || m.From.User.DisplayName == "" {
		return "Unknown"
	}
	return m.From.User.DisplayName
}

// SenderID returns the user id of the message sender, or "" when absent.
func (m *Message) SenderID() string {
	if m.From == nil || m.From.User == nil {
		return ""
	}
	return m.From.User.ID
}

// IsSystem reports whether the message is a system event rather than a
// user-authored message.
func (m *Message) IsSystem() bool {
	return m.MessageType != "" && m.MessageType != "message"
}
