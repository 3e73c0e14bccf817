// Package filter implements predicate evaluation for chat records.
package filter

import (
	"strings"

	"github.com/xprtyg33k/teams-chat-extract/pkg/graph"
)

// ChatTypeAll disables the chat-type rule.
const ChatTypeAll = "all"

// Spec is an immutable set of criteria a chat must satisfy. All present
// criteria combine with AND; each multi-value criterion combines
// internally with OR. Absent criteria always pass. Text comparisons are
// case-insensitive.
type Spec struct {
	// ChatType requires an exact chat-type match ("oneOnOne", "group",
	// "meeting"). Empty or "all" disables the rule.
	ChatType string

	// MaxParticipants rejects chats with more members. Nil disables the
	// rule; it is also skipped when the member list is unknown.
	MaxParticipants *int

	// TopicInclude requires the topic to contain at least one keyword.
	TopicInclude []string

	// TopicExclude rejects chats whose topic contains any keyword.
	TopicExclude []string

	// Participants requires at least one of the given emails among the
	// chat members.
	Participants []string
}

// Matches reports whether a chat passes every criterion. Evaluation
// short-circuits on the first failing rule.
func (s Spec) Matches(chat graph.Chat, members []graph.ChatMember) bool {
	if s.ChatType != "" && s.ChatType != ChatTypeAll && chat.ChatType != s.ChatType {
		return false
	}

	if s.MaxParticipants != nil && members != nil && len(members) > *s.MaxParticipants {
		return false
	}

	if len(s.TopicInclude) > 0 {
		topic := strings.ToLower(chat.Topic)
		if !containsAny(topic, s.TopicInclude) {
			return false
		}
	}

	if len(s.TopicExclude) > 0 {
		topic := strings.ToLower(chat.Topic)
		if containsAny(topic, s.TopicExclude) {
			return false
		}
	}

	if len(s.Participants) > 0 {
		if !intersectsEmails(members, s.Participants) {
			return false
		}
	}

	return true
}

// containsAny reports whether text contains any keyword as a substring,
// ignoring case. text must already be lowercased.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// intersectsEmails reports whether any member email matches any of the
// wanted emails, ignoring case.
func intersectsEmails(members []graph.ChatMember, wanted []string) bool {
	emails := make(map[string]bool, len(members))
	for _, m := range members {
		if m.Email != "" {
			emails[strings.ToLower(m.Email)] = true
		}
	}
	for _, w := range wanted {
		if emails[strings.ToLower(w)] {
			return true
		}
	}
	return false
}
