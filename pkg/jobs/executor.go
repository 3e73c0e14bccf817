package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/xprtyg33k/teams-chat-extract/pkg/export"
	"github.com/xprtyg33k/teams-chat-extract/pkg/filter"
	"github.com/xprtyg33k/teams-chat-extract/pkg/graph"
)

// chatPageSize is the $top value for chat listings.
const chatPageSize = "50"

// runExportChat fetches one chat's messages within a date window and
// materializes them.
func (r *Registry) runExportChat(ctx context.Context, token string, plan exportChatPlan) (*export.Materialized, error) {
	r.setProgress(token, 5, "Authenticating")
	if _, err := r.tokens.BearerToken(ctx); err != nil {
		return nil, err
	}

	r.setProgress(token, 10, "Fetching user profile")
	profile, err := r.client.MyProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	r.setProgress(token, 15, "Fetching chat info")
	chat, err := r.client.ChatByID(ctx, plan.chatID)
	if err != nil {
		return nil, fmt.Errorf("fetch chat: %w", err)
	}
	members, err := r.client.ChatMembers(ctx, plan.chatID)
	if err != nil {
		return nil, fmt.Errorf("fetch chat members: %w", err)
	}

	r.setProgress(token, 20, "Downloading messages")
	downloaded := 0
	onPage := func(count int) {
		downloaded += count
		r.setProgress(token, min(20+downloaded/2, 85),
			fmt.Sprintf("Downloaded %d messages", downloaded))
	}

	// Server-side filtering runs on lastModifiedDateTime, which Graph
	// requires to be the $orderby property as well. The precise
	// createdDateTime window is applied client-side below.
	odataFilter := fmt.Sprintf("lastModifiedDateTime gt %s and lastModifiedDateTime lt %s",
		plan.since.Format("2006-01-02T15:04:05Z"), plan.until.Format("2006-01-02T15:04:05Z"))
	messages, err := r.client.ChatMessages(ctx, plan.chatID, odataFilter, "lastModifiedDateTime desc", onPage)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	r.setProgress(token, 85, "Processing messages")

	kept := messages[:0]
	for i := range messages {
		m := messages[i]
		created := m.CreatedDateTime
		if created.Before(plan.since) || !created.Before(plan.until) {
			continue
		}
		if plan.onlyMine && m.SenderID() != profile.ID {
			continue
		}
		if plan.excludeSystem && m.IsSystem() {
			continue
		}
		kept = append(kept, m)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CreatedDateTime.Before(kept[j].CreatedDateTime)
	})

	processed := make([]export.Message, 0, len(kept))
	for i := range kept {
		processed = append(processed, export.FromGraphMessage(kept[i]))
	}

	participants := make([]export.Participant, 0, len(members))
	for _, m := range members {
		name := m.DisplayName
		if name == "" {
			name = "Unknown"
		}
		participants = append(participants, export.Participant{
			ID:                m.UserID,
			DisplayName:       name,
			UserPrincipalName: m.Email,
		})
	}

	chatType := chat.ChatType
	if chatType == "" {
		chatType = "unknown"
	}

	doc := export.ChatDocument{
		ChatID:         plan.chatID,
		ChatType:       chatType,
		Participants:   participants,
		DateRangeStart: plan.since,
		DateRangeEnd:   plan.until,
		ExportedAt:     time.Now().UTC(),
		MessageCount:   len(processed),
		Messages:       processed,
	}
	return export.Messages(r.artifactDir, token, plan.format, doc)
}

// runListChats pages through the user's chats, applies the filter spec
// to what Graph cannot filter natively, and materializes the matches.
func (r *Registry) runListChats(ctx context.Context, token string, spec filter.Spec) (*export.Materialized, error) {
	r.setProgress(token, 5, "Authenticating")
	if _, err := r.tokens.BearerToken(ctx); err != nil {
		return nil, err
	}

	r.setProgress(token, 10, "Fetching chats")

	query := url.Values{}
	query.Set("$expand", "members")
	query.Set("$top", chatPageSize)
	// Chat type is the one criterion Graph filters server-side.
	if spec.ChatType != "" && spec.ChatType != filter.ChatTypeAll {
		query.Set("$filter", fmt.Sprintf("chatType eq '%s'", spec.ChatType))
	}

	var rows []export.ChatRow
	processed := 0

	seq := r.client.ChatsSeq(ctx, query, nil)
	for seq.Next() {
		var chat graph.Chat
		if err := json.Unmarshal(seq.Item(), &chat); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		processed++

		members := chat.Members
		if members == nil {
			// $expand covers almost every chat; fall back per chat and
			// tolerate failures like an empty member list.
			members, _ = r.client.ChatMembers(ctx, chat.ID)
		}

		if !spec.Matches(chat, members) {
			continue
		}

		name := displayName(chat, members)
		rows = append(rows, export.ChatRow{
			ChatID:      chat.ID,
			ChatType:    chatTypeOrUnknown(chat),
			Topic:       name,
			DisplayName: name,
			MemberCount: len(members),
		})

		if processed%5 == 0 {
			r.setProgress(token, min(10+processed, 90),
				fmt.Sprintf("Processed %d chats, %d match", processed, len(rows)))
		}
	}
	if err := seq.Err(); err != nil {
		return nil, fmt.Errorf("fetch chats: %w", err)
	}

	return export.Chats(r.artifactDir, token, export.ChatListDocument{
		Chats: rows,
		Total: len(rows),
	})
}

// runListActiveChats lists recently active chats: channels are skipped,
// oversized meetings are dropped, and anything whose last activity is
// older than the cutoff is filtered out.
func (r *Registry) runListActiveChats(ctx context.Context, token string, p ListActiveChatsParams) (*export.Materialized, error) {
	r.setProgress(token, 5, "Authenticating")
	if _, err := r.tokens.BearerToken(ctx); err != nil {
		return nil, err
	}

	r.setProgress(token, 10, "Fetching chats")

	query := url.Values{}
	query.Set("$select", "id,chatType,topic,lastMessagePreview")
	query.Set("$expand", "members")
	query.Set("$top", chatPageSize)

	var cutoff time.Time
	if p.MinActivityDays > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -p.MinActivityDays)
	}

	var rows []export.ChatRow
	processed := 0

	seq := r.client.ChatsSeq(ctx, query, nil)
	for seq.Next() {
		var chat graph.Chat
		if err := json.Unmarshal(seq.Item(), &chat); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		processed++

		if chat.ChatType == "channel" {
			continue
		}

		members := chat.Members
		if members == nil {
			var err error
			members, err = r.client.ChatMembers(ctx, chat.ID)
			if err != nil {
				// Inaccessible membership makes the activity rules
				// unanswerable, so the chat is skipped.
				continue
			}
		}

		if chat.ChatType == "meeting" && p.MaxMeetingParticipants > 0 && len(members) > p.MaxMeetingParticipants {
			continue
		}

		var lastActivity time.Time
		if chat.LastMessagePreview != nil {
			lastActivity = chat.LastMessagePreview.CreatedDateTime
		}
		if !lastActivity.IsZero() && !cutoff.IsZero() && lastActivity.Before(cutoff) {
			continue
		}

		row := export.ChatRow{
			ChatID:      chat.ID,
			ChatType:    chatTypeOrUnknown(chat),
			DisplayName: displayName(chat, members),
			MemberCount: len(members),
		}
		if !lastActivity.IsZero() {
			row.LastActivity = lastActivity.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)

		if processed%5 == 0 {
			r.setProgress(token, min(10+processed, 90),
				fmt.Sprintf("Processed %d chats, %d active", processed, len(rows)))
		}
	}
	if err := seq.Err(); err != nil {
		return nil, fmt.Errorf("fetch chats: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].LastActivity > rows[j].LastActivity
	})

	return export.Chats(r.artifactDir, token, export.ChatListDocument{
		Chats: rows,
		Total: len(rows),
	})
}

// displayName derives a human-readable chat name: the topic when set,
// otherwise the joined member names.
func displayName(chat graph.Chat, members []graph.ChatMember) string {
	if chat.Topic != "" {
		return chat.Topic
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.DisplayName != "" {
			names = append(names, m.DisplayName)
		}
	}
	if len(names) == 0 {
		return "(No name)"
	}
	return strings.Join(names, ", ")
}

func chatTypeOrUnknown(chat graph.Chat) string {
	if chat.ChatType == "" {
		return "unknown"
	}
	return chat.ChatType
}
