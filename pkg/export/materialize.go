// Package export turns completed record sequences into durable
// artifacts plus bounded, UI-ready summaries and grid previews.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xprtyg33k/teams-chat-extract/pkg/graph"
)

// FromGraphMessage converts a raw Graph message to its export shape,
// rendering the HTML body to plain text.
func FromGraphMessage(m graph.Message) Message {
	attachments := make([]AttachmentInfo, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, AttachmentInfo{
			Name:       a.Name,
			Type:       a.ContentType,
			ContentURL: a.ContentURL,
		})
	}

	return Message{
		ID:                   m.ID,
		CreatedDateTime:      m.CreatedDateTime,
		LastModifiedDateTime: m.LastModifiedDateTime,
		FromID:               m.SenderID(),
		FromName:             m.SenderName(),
		BodyText:             HTMLToText(m.Body.Content),
		BodyHTML:             m.Body.Content,
		Attachments:          attachments,
	}
}

// Messages materializes a completed message export: one artifact file
// at <dir>/<token>.<ext> plus the bounded summary and grid preview.
// The input document is not mutated; materializing the same document
// twice produces the same artifact and view.
func Messages(dir, token string, format Format, doc ChatDocument) (*Materialized, error) {
	path := filepath.Join(dir, token+"."+format.Ext())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	var err error
	switch format {
	case FormatJSON:
		err = writeJSON(path, doc)
	case FormatTXT:
		err = writeMessagesTxt(path, doc)
	case FormatXLSX:
		err = writeMessagesXLSX(path, doc)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	participants := make([]string, 0, len(doc.Participants))
	for _, p := range doc.Participants {
		participants = append(participants, p.DisplayName)
	}

	summary := Summary{
		TotalMessages:  len(doc.Messages),
		TotalChats:     1,
		DateRangeStart: doc.DateRangeStart.Format(time.RFC3339),
		DateRangeEnd:   doc.DateRangeEnd.Format(time.RFC3339),
		TopSenders:     topSenders(doc.Messages),
		ChatType:       doc.ChatType,
		Participants:   participants,
	}

	grid := make([]any, 0, GridLimit)
	for _, m := range doc.Messages {
		if len(grid) == GridLimit {
			break
		}
		grid = append(grid, MessageRow{
			ID:          m.ID,
			Created:     m.CreatedDateTime.Format(time.RFC3339),
			Sender:      m.FromName,
			BodyText:    TruncateRunes(m.BodyText, PreviewTextLimit),
			Attachments: len(m.Attachments),
		})
	}

	return &Materialized{
		Path:    path,
		Summary: summary,
		Grid:    grid,
		Total:   len(doc.Messages),
	}, nil
}

// Chats materializes a chat listing as a JSON artifact plus the
// bounded view.
func Chats(dir, token string, doc ChatListDocument) (*Materialized, error) {
	path := filepath.Join(dir, token+".json")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if err := writeJSON(path, doc); err != nil {
		return nil, err
	}

	grid := make([]any, 0, GridLimit)
	for _, c := range doc.Chats {
		if len(grid) == GridLimit {
			break
		}
		grid = append(grid, c)
	}

	return &Materialized{
		Path:    path,
		Summary: Summary{TotalChats: doc.Total},
		Grid:    grid,
		Total:   doc.Total,
	}, nil
}

// topSenders aggregates message counts by sender name, keeping the
// TopSendersLimit largest. Ties break by name for determinism.
func topSenders(messages []Message) []SenderCount {
	counts := make(map[string]int)
	for _, m := range messages {
		name := m.FromName
		if name == "" {
			name = "Unknown"
		}
		counts[name]++
	}

	senders := make([]SenderCount, 0, len(counts))
	for name, count := range counts {
		senders = append(senders, SenderCount{Name: name, Count: count})
	}
	sort.Slice(senders, func(i, j int) bool {
		if senders[i].Count != senders[j].Count {
			return senders[i].Count > senders[j].Count
		}
		return senders[i].Name < senders[j].Name
	})

	if len(senders) > TopSendersLimit {
		senders = senders[:TopSendersLimit]
	}
	return senders
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
