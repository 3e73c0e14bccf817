package export

import (
	"fmt"
	"os"
	"strings"
)

const txtRuleWidth = 80

// writeMessagesTxt renders a chat export in the human-readable text
// layout: a metadata header followed by a MESSAGES section with one
// timestamped block per message.
func writeMessagesTxt(path string, doc ChatDocument) error {
	var b strings.Builder
	rule := strings.Repeat("=", txtRuleWidth)
	sep := strings.Repeat("-", txtRuleWidth)

	fmt.Fprintf(&b, "%s\nTEAMS CHAT EXPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Chat ID:        %s\n", doc.ChatID)
	fmt.Fprintf(&b, "Chat Type:      %s\n", doc.ChatType)

	for i, p := range doc.Participants {
		label := "Participants:  "
		if i > 0 {
			label = strings.Repeat(" ", len(label))
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", label, p.DisplayName, p.UserPrincipalName)
	}

	fmt.Fprintf(&b, "Date Range:     %s to %s\n",
		doc.DateRangeStart.Format("2006-01-02"), doc.DateRangeEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "Exported:       %s\n", doc.ExportedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Message Count:  %d\n\n", doc.MessageCount)

	fmt.Fprintf(&b, "%s\nMESSAGES\n%s\n\n", rule, rule)

	for i, m := range doc.Messages {
		fmt.Fprintf(&b, "[%s] %s:\n", m.CreatedDateTime.UTC().Format("2006-01-02 15:04:05 UTC"), m.FromName)
		b.WriteString(m.BodyText)
		b.WriteString("\n")

		if len(m.Attachments) > 0 {
			names := make([]string, 0, len(m.Attachments))
			for _, a := range m.Attachments {
				names = append(names, fmt.Sprintf("%s (%s)", a.Name, a.Type))
			}
			fmt.Fprintf(&b, "\n[Attachments: %s]\n", strings.Join(names, ", "))
		}

		if i < len(doc.Messages)-1 {
			fmt.Fprintf(&b, "\n%s\n\n", sep)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
