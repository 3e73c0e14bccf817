package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const messagesSheet = "Messages"

// writeMessagesXLSX renders a chat export as a single-sheet workbook
// with one row per message.
func writeMessagesXLSX(path string, doc ChatDocument) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(messagesSheet)
	if err != nil {
		return fmt.Errorf("create worksheet: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headers := []any{"ID", "Created (UTC)", "Sender", "Body", "Attachments"}
	if err := f.SetSheetRow(messagesSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	for i, m := range doc.Messages {
		names := make([]string, 0, len(m.Attachments))
		for _, a := range m.Attachments {
			names = append(names, a.Name)
		}
		row := []any{
			m.ID,
			m.CreatedDateTime.UTC().Format("2006-01-02 15:04:05"),
			m.FromName,
			m.BodyText,
			joinNonEmpty(names),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("compute cell name: %w", err)
		}
		if err := f.SetSheetRow(messagesSheet, cell, &row); err != nil {
			return fmt.Errorf("write message row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func joinNonEmpty(names []string) string {
	out := ""
	for _, n := range names {
		if n == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += n
	}
	return out
}
