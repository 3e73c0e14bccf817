package export

import (
	"fmt"
)

// Format selects the artifact serialization. It is a job parameter, not
// a pipeline concern.
type Format string

const (
	// FormatJSON writes the full export document as indented JSON.
	FormatJSON Format = "json"

	// FormatTXT writes a human-readable transcript.
	FormatTXT Format = "txt"

	// FormatXLSX writes a spreadsheet with one row per message.
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatTXT, FormatXLSX:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (expected json, txt, or xlsx)", s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	return string(f)
}
