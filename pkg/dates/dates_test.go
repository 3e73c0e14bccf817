package dates

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "date_only",
			input: "2025-06-01",
			want:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "datetime_no_zone",
			input: "2025-06-01T14:30:00",
			want:  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "datetime_zulu",
			input: "2025-06-01T14:30:00Z",
			want:  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339_with_offset",
			input: "2025-06-01T14:30:00+02:00",
			want:  time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "wrong_order",
			input:   "01-06-2025",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("Parse(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	earlier := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	if err := ValidateRange(earlier, later); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if err := ValidateRange(later, earlier); err == nil {
		t.Error("reversed range accepted")
	}
	if err := ValidateRange(earlier, earlier); err == nil {
		t.Error("zero-width range accepted")
	}
}
