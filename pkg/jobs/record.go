package jobs

import (
	"fmt"
	"time"

	"github.com/xprtyg33k/teams-chat-extract/pkg/dates"
	"github.com/xprtyg33k/teams-chat-extract/pkg/export"
	"github.com/xprtyg33k/teams-chat-extract/pkg/filter"
)

// Kind identifies a pipeline.
type Kind string

const (
	KindExportChat      Kind = "export_chat"
	KindListChats       Kind = "list_chats"
	KindListActiveChats Kind = "list_active_chats"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ValidationError reports a rejected run parameter. Start methods
// return it synchronously, before any record is created.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Record is the pollable state of one run. Params never change after
// submission. Summary and ArtifactPath are set only on completion,
// Error only on failure.
type Record struct {
	Token        string          `json:"run_id"`
	Kind         Kind            `json:"kind"`
	Status       Status          `json:"status"`
	Progress     int             `json:"progress"`
	Message      string          `json:"progress_message"`
	Params       any             `json:"params"`
	Summary      *export.Summary `json:"summary,omitempty"`
	ArtifactPath string          `json:"-"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// GridResult is the bounded result view of a completed run.
type GridResult struct {
	Summary export.Summary `json:"summary"`
	Grid    []any          `json:"grid_data"`
	Total   int            `json:"grid_total"`
}

// ExportChatParams describes an export_chat run.
type ExportChatParams struct {
	ChatID string `json:"chat_id"`

	// Since is required; Until defaults to the submission time.
	Since string `json:"since"`
	Until string `json:"until,omitempty"`

	// Format selects the artifact serialization, defaulting to json.
	Format string `json:"format,omitempty"`

	ExcludeSystemMessages bool `json:"exclude_system_messages,omitempty"`
	OnlyMine              bool `json:"only_mine,omitempty"`
}

// exportChatPlan carries the validated form of ExportChatParams into
// the pipeline.
type exportChatPlan struct {
	chatID        string
	since         time.Time
	until         time.Time
	untilWasOpen  bool
	format        export.Format
	excludeSystem bool
	onlyMine      bool
}

func (p ExportChatParams) validate(now time.Time) (exportChatPlan, error) {
	if p.ChatID == "" {
		return exportChatPlan{}, validationErrorf("chat_id is required")
	}
	if p.Since == "" {
		return exportChatPlan{}, validationErrorf("since is required")
	}

	since, err := dates.Parse(p.Since)
	if err != nil {
		return exportChatPlan{}, validationErrorf("invalid since: %v", err)
	}

	until := now.UTC()
	open := true
	if p.Until != "" {
		until, err = dates.Parse(p.Until)
		if err != nil {
			return exportChatPlan{}, validationErrorf("invalid until: %v", err)
		}
		open = false
	}
	if err := dates.ValidateRange(since, until); err != nil {
		return exportChatPlan{}, validationErrorf("%v", err)
	}

	format, err := export.ParseFormat(p.Format)
	if err != nil {
		return exportChatPlan{}, validationErrorf("%v", err)
	}

	return exportChatPlan{
		chatID:        p.ChatID,
		since:         since,
		until:         until,
		untilWasOpen:  open,
		format:        format,
		excludeSystem: p.ExcludeSystemMessages,
		onlyMine:      p.OnlyMine,
	}, nil
}

// ListChatsParams describes a list_chats run. Zero values mean every
// criterion passes.
type ListChatsParams struct {
	ChatType        string   `json:"chat_type,omitempty"`
	MaxParticipants *int     `json:"max_participants,omitempty"`
	TopicInclude    []string `json:"topic_include,omitempty"`
	TopicExclude    []string `json:"topic_exclude,omitempty"`
	Participants    []string `json:"participants,omitempty"`
}

var knownChatTypes = map[string]bool{
	"":                 true,
	filter.ChatTypeAll: true,
	"oneOnOne":         true,
	"group":            true,
	"meeting":          true,
}

func (p ListChatsParams) validate() (filter.Spec, error) {
	if !knownChatTypes[p.ChatType] {
		return filter.Spec{}, validationErrorf(
			"unknown chat_type %q (expected all, oneOnOne, group, or meeting)", p.ChatType)
	}
	if p.MaxParticipants != nil && *p.MaxParticipants < 1 {
		return filter.Spec{}, validationErrorf("max_participants must be positive")
	}
	return filter.Spec{
		ChatType:        p.ChatType,
		MaxParticipants: p.MaxParticipants,
		TopicInclude:    p.TopicInclude,
		TopicExclude:    p.TopicExclude,
		Participants:    p.Participants,
	}, nil
}

// ListActiveChatsParams describes a list_active_chats run.
type ListActiveChatsParams struct {
	// MinActivityDays drops chats whose last activity is older than
	// this many days. Zero disables the cutoff.
	MinActivityDays int `json:"min_activity_days,omitempty"`

	// MaxMeetingParticipants drops meeting chats larger than this.
	// Zero disables the cap.
	MaxMeetingParticipants int `json:"max_meeting_participants,omitempty"`
}

func (p ListActiveChatsParams) validate() error {
	if p.MinActivityDays < 0 {
		return validationErrorf("min_activity_days must not be negative")
	}
	if p.MaxMeetingParticipants < 0 {
		return validationErrorf("max_meeting_participants must not be negative")
	}
	return nil
}
