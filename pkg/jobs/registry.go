package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xprtyg33k/teams-chat-extract/pkg/auth"
	"github.com/xprtyg33k/teams-chat-extract/pkg/export"
	"github.com/xprtyg33k/teams-chat-extract/pkg/graph"
	"github.com/xprtyg33k/teams-chat-extract/pkg/logging"
)

// DefaultArtifactDir is where artifacts land when none is configured.
const DefaultArtifactDir = "results"

// Config holds the collaborators of a Registry.
type Config struct {
	// Client performs all Graph traffic for every pipeline.
	Client *graph.Client

	// Tokens is checked at the start of each run so auth failures
	// surface early as Failed records instead of mid-pipeline.
	Tokens auth.TokenProvider

	// ArtifactDir receives one artifact file per completed run.
	ArtifactDir string
}

// record is the registry's mutable state for one run. The embedded
// Record is what Status and ListAll snapshot; grid data is held apart
// because only Result exposes it.
type record struct {
	Record
	grid      []any
	gridTotal int
}

// Registry owns the run records and launches one goroutine per run.
type Registry struct {
	client      *graph.Client
	tokens      auth.TokenProvider
	artifactDir string
	logger      zerolog.Logger

	mu   sync.Mutex
	runs map[string]*record
}

// NewRegistry creates a Registry and validates its configuration.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Client == nil {
		return nil, errors.New("jobs: Client is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("jobs: Tokens is required")
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = DefaultArtifactDir
	}

	return &Registry{
		client:      cfg.Client,
		tokens:      cfg.Tokens,
		artifactDir: cfg.ArtifactDir,
		logger:      logging.NewLogger("jobs"),
		runs:        make(map[string]*record),
	}, nil
}

// StartExportChat validates the parameters, registers a Pending run,
// and returns its token without waiting for the pipeline.
func (r *Registry) StartExportChat(p ExportChatParams) (string, error) {
	plan, err := p.validate(time.Now())
	if err != nil {
		return "", err
	}

	token := r.insert(KindExportChat, p)
	go r.run(token, KindExportChat, func(ctx context.Context) (*export.Materialized, error) {
		return r.runExportChat(ctx, token, plan)
	})
	return token, nil
}

// StartListChats validates the parameters, registers a Pending run, and
// returns its token without waiting for the pipeline.
func (r *Registry) StartListChats(p ListChatsParams) (string, error) {
	spec, err := p.validate()
	if err != nil {
		return "", err
	}

	token := r.insert(KindListChats, p)
	go r.run(token, KindListChats, func(ctx context.Context) (*export.Materialized, error) {
		return r.runListChats(ctx, token, spec)
	})
	return token, nil
}

// StartListActiveChats validates the parameters, registers a Pending
// run, and returns its token without waiting for the pipeline.
func (r *Registry) StartListActiveChats(p ListActiveChatsParams) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	token := r.insert(KindListActiveChats, p)
	go r.run(token, KindListActiveChats, func(ctx context.Context) (*export.Materialized, error) {
		return r.runListActiveChats(ctx, token, p)
	})
	return token, nil
}

// Status returns a snapshot of one run.
func (r *Registry) Status(token string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.runs[token]
	if !ok {
		return Record{}, false
	}
	return snapshot(rec), true
}

// ListAll returns snapshots of every run, newest first.
func (r *Registry) ListAll() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.runs))
	for _, rec := range r.runs {
		out = append(out, snapshot(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Result returns the bounded result view of a completed run. It stays
// available as long as the record exists, even after the artifact file
// is gone.
func (r *Registry) Result(token string) (*GridResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.runs[token]
	if !ok || rec.Summary == nil {
		return nil, false
	}

	grid := make([]any, len(rec.grid))
	copy(grid, rec.grid)
	return &GridResult{
		Summary: *rec.Summary,
		Grid:    grid,
		Total:   rec.gridTotal,
	}, true
}

// ArtifactPath returns the artifact file of a completed run, but only
// while the file still exists on disk.
func (r *Registry) ArtifactPath(token string) (string, bool) {
	r.mu.Lock()
	path := ""
	if rec, ok := r.runs[token]; ok {
		path = rec.ArtifactPath
	}
	r.mu.Unlock()

	if path == "" {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// insert allocates a token and registers a Pending record.
func (r *Registry) insert(kind Kind, params any) string {
	token := uuid.NewString()

	r.mu.Lock()
	r.runs[token] = &record{
		Record: Record{
			Token:     token,
			Kind:      kind,
			Status:    StatusPending,
			Message:   "Queued",
			Params:    params,
			CreatedAt: time.Now().UTC(),
		},
	}
	r.mu.Unlock()

	jobsStartedTotal.WithLabelValues(string(kind)).Inc()
	r.logger.Info().Str("run_id", token).Str("kind", string(kind)).Msg("Run queued")
	return token
}

// run executes one pipeline inside its own goroutine. Every outcome,
// including a panic, ends in a terminal record; nothing escapes.
func (r *Registry) run(token string, kind Kind, pipeline func(ctx context.Context) (*export.Materialized, error)) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fail(token, kind, fmt.Errorf("run panicked: %v", rec))
		}
	}()

	result, err := pipeline(context.Background())
	if err != nil {
		r.fail(token, kind, err)
		return
	}
	r.complete(token, kind, result)
}

// update applies a mutation to a run record under the lock.
func (r *Registry) update(token string, fn func(*record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.runs[token]; ok {
		fn(rec)
	}
}

// setProgress moves a run forward. The first call also flips the record
// from Pending to Running.
func (r *Registry) setProgress(token string, progress int, message string) {
	r.update(token, func(rec *record) {
		rec.Status = StatusRunning
		rec.Progress = progress
		rec.Message = message
	})
}

func (r *Registry) complete(token string, kind Kind, result *export.Materialized) {
	now := time.Now().UTC()
	var started time.Time

	r.update(token, func(rec *record) {
		started = rec.CreatedAt
		rec.Status = StatusCompleted
		rec.Progress = 100
		rec.Message = "Complete"
		rec.Summary = &result.Summary
		rec.ArtifactPath = result.Path
		rec.CompletedAt = &now
		rec.grid = result.Grid
		rec.gridTotal = result.Total
	})

	jobsCompletedTotal.WithLabelValues(string(kind)).Inc()
	jobDuration.WithLabelValues(string(kind)).Observe(now.Sub(started).Seconds())
	r.logger.Info().
		Str("run_id", token).
		Str("kind", string(kind)).
		Str("artifact", result.Path).
		Int("total", result.Total).
		Msg("Run completed")
}

func (r *Registry) fail(token string, kind Kind, err error) {
	now := time.Now().UTC()
	var started time.Time

	r.update(token, func(rec *record) {
		started = rec.CreatedAt
		rec.Status = StatusFailed
		rec.Progress = 100
		rec.Message = err.Error()
		rec.Error = err.Error()
		rec.CompletedAt = &now
	})

	jobsFailedTotal.WithLabelValues(string(kind)).Inc()
	jobDuration.WithLabelValues(string(kind)).Observe(now.Sub(started).Seconds())
	r.logger.Error().
		Err(err).
		Str("run_id", token).
		Str("kind", string(kind)).
		Msg("Run failed")
}

// snapshot deep-copies a record so callers never observe later updates.
func snapshot(rec *record) Record {
	out := rec.Record

	if rec.Summary != nil {
		s := *rec.Summary
		s.TopSenders = append([]export.SenderCount(nil), rec.Summary.TopSenders...)
		s.Participants = append([]string(nil), rec.Summary.Participants...)
		out.Summary = &s
	}
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
