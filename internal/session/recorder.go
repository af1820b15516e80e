// Package session records per-step performance for the current playthrough
// and keeps a bounded history of finished sessions, newest first.
package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hammamikhairi/buildpace/internal/clock"
	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

// Option configures the recorder.
type Option func(*Recorder)

// WithStore persists archived sessions. Without it history lives in memory.
func WithStore(store domain.HistoryStore) Option {
	return func(r *Recorder) {
		r.store = store
	}
}

// WithClock sets the clock used for session start timestamps.
func WithClock(c clock.Clock) Option {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithLimit overrides the history cap.
func WithLimit(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.limit = n
		}
	}
}

// Recorder owns the current session and the archived history. It is owned
// by the engine and not safe for concurrent use.
type Recorder struct {
	store domain.HistoryStore
	clock clock.Clock
	log   *logger.Logger
	limit int

	current *domain.SessionRecord
	history []domain.SessionRecord
}

// NewRecorder creates a recorder with an empty history.
func NewRecorder(log *logger.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		clock: clock.System{},
		log:   log,
		limit: domain.HistoryLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the in-memory history with the persisted one.
func (r *Recorder) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	recs, err := r.store.List(ctx, r.limit)
	if err != nil {
		return fmt.Errorf("loading session history: %w", err)
	}
	r.history = recs
	r.log.Debug("loaded %d archived sessions", len(recs))
	return nil
}

// Start opens a new session for the given build order, discarding any
// unfinished one without archiving it.
func (r *Recorder) Start(orderID, orderName string) {
	r.current = &domain.SessionRecord{
		ID:             uuid.NewString(),
		BuildOrderID:   orderID,
		BuildOrderName: orderName,
		StartedAt:      r.clock.Now(),
	}
}

// Record appends a step record to the current session.
func (r *Recorder) Record(rec domain.StepRecord) error {
	if r.current == nil {
		return fmt.Errorf("recording step %s: %w", rec.StepID, domain.ErrNotActive)
	}
	r.current.Steps = append(r.current.Steps, rec)
	return nil
}

// End closes the current session. It is archived only if at least one step
// was recorded. A persistence failure is returned but the in-memory
// history keeps the session.
func (r *Recorder) End(ctx context.Context) (bool, error) {
	cur := r.current
	r.current = nil
	if cur == nil || len(cur.Steps) == 0 {
		return false, nil
	}

	r.history = append([]domain.SessionRecord{*cur}, r.history...)
	if len(r.history) > r.limit {
		r.history = r.history[:r.limit]
	}
	r.log.Info("archived session %s (%s, %d steps)", cur.ID, cur.BuildOrderID, len(cur.Steps))

	if r.store != nil {
		if err := r.store.Append(ctx, *cur, r.limit); err != nil {
			return true, fmt.Errorf("persisting session %s: %w", cur.ID, err)
		}
	}
	return true, nil
}

// Clear empties the history unconditionally.
func (r *Recorder) Clear(ctx context.Context) error {
	r.history = nil
	if r.store != nil {
		if err := r.store.Clear(ctx); err != nil {
			return fmt.Errorf("clearing session history: %w", err)
		}
	}
	return nil
}

// Current returns a copy of the open session, or nil.
func (r *Recorder) Current() *domain.SessionRecord {
	if r.current == nil {
		return nil
	}
	return r.current.Clone()
}

// History returns a copy of the archived sessions, newest first.
func (r *Recorder) History() []domain.SessionRecord {
	out := make([]domain.SessionRecord, len(r.history))
	for i := range r.history {
		out[i] = *r.history[i].Clone()
	}
	return out
}
