// Package drift tracks how far the player runs ahead of or behind the
// authored timings, and re-projects future step timings by that amount.
package drift

import (
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/timing"
)

// PaceThreshold is the delta, in seconds, beyond which a step counts as
// ahead or behind.
const PaceThreshold = 10

// State is a read-only copy of the tracker.
type State struct {
	Enabled     bool
	Accumulated int // seconds, positive = behind
	UpdatedAt   time.Time
	LastDelta   int
	HasDelta    bool
}

// Tracker accumulates actual - expected over completed steps. It is owned
// by the engine and not safe for concurrent use.
type Tracker struct {
	enabled     bool
	accumulated int
	updatedAt   time.Time
	lastDelta   int
	hasDelta    bool
}

// New creates an empty tracker.
func New(enabled bool) *Tracker {
	return &Tracker{enabled: enabled}
}

// Record registers a completed step and returns its delta. The last delta
// is always kept for pace display; the running sum only moves while the
// tracker is enabled.
func (t *Tracker) Record(expected, actual int, at time.Time) int {
	delta := actual - expected
	t.lastDelta = delta
	t.hasDelta = true
	if t.enabled {
		t.accumulated += delta
		t.updatedAt = at
	}
	return delta
}

// SetEnabled toggles adjustment. Disabling drops the accumulated drift.
func (t *Tracker) SetEnabled(enabled bool) {
	if t.enabled == enabled {
		return
	}
	t.enabled = enabled
	if !enabled {
		t.accumulated = 0
		t.updatedAt = time.Time{}
	}
}

// Reset clears everything. Called on a session boundary.
func (t *Tracker) Reset() {
	t.accumulated = 0
	t.updatedAt = time.Time{}
	t.lastDelta = 0
	t.hasDelta = false
}

// Accumulated returns the running drift in seconds.
func (t *Tracker) Accumulated() int { return t.accumulated }

// State returns a copy of the tracker.
func (t *Tracker) State() State {
	return State{
		Enabled:     t.enabled,
		Accumulated: t.accumulated,
		UpdatedAt:   t.updatedAt,
		LastDelta:   t.lastDelta,
		HasDelta:    t.hasDelta,
	}
}

// Display is the timing text shown for one step.
type Display struct {
	Timing   string // empty when the step has no usable timing
	Adjusted bool   // drift indicator
}

// Adjust returns the text to show for a step's authored timing. Only
// future steps are shifted; if the shifted value would be zero or less the
// sanitized original is shown instead, without the indicator.
func (t *Tracker) Adjust(raw string, pos domain.StepPosition) Display {
	sanitized, ok := timing.Sanitize(raw)
	if !ok {
		return Display{}
	}
	if !t.enabled || t.accumulated == 0 || pos != domain.StepFuture {
		return Display{Timing: sanitized}
	}

	secs, _ := timing.Parse(sanitized)
	adjusted := secs + t.accumulated
	if adjusted <= 0 {
		return Display{Timing: sanitized}
	}
	text := timing.Format(adjusted)
	return Display{Timing: text, Adjusted: text != sanitized}
}

// Pace classifies a step delta.
func Pace(delta int) domain.PaceStatus {
	switch {
	case delta < -PaceThreshold:
		return domain.PaceAhead
	case delta > PaceThreshold:
		return domain.PaceBehind
	default:
		return domain.PaceOnPace
	}
}

// Pace returns the classification of the last recorded delta.
func (t *Tracker) Pace() domain.PaceStatus {
	if !t.hasDelta {
		return domain.PaceUnknown
	}
	return Pace(t.lastDelta)
}
