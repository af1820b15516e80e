package engine

import (
	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/drift"
	"github.com/hammamikhairi/buildpace/internal/signals"
	"github.com/hammamikhairi/buildpace/internal/timing"
)

// StepView is one step as the overlay shows it.
type StepView struct {
	Index        int
	Step         domain.Step
	Position     domain.StepPosition
	Timing       string // drift-adjusted for future steps
	Adjusted     bool
	Distribution []domain.Segment
}

// BranchOption is a branch the player can switch to.
type BranchOption struct {
	Slot    int
	ID      string
	Name    string
	Trigger string
	Active  bool
}

// OrderSummary is one entry of the build order selector.
type OrderSummary struct {
	ID           string
	Name         string
	Civilization string
	Enabled      bool
	Active       bool
}

// Snapshot is an immutable view of the engine for the display. It shares
// no memory with the engine.
type Snapshot struct {
	State        domain.ProgressState
	OrderID      string
	OrderName    string
	Civilization string
	Difficulty   string
	BranchID     string
	BranchName   string
	Branches     []BranchOption
	Orders       []OrderSummary

	StepIndex int
	StepCount int
	Steps     []StepView

	Elapsed int
	Clock   string
	Running bool
	Paused  bool

	Drift        drift.State
	Pace         domain.PaceStatus
	Delta        string // "+0:15", empty before the first recorded step
	DeltaCompact string

	Badges    []signals.BadgeView
	Metronome signals.MetronomeView
	Status    domain.Status

	CompactMode  bool
	ClickThrough bool
	Hotkeys      domain.HotkeyConfig
}

// ActiveStep returns the step under the cursor, if any.
func (s Snapshot) ActiveStep() (StepView, bool) {
	if s.StepIndex < 0 || s.StepIndex >= len(s.Steps) {
		return StepView{}, false
	}
	return s.Steps[s.StepIndex], true
}

// Snapshot builds the current view.
func (e *Engine) Snapshot() Snapshot {
	now := e.clock.Now()
	elapsed := e.source.Elapsed()
	dstate := e.drift.State()

	snap := Snapshot{
		State:        e.state,
		StepIndex:    e.cursor.StepIndex,
		Elapsed:      elapsed,
		Clock:        timing.Format(elapsed),
		Running:      e.source.Running(),
		Paused:       e.source.Paused(),
		Drift:        dstate,
		Pace:         e.drift.Pace(),
		Metronome:    e.metronome.View(now),
		Status:       e.Status(),
		CompactMode:  e.cfg.CompactMode,
		ClickThrough: e.cfg.ClickThrough,
		Hotkeys:      e.cfg.Hotkeys,
	}
	if dstate.HasDelta {
		snap.Delta = timing.FormatDelta(dstate.LastDelta)
		snap.DeltaCompact = timing.FormatDeltaCompact(dstate.LastDelta)
	}

	for _, o := range e.list {
		snap.Orders = append(snap.Orders, OrderSummary{
			ID:           o.ID,
			Name:         o.DisplayName(),
			Civilization: o.Civilization,
			Enabled:      o.Enabled,
			Active:       e.active != nil && o.ID == e.active.ID,
		})
	}

	if e.active == nil {
		return snap
	}

	snap.OrderID = e.active.ID
	snap.OrderName = e.active.DisplayName()
	snap.Civilization = e.active.Civilization
	snap.Difficulty = e.active.Difficulty
	snap.BranchID = e.cursor.BranchID
	snap.Badges = e.badges.Visible(elapsed, e.cursor.BranchID)

	for i, br := range e.active.Branches {
		snap.Branches = append(snap.Branches, BranchOption{
			Slot:    i + 1,
			ID:      br.ID,
			Name:    br.Name,
			Trigger: br.Trigger,
			Active:  br.ID == e.cursor.BranchID,
		})
		if br.ID == e.cursor.BranchID {
			snap.BranchName = br.Name
		}
	}

	seq := e.sequence()
	snap.StepCount = len(seq)
	snap.Steps = make([]StepView, len(seq))
	for i, st := range seq {
		pos := e.position(i)
		disp := e.drift.Adjust(st.Timing, pos)
		if st.Resources != nil {
			r := *st.Resources
			st.Resources = &r
		}
		snap.Steps[i] = StepView{
			Index:        i,
			Step:         st,
			Position:     pos,
			Timing:       disp.Timing,
			Adjusted:     disp.Adjusted,
			Distribution: st.Resources.Distribution(),
		}
	}
	return snap
}

func (e *Engine) position(i int) domain.StepPosition {
	switch {
	case i < e.cursor.StepIndex:
		return domain.StepPast
	case i == e.cursor.StepIndex && e.state == domain.StateActive:
		return domain.StepActive
	default:
		return domain.StepFuture
	}
}
