package domain

import "time"

// HistoryLimit is how many finished sessions are kept, newest first.
const HistoryLimit = 50

// ProgressState is the lifecycle of the progression state machine.
type ProgressState int

const (
	StateIdle ProgressState = iota
	StateActive
	StateCompleted
)

// String returns a human-readable progression state.
func (s ProgressState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Cursor is the runtime position inside the active build order. It is never
// persisted.
type Cursor struct {
	OrderID      string
	StepIndex    int
	BranchID     string // empty while on the main sequence
	Paused       bool
	StartElapsed int // elapsed seconds when the session began
}

// StepRecord captures expected vs. actual timing for one completed step.
type StepRecord struct {
	StepID         string
	Description    string
	ExpectedTiming string // raw authored text
	ActualSeconds  int
	DeltaSeconds   int // actual - expected
}

// SessionRecord is one playthrough of a build order.
type SessionRecord struct {
	ID             string
	BuildOrderID   string
	BuildOrderName string
	StartedAt      time.Time
	Steps          []StepRecord
}

// Clone returns a copy that shares nothing with the receiver.
func (s *SessionRecord) Clone() *SessionRecord {
	out := *s
	out.Steps = append([]StepRecord(nil), s.Steps...)
	return &out
}

// PaceStatus classifies the most recent delta.
type PaceStatus int

const (
	PaceUnknown PaceStatus = iota
	PaceAhead
	PaceOnPace
	PaceBehind
)

// String returns a human-readable pace status.
func (p PaceStatus) String() string {
	switch p {
	case PaceAhead:
		return "ahead"
	case PaceOnPace:
		return "on-pace"
	case PaceBehind:
		return "behind"
	default:
		return "unknown"
	}
}

// StepPosition places a step relative to the cursor.
type StepPosition int

const (
	StepPast StepPosition = iota
	StepActive
	StepFuture
)

// String returns a human-readable step position.
func (p StepPosition) String() string {
	switch p {
	case StepPast:
		return "past"
	case StepActive:
		return "active"
	case StepFuture:
		return "future"
	default:
		return "unknown"
	}
}
