package domain

import (
	"errors"
	"time"
)

// Sentinel errors used across layers. The first four are the error kinds
// surfaced to the user; the rest refine them.
var (
	ErrParse      = errors.New("parse error")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrIO         = errors.New("io error")

	ErrNotActive     = errors.New("no build order is active")
	ErrAlreadyExists = errors.New("already exists")
)

// ErrorKind classifies a failure for reporting.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindParse
	KindValidation
	KindNotFound
	KindIO
	KindOther
)

// String returns a human-readable error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	default:
		return "other"
	}
}

// KindOf maps an error chain to its reportable kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindOther
	}
}

// StatusTTL is how long a transient status stays visible.
const StatusTTL = 3 * time.Second

// StatusState is the saving indicator shown next to the overlay.
type StatusState int

const (
	StatusIdle StatusState = iota
	StatusSaving
	StatusSaved
	StatusError
)

// String returns a human-readable status state.
func (s StatusState) String() string {
	switch s {
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Status is the last reportable condition. Kind and Message are only set
// for StatusError.
type Status struct {
	State   StatusState
	Kind    ErrorKind
	Message string
	At      time.Time
}

// Visible reports whether the status should still be shown at now.
// Saving never auto-clears; saved and error clear after StatusTTL.
func (s Status) Visible(now time.Time) bool {
	switch s.State {
	case StatusIdle:
		return false
	case StatusSaving:
		return true
	default:
		return now.Sub(s.At) < StatusTTL
	}
}

// StatusFromError builds an error status.
func StatusFromError(err error, at time.Time) Status {
	return Status{
		State:   StatusError,
		Kind:    KindOf(err),
		Message: err.Error(),
		At:      at,
	}
}
