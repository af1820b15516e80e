package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Source is the match timer: a monotonic elapsed-seconds counter with
// start, pause, resume and reset. Paused intervals are excluded.
//
// Every Reset bumps a generation token. Ticks scheduled before the reset
// carry the old token and are ignored.
type Source struct {
	clock Clock

	mu          sync.Mutex
	running     bool
	paused      bool
	startedAt   time.Time
	accumulated time.Duration

	token atomic.Uint64
}

// NewSource creates a stopped time source.
func NewSource(c Clock) *Source {
	if c == nil {
		c = System{}
	}
	return &Source{clock: c}
}

// Start begins counting from zero. No-op if already running or paused.
func (s *Source) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.paused = false
	s.accumulated = 0
	s.startedAt = s.clock.Now()
}

// Pause freezes the elapsed value. No-op unless running.
func (s *Source) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.paused {
		return
	}
	s.accumulated += s.clock.Now().Sub(s.startedAt)
	s.paused = true
}

// Resume continues from the frozen value without catching up on the pause.
func (s *Source) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || !s.paused {
		return
	}
	s.startedAt = s.clock.Now()
	s.paused = false
}

// TogglePause pauses a running source or resumes a paused one. A stopped
// source is left alone. Returns the paused state afterwards.
func (s *Source) TogglePause() bool {
	s.mu.Lock()
	running, paused := s.running, s.paused
	s.mu.Unlock()

	switch {
	case running && paused:
		s.Resume()
		return false
	case running:
		s.Pause()
		return true
	default:
		return false
	}
}

// Reset stops the source, zeroes it and invalidates every outstanding
// tick. Returns the new token.
func (s *Source) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.paused = false
	s.accumulated = 0
	s.startedAt = time.Time{}
	return s.token.Add(1)
}

// Token returns the current generation. Tick producers sample it when they
// schedule a tick.
func (s *Source) Token() uint64 {
	return s.token.Load()
}

// Tick returns the elapsed seconds for a tick scheduled under token.
// ok is false when the token is stale or the source is not counting.
func (s *Source) Tick(token uint64) (elapsed int, ok bool) {
	if token != s.token.Load() {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.paused {
		return s.elapsedLocked(), false
	}
	return s.elapsedLocked(), true
}

// Elapsed returns whole seconds counted so far.
func (s *Source) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

// Running reports whether the source has been started and not reset.
// A paused source is still running.
func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Paused reports whether the source is paused.
func (s *Source) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Source) elapsedLocked() int {
	d := s.accumulated
	if s.running && !s.paused {
		d += s.clock.Now().Sub(s.startedAt)
	}
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
