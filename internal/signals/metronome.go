package signals

import (
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
)

// PulseWindow is how long the metronome indicator pulses after a tick.
const PulseWindow = time.Second

// MacroTasks are cycled by the coaching metronome, one per tick.
var MacroTasks = []string{
	"Check town center",
	"Glance at minimap",
	"Spend your resources",
	"Check idle villagers",
}

// Beat is one metronome tick.
type Beat struct {
	Elapsed int
	Task    string // empty unless the coach loop is on
}

// MetronomeView is what the display needs from the metronome.
type MetronomeView struct {
	Enabled    bool
	Interval   int
	LastTickAt time.Time
	Pulsing    bool
	NextTask   string
}

// Metronome ticks every configured interval of match time. Intervals are
// counted from base, the elapsed second the current settings took effect.
type Metronome struct {
	cfg        domain.MetronomeConfig
	base       int
	lastBucket int
	observed   bool // an elapsed second has been seen since the last reset
	rebase     bool // settings changed mid-session; restart the interval
	lastTickAt time.Time
	pulseUntil time.Time
	taskIndex  int
}

// NewMetronome creates a metronome from config.
func NewMetronome(cfg domain.MetronomeConfig) *Metronome {
	m := &Metronome{}
	m.Configure(cfg)
	return m
}

// Configure applies new settings. The interval is clamped to 10-60 s.
// Enabling the metronome or changing its interval mid-session restarts
// the interval, so the next beat comes one full interval later.
func (m *Metronome) Configure(cfg domain.MetronomeConfig) {
	if cfg.IntervalSeconds < domain.MinMetronomeInterval {
		cfg.IntervalSeconds = domain.MinMetronomeInterval
	}
	if cfg.IntervalSeconds > domain.MaxMetronomeInterval {
		cfg.IntervalSeconds = domain.MaxMetronomeInterval
	}
	if m.observed && (cfg.Enabled != m.cfg.Enabled || cfg.IntervalSeconds != m.cfg.IntervalSeconds) {
		m.rebase = true
	}
	m.cfg = cfg
}

// Observe is called with the current elapsed seconds. It returns a beat
// when a new interval boundary has been crossed. Skipped seconds still
// produce a single beat.
func (m *Metronome) Observe(elapsed int, now time.Time) (Beat, bool) {
	if elapsed <= 0 {
		return Beat{}, false
	}
	m.observed = true
	if m.rebase {
		m.base, m.lastBucket, m.rebase = elapsed, 0, false
		return Beat{}, false
	}
	if !m.cfg.Enabled || elapsed < m.base {
		return Beat{}, false
	}
	bucket := (elapsed - m.base) / m.cfg.IntervalSeconds
	if bucket == 0 || bucket <= m.lastBucket {
		return Beat{}, false
	}
	m.lastBucket = bucket
	m.lastTickAt = now
	m.pulseUntil = now.Add(PulseWindow)

	beat := Beat{Elapsed: elapsed}
	if m.cfg.CoachLoop {
		beat.Task = MacroTasks[m.taskIndex]
		m.taskIndex = (m.taskIndex + 1) % len(MacroTasks)
	}
	return beat, true
}

// Pulsing reports whether the tick indicator is still lit at now.
func (m *Metronome) Pulsing(now time.Time) bool {
	return now.Before(m.pulseUntil)
}

// View returns the display state at now.
func (m *Metronome) View(now time.Time) MetronomeView {
	v := MetronomeView{
		Enabled:    m.cfg.Enabled,
		Interval:   m.cfg.IntervalSeconds,
		LastTickAt: m.lastTickAt,
		Pulsing:    m.Pulsing(now),
	}
	if m.cfg.CoachLoop {
		v.NextTask = MacroTasks[m.taskIndex]
	}
	return v
}

// Reset starts the cycle over. Called on a session boundary.
func (m *Metronome) Reset() {
	m.base = 0
	m.lastBucket = 0
	m.observed = false
	m.rebase = false
	m.lastTickAt = time.Time{}
	m.pulseUntil = time.Time{}
	m.taskIndex = 0
}
