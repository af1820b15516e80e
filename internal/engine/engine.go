// Package engine implements the build order progression state machine. It
// ties the match clock, drift tracker, session recorder and time-driven
// signals together. An Engine is owned by a single goroutine (the event
// loop) and is not safe for concurrent use.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hammamikhairi/buildpace/internal/clock"
	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/drift"
	"github.com/hammamikhairi/buildpace/internal/logger"
	"github.com/hammamikhairi/buildpace/internal/session"
	"github.com/hammamikhairi/buildpace/internal/signals"
	"github.com/hammamikhairi/buildpace/internal/timing"
)

// Option configures the engine.
type Option func(*Engine)

// WithClock sets the wall clock used by the time source and status line.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithNotifier sets where coaching messages go.
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithCuePlayer sets the audio cue player.
func WithCuePlayer(p domain.CuePlayer) Option {
	return func(e *Engine) {
		e.cues = p
	}
}

// WithHistory persists archived sessions.
func WithHistory(h domain.HistoryStore) Option {
	return func(e *Engine) {
		e.history = h
	}
}

// Engine is the progression state machine.
type Engine struct {
	orders   domain.BuildOrderStore
	configs  domain.ConfigStore
	history  domain.HistoryStore
	notifier domain.Notifier
	cues     domain.CuePlayer
	log      *logger.Logger
	clock    clock.Clock

	source    *clock.Source
	drift     *drift.Tracker
	recorder  *session.Recorder
	badges    *signals.Badges
	metronome *signals.Metronome
	reminders *signals.Reminders

	cfg    domain.AppConfig
	list   []domain.BuildOrder // replaced whole on reload
	active *domain.BuildOrder
	state  domain.ProgressState
	cursor domain.Cursor
	status domain.Status
}

// New creates an engine with the given stores and options. Call Load
// before use.
func New(orders domain.BuildOrderStore, configs domain.ConfigStore, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		orders:  orders,
		configs: configs,
		log:     log,
		clock:   clock.System{},
		cfg:     domain.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	recOpts := []session.Option{session.WithClock(e.clock)}
	if e.history != nil {
		recOpts = append(recOpts, session.WithStore(e.history))
	}
	e.source = clock.NewSource(e.clock)
	e.recorder = session.NewRecorder(log, recOpts...)
	e.drift = drift.New(e.cfg.TimerDrift.Enabled)
	e.badges = signals.NewBadges(e.cfg.UpgradeBadges)
	e.metronome = signals.NewMetronome(e.cfg.Metronome)
	e.reminders = signals.NewReminders(e.cfg.Reminders)
	return e
}

// Load reads config, build orders and history, then selects the first
// enabled build order. Store failures are logged and reported through the
// status line; the engine keeps running on defaults.
func (e *Engine) Load(ctx context.Context) error {
	var errs []error

	cfg, err := e.configs.Load(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("loading config: %w", err))
		cfg = domain.DefaultConfig()
	}
	e.ApplyConfig(cfg)

	orders, err := e.orders.List(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("loading build orders: %w", err))
	}
	e.list = domain.CloneOrders(orders)

	if err := e.recorder.Load(ctx); err != nil {
		errs = append(errs, err)
	}

	if first, ok := e.firstEnabled(); ok {
		if err := e.SelectBuildOrder(ctx, first.ID); err != nil {
			errs = append(errs, err)
		}
	}

	err = errors.Join(errs...)
	if err != nil {
		e.log.Error("load: %v", err)
		e.fail(err)
	}
	e.log.Info("loaded %d build orders", len(e.list))
	return err
}

// Close finalises the open session.
func (e *Engine) Close(ctx context.Context) error {
	return e.endSession(ctx)
}

// State returns the progression state.
func (e *Engine) State() domain.ProgressState { return e.state }

// Cursor returns the current cursor.
func (e *Engine) Cursor() domain.Cursor { return e.cursor }

// Token returns the time source generation. The tick producer samples it
// when it schedules a tick.
func (e *Engine) Token() uint64 { return e.source.Token() }

// Elapsed returns match seconds.
func (e *Engine) Elapsed() int { return e.source.Elapsed() }

// BuildOrders returns a copy of the loaded build orders.
func (e *Engine) BuildOrders() []domain.BuildOrder { return domain.CloneOrders(e.list) }

// History returns archived sessions, newest first.
func (e *Engine) History() []domain.SessionRecord { return e.recorder.History() }

// ClearHistory empties the session history.
func (e *Engine) ClearHistory(ctx context.Context) error {
	if err := e.recorder.Clear(ctx); err != nil {
		e.fail(err)
		return err
	}
	return nil
}

// SelectBuildOrder makes the given order active and starts a new session.
// The previous session is finalised and the clock and every derived
// signal start over.
func (e *Engine) SelectBuildOrder(ctx context.Context, id string) error {
	order, ok := e.find(id)
	if !ok {
		return fmt.Errorf("selecting build order %q: %w", id, domain.ErrNotFound)
	}

	err := e.endSession(ctx)
	e.resetDerived()

	e.active = order.Clone()
	e.state = domain.StateActive
	e.cursor = domain.Cursor{OrderID: order.ID, StartElapsed: e.source.Elapsed()}
	e.recorder.Start(order.ID, order.DisplayName())

	e.log.Info("selected build order %q (%d steps)", order.DisplayName(), len(order.Steps))
	return err
}

// Advance completes the active step and moves the cursor forward. A
// stopped clock is started and nothing is recorded for that press. The
// step record is written before drift is updated. Advancing past the last
// step completes the build order and finalises the session.
func (e *Engine) Advance(ctx context.Context) error {
	if e.state != domain.StateActive {
		e.log.Debug("advance ignored in state %s", e.state)
		return nil
	}

	seq := e.sequence()
	idx := e.cursor.StepIndex
	step := seq[idx]

	if !e.source.Running() {
		e.source.Start()
		e.log.Debug("timer started by advance")
	} else if expected, ok := timing.ParseLoose(step.Timing); ok {
		e.record(ctx, step, expected)
	}

	e.playCue(ctx, domain.CueStepAdvance)

	if idx+1 >= len(seq) {
		e.cursor.StepIndex = len(seq)
		e.state = domain.StateCompleted
		e.log.Info("build order %s completed", e.active.ID)
		if err := e.endSession(ctx); err != nil {
			e.fail(err)
			return err
		}
		return nil
	}

	e.cursor.StepIndex = idx + 1
	e.log.Debug("advanced to step %d/%d", e.cursor.StepIndex+1, len(seq))
	return nil
}

func (e *Engine) record(ctx context.Context, step domain.Step, expected int) {
	actual := e.source.Elapsed()
	rec := domain.StepRecord{
		StepID:         step.ID,
		Description:    step.Description,
		ExpectedTiming: step.Timing,
		ActualSeconds:  actual,
		DeltaSeconds:   actual - expected,
	}
	if err := e.recorder.Record(rec); err != nil {
		e.log.Warn("recording step %s: %v", step.ID, err)
	}
	delta := e.drift.Record(expected, actual, e.clock.Now())

	if drift.Pace(delta) == domain.PaceBehind {
		e.notifyUrgent(ctx, fmt.Sprintf("Behind pace by %s", timing.FormatDelta(delta)))
		e.playCue(ctx, domain.CueBehindPace)
	}
}

// Retreat moves the cursor back one step. Records and drift are kept.
// Retreating from a completed build order reopens its last step.
func (e *Engine) Retreat(ctx context.Context) error {
	switch e.state {
	case domain.StateActive:
		if e.cursor.StepIndex == 0 {
			return nil
		}
		e.cursor.StepIndex--
	case domain.StateCompleted:
		e.state = domain.StateActive
		e.cursor.StepIndex = len(e.sequence()) - 1
		e.recorder.Start(e.active.ID, e.active.DisplayName())
	default:
		return nil
	}
	e.log.Debug("retreated to step %d", e.cursor.StepIndex+1)
	return nil
}

// GoToStep jumps within the active sequence without recording anything.
func (e *Engine) GoToStep(index int) error {
	if e.state != domain.StateActive {
		return domain.ErrNotActive
	}
	if index < 0 || index >= len(e.sequence()) {
		return fmt.Errorf("step %d: %w", index+1, domain.ErrNotFound)
	}
	e.cursor.StepIndex = index
	return nil
}

// SelectBranch switches to a branch at its start step. Drift is kept and
// dismissals of branch-scoped badges are cleared. An empty id returns to
// the main sequence, clamping the index.
func (e *Engine) SelectBranch(id string) error {
	if e.state != domain.StateActive {
		return fmt.Errorf("selecting branch %q: %w", id, domain.ErrNotActive)
	}
	if id == "" {
		e.cursor.BranchID = ""
		if last := len(e.active.Steps) - 1; e.cursor.StepIndex > last {
			e.cursor.StepIndex = last
		}
		e.badges.ClearBranchScoped()
		e.log.Info("returned to main sequence at step %d", e.cursor.StepIndex+1)
		return nil
	}

	br, ok := e.active.Branch(id)
	if !ok {
		return fmt.Errorf("selecting branch %q: %w", id, domain.ErrNotFound)
	}
	e.cursor.BranchID = br.ID
	e.cursor.StepIndex = br.StartStepIndex
	e.badges.ClearBranchScoped()
	e.log.Info("switched to branch %q at step %d", br.Name, br.StartStepIndex+1)
	return nil
}

// SelectBranchSlot maps hotkey slots to branches: 0 is the main sequence,
// 1-4 are the order's branches in authored order.
func (e *Engine) SelectBranchSlot(slot int) error {
	if e.state != domain.StateActive {
		return fmt.Errorf("branch slot %d: %w", slot, domain.ErrNotActive)
	}
	if slot == 0 {
		return e.SelectBranch("")
	}
	if slot < 0 || slot > len(e.active.Branches) {
		return fmt.Errorf("branch slot %d: %w", slot, domain.ErrNotFound)
	}
	return e.SelectBranch(e.active.Branches[slot-1].ID)
}

// Reset finalises the session and starts the same build order over, with
// the clock stopped at zero.
func (e *Engine) Reset(ctx context.Context) error {
	if e.active == nil {
		e.resetDerived()
		return nil
	}
	return e.SelectBuildOrder(ctx, e.active.ID)
}

// CycleBuildOrder selects the next enabled build order, wrapping around.
func (e *Engine) CycleBuildOrder(ctx context.Context) error {
	var enabled []domain.BuildOrder
	for _, o := range e.list {
		if o.Enabled {
			enabled = append(enabled, o)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	next := 0
	if e.active != nil {
		for i, o := range enabled {
			if o.ID == e.active.ID {
				next = (i + 1) % len(enabled)
				break
			}
		}
	}
	return e.SelectBuildOrder(ctx, enabled[next].ID)
}

// TogglePause starts a stopped match clock, otherwise pauses or resumes it.
func (e *Engine) TogglePause() {
	if !e.source.Running() {
		e.source.Start()
		e.cursor.Paused = false
		e.log.Debug("timer started")
		return
	}
	e.cursor.Paused = e.source.TogglePause()
	e.log.Debug("paused=%v", e.cursor.Paused)
}

// Tick runs one clock cycle for a tick scheduled under token. Stale
// ticks from before a reset are dropped.
func (e *Engine) Tick(ctx context.Context, token uint64) {
	elapsed, ok := e.source.Tick(token)
	if !ok {
		return
	}
	now := e.clock.Now()

	if beat, ok := e.metronome.Observe(elapsed, now); ok {
		e.playCue(ctx, domain.CueMetronomeTick)
		if beat.Task != "" {
			e.notify(ctx, beat.Task)
		}
	}
	if item, ok := e.reminders.Check(elapsed); ok {
		e.playCue(ctx, domain.CueReminder)
		e.notify(ctx, item.Message)
	}
	e.autoAdvance(ctx, elapsed)
}

func (e *Engine) autoAdvance(ctx context.Context, elapsed int) {
	aa := e.cfg.AutoAdvance
	if !aa.Enabled || e.state != domain.StateActive {
		return
	}
	step := e.sequence()[e.cursor.StepIndex]
	at, ok := timing.ParseLoose(step.Timing)
	if !ok || elapsed < at+aa.DelaySeconds {
		return
	}
	e.log.Debug("auto-advancing past step %s", step.ID)
	if err := e.Advance(ctx); err != nil {
		e.log.Error("auto-advance: %v", err)
	}
}

// DismissBadge hides a badge, or every visible badge when id is empty.
func (e *Engine) DismissBadge(id string) {
	if id == "" {
		n := e.badges.DismissVisible(e.source.Elapsed(), e.cursor.BranchID)
		e.log.Debug("dismissed %d badges", n)
		return
	}
	e.badges.Dismiss(id)
}

// endSession archives the open session if it recorded anything.
func (e *Engine) endSession(ctx context.Context) error {
	_, err := e.recorder.End(ctx)
	return err
}

// resetDerived is the session boundary: clock, drift and signals restart.
// Ticks scheduled before this call are invalidated.
func (e *Engine) resetDerived() {
	e.source.Reset()
	e.drift.Reset()
	e.badges.Reset()
	e.metronome.Reset()
	e.reminders.Reset()
	e.cursor.Paused = false
}

func (e *Engine) sequence() []domain.Step {
	return e.active.Sequence(e.cursor.BranchID)
}

func (e *Engine) find(id string) (*domain.BuildOrder, bool) {
	for i := range e.list {
		if e.list[i].ID == id {
			return &e.list[i], true
		}
	}
	return nil, false
}

func (e *Engine) firstEnabled() (*domain.BuildOrder, bool) {
	for i := range e.list {
		if e.list[i].Enabled {
			return &e.list[i], true
		}
	}
	return nil, false
}

func (e *Engine) notify(ctx context.Context, msg string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, msg); err != nil {
		e.log.Error("notify: %v", err)
	}
}

func (e *Engine) notifyUrgent(ctx context.Context, msg string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyUrgent(ctx, msg); err != nil {
		e.log.Error("notify urgent: %v", err)
	}
}

func (e *Engine) playCue(ctx context.Context, cue domain.Cue) {
	if e.cues == nil {
		return
	}
	if err := e.cues.Play(ctx, cue); err != nil {
		e.log.Warn("playing cue %s: %v", cue, err)
	}
}
