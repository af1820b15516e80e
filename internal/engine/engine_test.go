package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/buildpace/internal/clock"
	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
	"github.com/hammamikhairi/buildpace/internal/storage"
)

// mockNotifier captures messages for assertions.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	urgent   []string
}

func (m *mockNotifier) Notify(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockNotifier) NotifyUrgent(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urgent = append(m.urgent, msg)
	return nil
}

// mockCues records played cues.
type mockCues struct {
	mu     sync.Mutex
	played []domain.Cue
	volume float64
}

func (m *mockCues) Play(_ context.Context, cue domain.Cue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.played = append(m.played, cue)
	return nil
}

func (m *mockCues) SetVolume(v float64) { m.volume = v }

// failingConfig loads fine but cannot be written.
type failingConfig struct{ cfg domain.AppConfig }

func (f *failingConfig) Load(context.Context) (domain.AppConfig, error) { return f.cfg.Clone(), nil }
func (f *failingConfig) Save(context.Context, domain.AppConfig) error {
	return fmt.Errorf("config.toml: %w", domain.ErrIO)
}

type harness struct {
	eng      *Engine
	fake     *clock.Fake
	orders   *storage.MemoryBuildOrders
	configs  domain.ConfigStore
	history  *storage.MemoryHistory
	notifier *mockNotifier
	cues     *mockCues
	ctx      context.Context
}

func scenarioOrder(id string, timings ...string) domain.BuildOrder {
	o := domain.BuildOrder{ID: id, Name: "Order " + id, Enabled: true}
	for i, tm := range timings {
		o.Steps = append(o.Steps, domain.Step{
			ID:          fmt.Sprintf("%s-%d", id, i+1),
			Description: fmt.Sprintf("step %d", i+1),
			Timing:      tm,
		})
	}
	return o
}

func setupEngine(t *testing.T, cfg domain.AppConfig, orders ...domain.BuildOrder) *harness {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	if len(orders) == 0 {
		orders = []domain.BuildOrder{scenarioOrder("bo", "0:45", "1:30", "2:00")}
	}

	configs := storage.NewMemoryConfig(nil)
	ctx := context.Background()
	if err := configs.Save(ctx, cfg); err != nil {
		t.Fatal(err)
	}

	h := &harness{
		fake:     clock.NewFake(time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)),
		orders:   storage.NewMemoryBuildOrders(log, nil, orders...),
		configs:  configs,
		history:  storage.NewMemoryHistory(),
		notifier: &mockNotifier{},
		cues:     &mockCues{},
		ctx:      ctx,
	}
	h.eng = New(h.orders, h.configs, log,
		WithClock(h.fake),
		WithHistory(h.history),
		WithNotifier(h.notifier),
		WithCuePlayer(h.cues),
	)
	if err := h.eng.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	return h
}

// advanceAt moves match time to the given elapsed second and advances.
func (h *harness) advanceAt(t *testing.T, elapsed int) {
	t.Helper()
	now := h.eng.Elapsed()
	h.fake.Advance(time.Duration(elapsed-now) * time.Second)
	if err := h.eng.Advance(h.ctx); err != nil {
		t.Fatalf("advance at %d: %v", elapsed, err)
	}
}

func TestLoadSelectsFirstEnabled(t *testing.T) {
	disabled := scenarioOrder("a", "0:10")
	disabled.Enabled = false
	h := setupEngine(t, domain.DefaultConfig(), disabled, scenarioOrder("b", "0:10"))

	if h.eng.State() != domain.StateActive {
		t.Fatalf("expected active, got %s", h.eng.State())
	}
	if got := h.eng.Cursor().OrderID; got != "b" {
		t.Fatalf("expected first enabled order b, got %s", got)
	}
}

func TestLoadWithNoOrdersIsIdle(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	eng := New(storage.NewMemoryBuildOrders(log, nil), storage.NewMemoryConfig(nil), log)
	if err := eng.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if eng.State() != domain.StateIdle {
		t.Fatalf("expected idle, got %s", eng.State())
	}
	if err := eng.Advance(context.Background()); err != nil {
		t.Fatalf("advance while idle should be a no-op, got %v", err)
	}
	if eng.Retreat(context.Background()) != nil || eng.State() != domain.StateIdle {
		t.Fatal("retreat while idle should be a no-op")
	}
}

func TestAdvanceCountAndCompletion(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())
	h.eng.TogglePause() // start the clock

	h.advanceAt(t, 45)
	h.advanceAt(t, 90)
	if got := h.eng.Cursor().StepIndex; got != 2 {
		t.Fatalf("two advances should land on index 2, got %d", got)
	}

	h.advanceAt(t, 120)
	if h.eng.State() != domain.StateCompleted {
		t.Fatalf("expected completed, got %s", h.eng.State())
	}
	if got := h.eng.Cursor().StepIndex; got != 3 {
		t.Fatalf("completed index should equal step count, got %d", got)
	}

	hist := h.eng.History()
	if len(hist) != 1 || len(hist[0].Steps) != 3 {
		t.Fatalf("expected one archived session with 3 steps, got %+v", hist)
	}
	stored, _ := h.history.List(h.ctx, 0)
	if len(stored) != 1 {
		t.Fatalf("expected session persisted to history store, got %d", len(stored))
	}

	h.advanceAt(t, 130)
	if h.eng.Cursor().StepIndex != 3 || len(h.eng.History()) != 1 {
		t.Fatal("advance after completion must be a no-op")
	}
}

func TestAdvanceStartsStoppedClock(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())

	if err := h.eng.Advance(h.ctx); err != nil {
		t.Fatal(err)
	}
	snap := h.eng.Snapshot()
	if !snap.Running {
		t.Fatal("advance should start a stopped clock")
	}
	if snap.StepIndex != 1 {
		t.Fatalf("expected index 1, got %d", snap.StepIndex)
	}
	if snap.Delta != "" {
		t.Fatal("no step should be recorded before the clock ran")
	}
}

func TestRetreat(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())

	if err := h.eng.Retreat(h.ctx); err != nil || h.eng.Cursor().StepIndex != 0 {
		t.Fatal("retreat at 0 should be a no-op")
	}

	h.eng.TogglePause()
	h.advanceAt(t, 50)
	drift := h.eng.Snapshot().Drift.Accumulated

	h.eng.Retreat(h.ctx)
	if h.eng.Cursor().StepIndex != 0 {
		t.Fatalf("expected index 0 after retreat, got %d", h.eng.Cursor().StepIndex)
	}
	if h.eng.Snapshot().Drift.Accumulated != drift {
		t.Fatal("retreat must not roll back drift")
	}

	h.advanceAt(t, 60)
	if h.eng.Cursor().StepIndex != 1 {
		t.Fatal("retreat then advance should restore the index")
	}
}

func TestRetreatFromCompleted(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig(), scenarioOrder("bo", "0:10"))
	h.eng.TogglePause()
	h.advanceAt(t, 10)
	if h.eng.State() != domain.StateCompleted {
		t.Fatal("single step order should complete")
	}

	h.eng.Retreat(h.ctx)
	if h.eng.State() != domain.StateActive || h.eng.Cursor().StepIndex != 0 {
		t.Fatalf("retreat should reopen the last step, got %s at %d", h.eng.State(), h.eng.Cursor().StepIndex)
	}
}

// Finishing the 0:45 step at 50s puts the player 5s behind; the 2:00
// step then shows 2:05.
func TestDriftScenario(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    string
		adj     bool
	}{
		{"drift on", true, "2:05", true},
		{"drift off", false, "2:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultConfig()
			cfg.TimerDrift.Enabled = tt.enabled
			h := setupEngine(t, cfg)
			h.eng.TogglePause()
			h.advanceAt(t, 50)

			snap := h.eng.Snapshot()
			if tt.enabled && snap.Drift.Accumulated != 5 {
				t.Fatalf("expected drift +5, got %d", snap.Drift.Accumulated)
			}
			if snap.Delta != "+0:05" || snap.DeltaCompact != "+5s" {
				t.Fatalf("expected last delta +0:05/+5s, got %s/%s", snap.Delta, snap.DeltaCompact)
			}

			active := snap.Steps[1]
			if active.Position != domain.StepActive || active.Timing != "1:30" || active.Adjusted {
				t.Fatalf("active step should be untouched, got %+v", active)
			}
			future := snap.Steps[2]
			if future.Timing != tt.want || future.Adjusted != tt.adj {
				t.Fatalf("future step: got %s (adjusted=%v), want %s (adjusted=%v)",
					future.Timing, future.Adjusted, tt.want, tt.adj)
			}
			past := snap.Steps[0]
			if past.Position != domain.StepPast || past.Timing != "0:45" {
				t.Fatalf("past step should be untouched, got %+v", past)
			}
		})
	}
}

func TestDisablingDriftViaConfigResets(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())
	h.eng.TogglePause()
	h.advanceAt(t, 50)

	cfg := h.eng.Config()
	cfg.TimerDrift.Enabled = false
	h.eng.ReloadConfig(cfg)
	if h.eng.Snapshot().Drift.Accumulated != 0 {
		t.Fatal("disabling drift should reset it")
	}
}

func TestBehindPaceNotifies(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())
	h.eng.TogglePause()
	h.advanceAt(t, 60) // 15s late on 0:45

	if len(h.notifier.urgent) != 1 || h.notifier.urgent[0] != "Behind pace by +0:15" {
		t.Fatalf("expected behind-pace warning, got %v", h.notifier.urgent)
	}
	if h.eng.Snapshot().Pace != domain.PaceBehind {
		t.Fatal("pace should be behind")
	}
	found := false
	for _, c := range h.cues.played {
		if c == domain.CueBehindPace {
			found = true
		}
	}
	if !found {
		t.Fatal("behind-pace cue not played")
	}
}

func branchingOrder() domain.BuildOrder {
	o := scenarioOrder("bo", "0:45", "1:30", "2:00", "3:00")
	o.Branches = []domain.Branch{
		{ID: "rush", Name: "Rush", StartStepIndex: 1, Steps: []domain.Step{
			{ID: "r1", Description: "Barracks", Timing: "1:00"},
			{ID: "r2", Description: "Spears", Timing: "2:30"},
		}},
	}
	return o
}

func TestSelectBranch(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.UpgradeBadges = domain.UpgradeBadgesConfig{Enabled: true, Badges: []domain.Badge{
		{ID: "wall", Name: "Wall", TriggerSeconds: 10, Enabled: true, Branch: "rush"},
	}}
	h := setupEngine(t, cfg, branchingOrder())
	h.eng.TogglePause()
	h.advanceAt(t, 50)

	if err := h.eng.SelectBranch("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if h.eng.Cursor().BranchID != "" || h.eng.Cursor().StepIndex != 1 {
		t.Fatal("unknown branch must not change state")
	}

	if err := h.eng.SelectBranch("rush"); err != nil {
		t.Fatal(err)
	}
	snap := h.eng.Snapshot()
	if snap.BranchID != "rush" || snap.StepIndex != 1 || snap.StepCount != 2 {
		t.Fatalf("expected branch rush at index 1 of 2, got %s %d/%d", snap.BranchID, snap.StepIndex, snap.StepCount)
	}
	if snap.Drift.Accumulated != 5 {
		t.Fatal("branch switch must keep drift")
	}
	if len(snap.Badges) != 1 {
		t.Fatalf("branch-scoped badge should show on its branch, got %d", len(snap.Badges))
	}

	h.eng.DismissBadge("")
	if len(h.eng.Snapshot().Badges) != 0 {
		t.Fatal("dismiss-all should hide the badge")
	}
	h.eng.SelectBranch("rush")
	if len(h.eng.Snapshot().Badges) != 1 {
		t.Fatal("switching branch should clear branch-scoped dismissals")
	}
}

func TestBranchSlots(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig(), branchingOrder())

	if err := h.eng.Dispatch(h.ctx, domain.Action{Type: domain.ActionActivateBranch, Payload: "1"}); err != nil {
		t.Fatal(err)
	}
	if h.eng.Cursor().BranchID != "rush" {
		t.Fatal("slot 1 should select the first branch")
	}
	if err := h.eng.Dispatch(h.ctx, domain.Action{Type: domain.ActionActivateBranch, Payload: "2"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("empty slot should be not found, got %v", err)
	}
	if h.eng.Snapshot().Status.Kind != domain.KindNotFound {
		t.Fatal("failed action should surface on the status line")
	}
	if err := h.eng.Dispatch(h.ctx, domain.Action{Type: domain.ActionActivateBranch, Payload: "0"}); err != nil {
		t.Fatal(err)
	}
	if h.eng.Cursor().BranchID != "" {
		t.Fatal("slot 0 should return to main")
	}
}

func TestResetIsSessionBoundary(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Metronome = domain.MetronomeConfig{Enabled: true, IntervalSeconds: 10, CoachLoop: true}
	h := setupEngine(t, cfg)
	h.eng.TogglePause()
	h.advanceAt(t, 50)

	stale := h.eng.Token()
	if err := h.eng.Reset(h.ctx); err != nil {
		t.Fatal(err)
	}

	snap := h.eng.Snapshot()
	if snap.StepIndex != 0 || snap.Running || snap.Drift.Accumulated != 0 || snap.Delta != "" {
		t.Fatalf("reset should clear cursor, clock and drift: %+v", snap)
	}
	if len(h.eng.History()) != 1 {
		t.Fatal("reset should archive the recorded session")
	}

	h.eng.TogglePause()
	h.fake.Advance(10 * time.Second)
	h.eng.Tick(h.ctx, stale)
	if len(h.notifier.messages) != 0 {
		t.Fatalf("stale tick mutated state: %v", h.notifier.messages)
	}
	h.eng.Tick(h.ctx, h.eng.Token())
	if len(h.notifier.messages) != 1 || h.notifier.messages[0] != "Check town center" {
		t.Fatalf("expected first coach task, got %v", h.notifier.messages)
	}
}

func TestResetWithoutRecordsDoesNotArchive(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())
	h.eng.Reset(h.ctx)
	if len(h.eng.History()) != 0 {
		t.Fatal("session without records must not be archived")
	}
}

func TestCycleBuildOrder(t *testing.T) {
	off := scenarioOrder("b", "0:10")
	off.Enabled = false
	h := setupEngine(t, domain.DefaultConfig(), scenarioOrder("a", "0:10"), off, scenarioOrder("c", "0:10"))

	want := []string{"c", "a", "c"}
	for _, id := range want {
		if err := h.eng.Dispatch(h.ctx, domain.Action{Type: domain.ActionCycleBuildOrder}); err != nil {
			t.Fatal(err)
		}
		if got := h.eng.Cursor().OrderID; got != id {
			t.Fatalf("expected %s, got %s", id, got)
		}
	}
}

func TestToggleCompactPersists(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())

	if err := h.eng.Dispatch(h.ctx, domain.Action{Type: domain.ActionToggleCompact}); err != nil {
		t.Fatal(err)
	}
	cfg, _ := h.configs.Load(h.ctx)
	if !cfg.CompactMode {
		t.Fatal("compact mode not persisted")
	}
	st := h.eng.Snapshot().Status
	if st.State != domain.StatusSaved {
		t.Fatalf("expected saved status, got %s", st.State)
	}

	h.fake.Advance(domain.StatusTTL)
	if h.eng.Snapshot().Status.State != domain.StatusIdle {
		t.Fatal("saved status should clear after its TTL")
	}
}

func TestConfigWriteFailureKeepsMemory(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	fake := clock.NewFake(time.Now())
	orders := storage.NewMemoryBuildOrders(log, nil, scenarioOrder("bo", "0:10"))
	eng := New(orders, &failingConfig{cfg: domain.DefaultConfig()}, log, WithClock(fake))
	ctx := context.Background()
	eng.Load(ctx)

	err := eng.Dispatch(ctx, domain.Action{Type: domain.ActionToggleClickThrough})
	if !errors.Is(err, domain.ErrIO) {
		t.Fatalf("expected io error, got %v", err)
	}
	if eng.Config().ClickThrough != !domain.DefaultConfig().ClickThrough {
		t.Fatal("in-memory config should still be toggled")
	}
	st := eng.Snapshot().Status
	if st.State != domain.StatusError || st.Kind != domain.KindIO {
		t.Fatalf("expected io error status, got %+v", st)
	}
}

func TestAutoAdvance(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.AutoAdvance = domain.AutoAdvanceConfig{Enabled: true, DelaySeconds: 5}
	h := setupEngine(t, cfg)
	h.eng.TogglePause()

	h.fake.Advance(49 * time.Second)
	h.eng.Tick(h.ctx, h.eng.Token())
	if h.eng.Cursor().StepIndex != 0 {
		t.Fatal("advanced before timing + delay")
	}
	h.fake.Advance(time.Second)
	h.eng.Tick(h.ctx, h.eng.Token())
	if h.eng.Cursor().StepIndex != 1 {
		t.Fatal("expected auto-advance at 0:50")
	}
}

func TestRemindersViaTick(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Reminders.Enabled = true
	h := setupEngine(t, cfg)
	h.eng.TogglePause()

	for s := 1; s <= 25; s++ {
		h.fake.Advance(time.Second)
		h.eng.Tick(h.ctx, h.eng.Token())
	}
	if len(h.notifier.messages) != 1 || h.notifier.messages[0] != "Keep queuing villagers" {
		t.Fatalf("expected villager reminder at 25s, got %v", h.notifier.messages)
	}
}

func TestPauseFreezesElapsed(t *testing.T) {
	h := setupEngine(t, domain.DefaultConfig())
	h.eng.TogglePause()
	h.fake.Advance(10 * time.Second)

	if err := h.eng.Dispatch(h.ctx, domain.Action{Type: domain.ActionTogglePause}); err != nil {
		t.Fatal(err)
	}
	h.fake.Advance(time.Minute)
	snap := h.eng.Snapshot()
	if !snap.Paused || snap.Elapsed != 10 {
		t.Fatalf("expected paused at 10, got paused=%v elapsed=%d", snap.Paused, snap.Elapsed)
	}
}

func TestVolumeFollowsConfig(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Metronome.Volume = 0.25
	h := setupEngine(t, cfg)
	if h.cues.volume != 0.25 {
		t.Fatalf("expected volume 0.25, got %f", h.cues.volume)
	}
}
