package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/logger"
)

func newFileStore(t *testing.T, opts ...FileOption) (*FileBuildOrders, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	opts = append([]FileOption{WithPublisher(pub)}, opts...)
	s, err := NewFileBuildOrders(t.TempDir(), logger.New(logger.LevelOff, nil), opts...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s, pub
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, pub := newFileStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, testOrder("b")); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, testOrder("a")); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "a.json")); err != nil {
		t.Fatalf("expected a.json: %v", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := pub.count(domain.EventBuildOrdersChanged); n != 3 {
		t.Fatalf("expected 3 change events, got %d", n)
	}
}

func TestFileStoreSkipsBadFiles(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, testOrder("good")); err != nil {
		t.Fatal(err)
	}

	files := map[string]string{
		"broken.json":  "{not json",
		"invalid.json": `{"id":"bad id!","steps":[{"id":"s","description":"x"}]}`,
		"notes.txt":    "ignored",
		"plan.yaml":    "id: from-yaml\nname: From YAML\nenabled: true\nsteps:\n  - id: s1\n    description: Build house\n    timing: \"0:20\"\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(s.Dir(), name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, o := range list {
		ids = append(ids, o.ID)
	}
	if strings.Join(ids, ",") != "from-yaml,good" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestFileStoreRejectsInvalidSave(t *testing.T) {
	s, pub := newFileStore(t)
	bad := testOrder("../escape")
	if err := s.Save(context.Background(), bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if pub.count(domain.EventBuildOrdersChanged) != 0 {
		t.Fatal("rejected save published an event")
	}
}

func TestImport(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIDs []string
		wantErr error
	}{
		{
			name:    "single json",
			data:    `{"id":"one","name":"One","enabled":true,"steps":[{"id":"s1","description":"Scout"}]}`,
			wantIDs: []string{"one"},
		},
		{
			name: "json array fills step ids",
			data: `[{"id":"x","name":"X","steps":[{"description":"a"}]},
			        {"id":"y","name":"Y","steps":[{"description":"b"}]}]`,
			wantIDs: []string{"x", "y"},
		},
		{
			name:    "yaml list",
			data:    "- id: ya\n  name: A\n  steps:\n    - description: go\n",
			wantIDs: []string{"ya"},
		},
		{
			name:    "duplicate within batch",
			data:    `[{"id":"d","steps":[{"id":"s","description":"a"}]},{"id":"d","steps":[{"id":"s","description":"a"}]}]`,
			wantErr: domain.ErrAlreadyExists,
		},
		{
			name:    "collides with existing",
			data:    `{"id":"existing","steps":[{"id":"s","description":"a"}]}`,
			wantErr: domain.ErrAlreadyExists,
		},
		{
			name:    "malformed",
			data:    `{"id":`,
			wantErr: domain.ErrParse,
		},
		{
			name:    "invalid order",
			data:    `{"id":"empty","steps":[]}`,
			wantErr: domain.ErrValidation,
		},
		{
			name:    "too large",
			data:    strings.Repeat(" ", MaxImportSize+1),
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, pub := newFileStore(t)
			ctx := context.Background()
			if err := s.Save(ctx, testOrder("existing")); err != nil {
				t.Fatal(err)
			}
			before := pub.count(domain.EventBuildOrdersChanged)

			ids, err := s.Import(ctx, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				list, _ := s.List(ctx)
				if len(list) != 1 {
					t.Fatalf("failed import wrote files: %d orders", len(list))
				}
				return
			}
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Fatalf("expected ids %v, got %v", tt.wantIDs, ids)
			}
			if pub.count(domain.EventBuildOrdersChanged) != before+1 {
				t.Fatal("expected exactly one change event for the import")
			}
			list, _ := s.List(ctx)
			for _, o := range list {
				for _, st := range o.Steps {
					if st.ID == "" {
						t.Fatalf("order %s has a step without id", o.ID)
					}
				}
			}
		})
	}
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	s, _ := newFileStore(t)
	ctx := context.Background()

	n, err := s.Seed(ctx, Builtins())
	if err != nil || n != len(Builtins()) {
		t.Fatalf("seed: n=%d err=%v", n, err)
	}
	n, err = s.Seed(ctx, Builtins())
	if err != nil || n != 0 {
		t.Fatalf("second seed should be a no-op: n=%d err=%v", n, err)
	}
}

func TestTOMLConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	pub := &recordingPublisher{}
	s := NewTOMLConfig(path, pub, logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	cfg, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("missing file should load defaults: %v", err)
	}
	if cfg.Hotkeys.NextStep != domain.DefaultConfig().Hotkeys.NextStep {
		t.Fatal("expected default hotkeys")
	}

	cfg.CompactMode = true
	cfg.Metronome.IntervalSeconds = 5
	if err := s.Save(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	if pub.count(domain.EventConfigChanged) != 1 {
		t.Fatal("expected one config event")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CompactMode {
		t.Error("compact mode not persisted")
	}
	if got.Metronome.IntervalSeconds != domain.MinMetronomeInterval {
		t.Errorf("expected interval clamped to %d, got %d", domain.MinMetronomeInterval, got.Metronome.IntervalSeconds)
	}
}

func TestTOMLConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "compact_mode = true\n\n[metronome]\nenabled = true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewTOMLConfig(path, nil, logger.New(logger.LevelOff, nil))
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	def := domain.DefaultConfig()
	if !cfg.CompactMode || !cfg.Metronome.Enabled {
		t.Fatal("file values not applied")
	}
	if cfg.Metronome.IntervalSeconds != def.Metronome.IntervalSeconds {
		t.Errorf("interval lost its default: %d", cfg.Metronome.IntervalSeconds)
	}
	if len(cfg.UpgradeBadges.Badges) != len(def.UpgradeBadges.Badges) {
		t.Errorf("badges lost their defaults: %d", len(cfg.UpgradeBadges.Badges))
	}
}

func TestTOMLConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("compact_mode = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewTOMLConfig(path, nil, logger.New(logger.LevelOff, nil))
	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestSQLiteHistory(t *testing.T) {
	h, err := OpenSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		rec := domain.SessionRecord{
			ID:             id,
			BuildOrderID:   "bo",
			BuildOrderName: "Build",
			StartedAt:      start.Add(time.Duration(i) * time.Minute),
			Steps: []domain.StepRecord{
				{StepID: "a", Description: "first", ExpectedTiming: "0:45", ActualSeconds: 50, DeltaSeconds: 5},
				{StepID: "b", Description: "second", ExpectedTiming: "1:30", ActualSeconds: 87, DeltaSeconds: -3},
			},
		}
		if err := h.Append(ctx, rec, 2); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	recs, err := h.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "s3" || recs[1].ID != "s2" {
		t.Fatalf("expected newest two sessions, got %+v", recs)
	}
	if len(recs[0].Steps) != 2 || recs[0].Steps[1].DeltaSeconds != -3 {
		t.Fatalf("steps not restored: %+v", recs[0].Steps)
	}
	if !recs[1].StartedAt.Equal(start.Add(time.Minute)) {
		t.Errorf("started_at mismatch: %v", recs[1].StartedAt)
	}

	one, err := h.List(ctx, 1)
	if err != nil || len(one) != 1 {
		t.Fatalf("limit not applied: %d %v", len(one), err)
	}

	if err := h.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	recs, _ = h.List(ctx, 0)
	if len(recs) != 0 {
		t.Fatalf("expected empty history, got %d", len(recs))
	}
}

func TestPollerReportsExternalChanges(t *testing.T) {
	s, _ := newFileStore(t)
	pub := &recordingPublisher{}
	p := NewPoller(pub, logger.New(logger.LevelOff, nil), time.Hour)
	p.Add(s.Dir(), domain.EventBuildOrdersChanged)

	p.Poll()
	if pub.count(domain.EventBuildOrdersChanged) != 0 {
		t.Fatal("unchanged dir reported a change")
	}

	body := `{"id":"ext","steps":[{"id":"s","description":"a"}]}`
	if err := os.WriteFile(filepath.Join(s.Dir(), "ext.json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p.Poll()
	if pub.count(domain.EventBuildOrdersChanged) != 1 {
		t.Fatal("external write not reported")
	}

	// Writes followed by Refresh are not reported again.
	if err := os.WriteFile(filepath.Join(s.Dir(), "own.json"), []byte(strings.Replace(body, "ext", "own", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	p.Refresh()
	p.Poll()
	if pub.count(domain.EventBuildOrdersChanged) != 1 {
		t.Fatal("refreshed write reported as external")
	}
}
