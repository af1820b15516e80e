package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDistribution(t *testing.T) {
	tests := []struct {
		name  string
		res   *Resources
		want  []float64
		kinds []ResourceKind
	}{
		{"nil snapshot", nil, nil, nil},
		{"all zero", &Resources{}, nil, nil},
		{"food and wood", &Resources{Food: 10, Wood: 10}, []float64{50, 50}, []ResourceKind{ResourceFood, ResourceWood}},
		{"all four equal", &Resources{Food: 3, Wood: 3, Gold: 3, Stone: 3}, []float64{25, 25, 25, 25},
			[]ResourceKind{ResourceFood, ResourceWood, ResourceGold, ResourceStone}},
		{"gold only", &Resources{Gold: 7, Villagers: 20}, []float64{100}, []ResourceKind{ResourceGold}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := tt.res.Distribution()
			if len(segs) != len(tt.want) {
				t.Fatalf("expected %d segments, got %d", len(tt.want), len(segs))
			}
			for i, s := range segs {
				if s.Percent != tt.want[i] {
					t.Fatalf("segment %d: expected %.2f%%, got %.2f%%", i, tt.want[i], s.Percent)
				}
				if s.Kind != tt.kinds[i] {
					t.Fatalf("segment %d: expected %s, got %s", i, tt.kinds[i], s.Kind)
				}
			}
		})
	}
}

func validOrder() *BuildOrder {
	return &BuildOrder{
		ID:           "english-fast-feudal",
		Name:         "English Fast Feudal",
		Civilization: "English",
		Difficulty:   "Beginner",
		Enabled:      true,
		Steps: []Step{
			{ID: "s1", Description: "Villagers to sheep", Timing: "0:00"},
			{ID: "s2", Description: "House", Timing: "0:45"},
		},
		Branches: []Branch{
			{ID: "vs-rush", Name: "Versus rush", StartStepIndex: 1, Steps: []Step{
				{ID: "b1", Description: "Palisade"},
				{ID: "b2", Description: "Spearmen"},
			}},
		},
	}
}

func TestValidateBuildOrder(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *BuildOrder)
		wantErr string
	}{
		{"valid", func(o *BuildOrder) {}, ""},
		{"empty id", func(o *BuildOrder) { o.ID = "" }, "id is required"},
		{"bad id chars", func(o *BuildOrder) { o.ID = "bad id" }, "may only contain"},
		{"long id", func(o *BuildOrder) { o.ID = strings.Repeat("a", 65) }, "max length"},
		{"no steps", func(o *BuildOrder) { o.Steps = nil }, "at least one step"},
		{"blank description", func(o *BuildOrder) { o.Steps[1].Description = "  " }, "missing a description"},
		{"duplicate step id", func(o *BuildOrder) { o.Steps[1].ID = "s1" }, "reuses id"},
		{"negative resources", func(o *BuildOrder) { o.Steps[0].Resources = &Resources{Wood: -1} }, "negative"},
		{"branch index out of range", func(o *BuildOrder) { o.Branches[0].StartStepIndex = 2 }, "out of range"},
		{"branch without steps", func(o *BuildOrder) { o.Branches[0].Steps = nil }, "has no steps"},
		{"duplicate branch", func(o *BuildOrder) { o.Branches = append(o.Branches, o.Branches[0]) }, "duplicate branch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(o)
			err := ValidateBuildOrder(o)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	o := validOrder()
	o.Steps[0].Resources = &Resources{Food: 6}
	c := o.Clone()

	c.Steps[0].Resources.Food = 99
	c.Branches[0].Steps[0].Description = "changed"

	if o.Steps[0].Resources.Food != 6 {
		t.Fatal("clone shares resources with original")
	}
	if o.Branches[0].Steps[0].Description != "Palisade" {
		t.Fatal("clone shares branch steps with original")
	}
}

func TestKindOfAndStatus(t *testing.T) {
	now := time.Now()
	err := ValidateBuildOrderID("")
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation kind, got %s", KindOf(err))
	}

	st := StatusFromError(err, now)
	if !st.Visible(now.Add(time.Second)) {
		t.Fatal("error status should be visible within TTL")
	}
	if st.Visible(now.Add(StatusTTL)) {
		t.Fatal("error status should auto-clear after TTL")
	}
	if !(Status{State: StatusSaving, At: now}).Visible(now.Add(time.Hour)) {
		t.Fatal("saving status should not auto-clear")
	}
}

func TestNormalizeClampsMetronome(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metronome.IntervalSeconds = 2
	cfg.Metronome.Volume = 3
	cfg.Normalize()
	if cfg.Metronome.IntervalSeconds != MinMetronomeInterval {
		t.Fatalf("expected interval clamped to %d, got %d", MinMetronomeInterval, cfg.Metronome.IntervalSeconds)
	}
	if cfg.Metronome.Volume != 1 {
		t.Fatalf("expected volume clamped to 1, got %f", cfg.Metronome.Volume)
	}

	cfg.Metronome.IntervalSeconds = 600
	cfg.Normalize()
	if cfg.Metronome.IntervalSeconds != MaxMetronomeInterval {
		t.Fatalf("expected interval clamped to %d, got %d", MaxMetronomeInterval, cfg.Metronome.IntervalSeconds)
	}
}
