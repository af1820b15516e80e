package main

import (
	"testing"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/engine"
)

func TestHeadlessLine(t *testing.T) {
	active := engine.Snapshot{
		State:     domain.StateActive,
		OrderName: "Fast Feudal",
		StepIndex: 1,
		StepCount: 3,
		Steps: []engine.StepView{
			{Step: domain.Step{Description: "Sheep"}},
			{Step: domain.Step{Description: "House"}},
		},
	}
	behind := active
	behind.Pace = domain.PaceBehind
	behind.Delta = "+0:15"
	behind.DeltaCompact = "+15s"

	tests := []struct {
		name string
		snap engine.Snapshot
		want string
	}{
		{"idle", engine.Snapshot{State: domain.StateIdle}, "idle"},
		{"completed", engine.Snapshot{State: domain.StateCompleted, OrderName: "Fast Feudal"}, "Fast Feudal complete"},
		{"active", active, "Fast Feudal step 2/3: House"},
		{"with delta", behind, "Fast Feudal step 2/3: House (behind +15s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headlessLine(tt.snap); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
