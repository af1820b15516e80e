package drift

import (
	"testing"
	"time"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/timing"
)

func TestAccumulatesInAnyOrder(t *testing.T) {
	now := time.Now()
	orders := [][2]int{{5, -3}, {-3, 5}}
	for _, deltas := range orders {
		tr := New(true)
		for _, d := range deltas {
			tr.Record(100, 100+d, now)
		}
		if tr.Accumulated() != 2 {
			t.Fatalf("deltas %v: expected +2, got %d", deltas, tr.Accumulated())
		}
	}
}

func TestDisabledKeepsLastDeltaOnly(t *testing.T) {
	tr := New(false)
	tr.Record(45, 60, time.Now())
	if tr.Accumulated() != 0 {
		t.Fatalf("disabled tracker accumulated %d", tr.Accumulated())
	}
	if st := tr.State(); !st.HasDelta || st.LastDelta != 15 {
		t.Fatalf("expected last delta 15, got %+v", st)
	}
	if tr.Pace() != domain.PaceBehind {
		t.Fatalf("expected behind, got %s", tr.Pace())
	}
}

func TestSetEnabledFalseClears(t *testing.T) {
	tr := New(true)
	tr.Record(10, 20, time.Now())
	tr.SetEnabled(false)
	if tr.Accumulated() != 0 {
		t.Fatal("disabling should reset drift")
	}
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name  string
		drift int
		raw   string
		pos   domain.StepPosition
		want  Display
	}{
		{"future shifted", 5, "2:00", domain.StepFuture, Display{"2:05", true}},
		{"future shifted back", -30, "2:00", domain.StepFuture, Display{"1:30", true}},
		{"active untouched", 5, "2:00", domain.StepActive, Display{"2:00", false}},
		{"past untouched", 5, "2:00", domain.StepPast, Display{"2:00", false}},
		{"non-positive falls back", -200, "2:00", domain.StepFuture, Display{"2:00", false}},
		{"exactly zero falls back", -120, "2:00", domain.StepFuture, Display{"2:00", false}},
		{"garbled is sanitized", 0, " 1.30 ", domain.StepFuture, Display{"1:30", false}},
		{"garbled shifted", 10, "1.30", domain.StepFuture, Display{"1:40", true}},
		{"unusable", 5, "whenever", domain.StepFuture, Display{}},
		{"empty", 5, "", domain.StepFuture, Display{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(true)
			if tt.drift != 0 {
				tr.Record(0, tt.drift, time.Now())
			}
			got := tr.Adjust(tt.raw, tt.pos)
			if got != tt.want {
				t.Fatalf("Adjust(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

// Advancing 0:45 at 50s shifts the later 2:00 step to 2:05.
func TestScenarioFirstStepLate(t *testing.T) {
	steps := []string{"0:45", "1:30", "2:00"}

	for _, enabled := range []bool{true, false} {
		tr := New(enabled)
		expected, _ := timing.Parse(steps[0])
		tr.Record(expected, 50, time.Now())

		want := Display{Timing: "2:00"}
		if enabled {
			if tr.Accumulated() != 5 {
				t.Fatalf("expected drift +5, got %d", tr.Accumulated())
			}
			want = Display{Timing: "2:05", Adjusted: true}
		}
		if got := tr.Adjust(steps[2], domain.StepFuture); got != want {
			t.Fatalf("enabled=%v: got %+v, want %+v", enabled, got, want)
		}
	}
}

func TestPace(t *testing.T) {
	tests := map[int]domain.PaceStatus{
		-11: domain.PaceAhead,
		-10: domain.PaceOnPace,
		0:   domain.PaceOnPace,
		10:  domain.PaceOnPace,
		11:  domain.PaceBehind,
	}
	for delta, want := range tests {
		if got := Pace(delta); got != want {
			t.Errorf("Pace(%d) = %s, want %s", delta, got, want)
		}
	}
	if New(true).Pace() != domain.PaceUnknown {
		t.Fatal("fresh tracker should have unknown pace")
	}
}
