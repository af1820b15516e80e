package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/buildpace/internal/domain"
	"github.com/hammamikhairi/buildpace/internal/engine"
	"github.com/hammamikhairi/buildpace/internal/signals"
)

// distributionWidth is the width of the villager bar in cells.
const distributionWidth = 20

// render draws the overlay for one snapshot. Pure, so it can be tested
// without a terminal.
func render(s engine.Snapshot, width int, now time.Time) string {
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(barBg.Width(width).Render(header(s, now)))
	b.WriteByte('\n')

	switch s.State {
	case domain.StateIdle:
		b.WriteString(secondaryStyle.Render("  No build order selected. Add one with `buildpace import`."))
		b.WriteByte('\n')
		return b.String()
	case domain.StateCompleted:
		b.WriteString(activeStepStyle.Render("  Build order complete."))
		b.WriteByte('\n')
	}

	if line := branches(s); line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for _, v := range visibleSteps(s) {
		b.WriteString(stepLine(v))
		b.WriteByte('\n')
		if v.Position == domain.StepActive && len(v.Distribution) > 0 && !s.CompactMode {
			b.WriteString("     " + distributionBar(v.Distribution, distributionWidth))
			b.WriteString(" " + secondaryStyle.Render(resourceSummary(v.Step.Resources)))
			b.WriteByte('\n')
		}
	}

	if line := badges(s.Badges); line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if line := metronome(s.Metronome, now); line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func header(s engine.Snapshot, now time.Time) string {
	parts := []string{titleStyle.Render(orderTitle(s))}

	clock := clockStyle.Render(s.Clock)
	switch {
	case !s.Running:
		clock = pausedStyle.Render(s.Clock + " (stopped)")
	case s.Paused:
		clock = pausedStyle.Render(s.Clock + " (paused)")
	}
	parts = append(parts, clock)

	if s.StepCount > 0 {
		idx := s.StepIndex + 1
		if idx > s.StepCount {
			idx = s.StepCount
		}
		parts = append(parts, labelStyle.Render(fmt.Sprintf("step %d/%d", idx, s.StepCount)))
	}

	if s.Delta != "" {
		style, ok := paceStyles[s.Pace]
		if !ok {
			style = labelStyle
		}
		pace := style.Render(fmt.Sprintf("%s %s", s.Pace, s.DeltaCompact))
		if s.Drift.Enabled && s.Drift.Accumulated != 0 {
			pace += labelStyle.Render(fmt.Sprintf(" (drift %+ds)", s.Drift.Accumulated))
		}
		parts = append(parts, pace)
	}

	if s.Status.Visible(now) {
		text := s.Status.State.String()
		if s.Status.State == domain.StatusError {
			text = fmt.Sprintf("%s: %s", s.Status.Kind, s.Status.Message)
		}
		parts = append(parts, statusStyles[s.Status.State].Render(text))
	}

	return " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "
}

func orderTitle(s engine.Snapshot) string {
	if s.OrderName == "" {
		return "buildpace"
	}
	title := s.OrderName
	if s.Civilization != "" {
		title += " (" + s.Civilization + ")"
	}
	return title
}

func branches(s engine.Snapshot) string {
	if len(s.Branches) == 0 {
		return ""
	}
	opts := []string{labelStyle.Render("0 main")}
	if s.BranchID == "" {
		opts[0] = activeStepStyle.Render("0 main")
	}
	for _, br := range s.Branches {
		label := fmt.Sprintf("%d %s", br.Slot, br.Name)
		if br.Trigger != "" {
			label += ": " + br.Trigger
		}
		if br.Active {
			opts = append(opts, activeStepStyle.Render(label))
		} else {
			opts = append(opts, labelStyle.Render(label))
		}
	}
	return "  " + strings.Join(opts, sepStyle.Render(" · "))
}

// visibleSteps trims the list around the cursor. Compact mode shows only
// the active step and the next one.
func visibleSteps(s engine.Snapshot) []engine.StepView {
	before, after := 1, 4
	if s.CompactMode {
		before, after = 0, 1
	}
	lo := s.StepIndex - before
	if lo < 0 {
		lo = 0
	}
	hi := s.StepIndex + after + 1
	if hi > len(s.Steps) {
		hi = len(s.Steps)
	}
	if lo >= hi {
		return nil
	}
	return s.Steps[lo:hi]
}

func stepLine(v engine.StepView) string {
	tm := v.Timing
	if tm == "" {
		tm = "  -  "
	}
	tm = fmt.Sprintf("%5s", tm)

	switch v.Position {
	case domain.StepPast:
		return secondaryStyle.Render(fmt.Sprintf("  ✓ %s  %s", tm, v.Step.Description))
	case domain.StepActive:
		return activeStepStyle.Render(fmt.Sprintf("  ▶ %s  %s", tm, v.Step.Description))
	default:
		if v.Adjusted {
			return "    " + adjustedStyle.Render(tm) + "  " + primaryStyle.Render(v.Step.Description)
		}
		return primaryStyle.Render(fmt.Sprintf("    %s  %s", tm, v.Step.Description))
	}
}

// distributionBar draws proportional coloured blocks. Rounding leftovers
// go to the largest segment so the bar is always exactly width cells.
func distributionBar(segs []domain.Segment, width int) string {
	if len(segs) == 0 || width <= 0 {
		return ""
	}
	cells := make([]int, len(segs))
	used, largest := 0, 0
	for i, sg := range segs {
		cells[i] = int(sg.Percent * float64(width) / 100)
		used += cells[i]
		if sg.Percent > segs[largest].Percent {
			largest = i
		}
	}
	cells[largest] += width - used

	var b strings.Builder
	for i, sg := range segs {
		if cells[i] <= 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(resourceColors[sg.Kind])
		b.WriteString(style.Render(strings.Repeat("█", cells[i])))
	}
	return b.String()
}

func resourceSummary(r *domain.Resources) string {
	if r == nil {
		return ""
	}
	var parts []string
	add := func(label string, n int) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", label, n))
		}
	}
	add("food", r.Food)
	add("wood", r.Wood)
	add("gold", r.Gold)
	add("stone", r.Stone)
	add("builders", r.Builders)
	if r.Villagers > 0 {
		parts = append(parts, fmt.Sprintf("(%d vils)", r.Villagers))
	}
	return strings.Join(parts, " ")
}

func badges(views []signals.BadgeView) string {
	if len(views) == 0 {
		return ""
	}
	var out []string
	for _, v := range views {
		name := v.Badge.ShortName
		if name == "" {
			name = v.Badge.Name
		}
		if v.Urgent {
			out = append(out, urgentBadgeStyle.Render(name))
		} else {
			out = append(out, badgeStyle.Render(name))
		}
	}
	return "  " + strings.Join(out, " ")
}

func metronome(v signals.MetronomeView, now time.Time) string {
	if !v.Enabled {
		return ""
	}
	pulsing := !v.LastTickAt.IsZero() && now.Sub(v.LastTickAt) < signals.PulseWindow
	dot := secondaryStyle.Render("○")
	if pulsing {
		dot = pulseStyle.Render("●")
	}
	line := fmt.Sprintf("  %s %s", dot, labelStyle.Render(fmt.Sprintf("every %ds", v.Interval)))
	if v.NextTask != "" {
		line += secondaryStyle.Render("  next: " + v.NextTask)
	}
	return line
}
