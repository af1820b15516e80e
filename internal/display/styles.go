package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/buildpace/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4e7")).
			Bold(true)

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	activeStepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Bold(true)

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	adjustedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fdba74"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#18181b")).
			Background(lipgloss.Color("#a5b4fc")).
			Padding(0, 1)

	urgentBadgeStyle = badgeStyle.
				Background(lipgloss.Color("#fca5a5"))

	pulseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0abfc")).
			Bold(true)
)

var paceStyles = map[domain.PaceStatus]lipgloss.Style{
	domain.PaceAhead:  lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac")),
	domain.PaceOnPace: lipgloss.NewStyle().Foreground(lipgloss.Color("#d4d4d8")),
	domain.PaceBehind: lipgloss.NewStyle().Foreground(lipgloss.Color("#fca5a5")),
}

var resourceColors = map[domain.ResourceKind]lipgloss.Color{
	domain.ResourceFood:  lipgloss.Color("#f87171"),
	domain.ResourceWood:  lipgloss.Color("#a16207"),
	domain.ResourceGold:  lipgloss.Color("#facc15"),
	domain.ResourceStone: lipgloss.Color("#a8a29e"),
}

var statusStyles = map[domain.StatusState]lipgloss.Style{
	domain.StatusSaving: secondaryStyle,
	domain.StatusSaved:  lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac")),
	domain.StatusError:  urgentStyle,
}
