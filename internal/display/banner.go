package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the banner art and any hint lines as one block,
// centred for the current terminal width.
func RenderBanner(hints ...string) string {
	return renderBanner(termWidth(), hints...)
}

func renderBanner(width int, hints ...string) string {
	art := strings.TrimRight(bannerRaw, "\n")
	if art == "" {
		return ""
	}

	block := BannerStyle.Render(art)
	if len(hints) > 0 {
		hint := secondaryStyle.Render(strings.Join(hints, "\n"))
		block = lipgloss.JoinVertical(lipgloss.Center, block, "", hint)
	}
	if width <= lipgloss.Width(block) {
		return block + "\n"
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block) + "\n"
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
