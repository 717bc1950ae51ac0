package tui

import (
	"fmt"

	"github.com/GetMystAdmin/hot-pot/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(last *pipeline.Result, navigating bool, hints string, width int) string {
	left := " ready"
	switch {
	case navigating:
		left = " navigating..."
	case last != nil:
		left = fmt.Sprintf(" %s %s", last.Key, outcomeStyle.Render(last.Outcome.String()))
	}

	right := " " + hints + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return statusBarStyle.Width(width).Render(bar)
}
