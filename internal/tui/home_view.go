package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var asciiLogo = []string{
	`█░█ █▀█ ▀█▀   █▀█ █▀█ ▀█▀`,
	`█▀█ █▄█ ░█░   █▀▀ █▄█ ░█░`,
}

func renderLogo(updateVersion string) string {
	logoStyle := lipgloss.NewStyle().Foreground(colorAccent)
	var lines []string
	for _, l := range asciiLogo {
		lines = append(lines, logoStyle.Render(l))
	}
	if updateVersion != "" {
		lines = append(lines, helpDimStyle.Render("update available: v"+updateVersion))
	}
	return strings.Join(lines, "\n")
}
