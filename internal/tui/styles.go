package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorActiveBdr = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#1F1A17"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorRed       = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	paneActiveStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorActiveBdr).
			Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Bold(true)

	traitNameStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	traitSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	sliderFilledStyle = lipgloss.NewStyle().
				Foreground(colorPrimary)

	sliderEmptyStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	noticeOKStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	noticeFailStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	noticeTimeStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	outcomeStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	urlPromptStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	helpCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorActiveBdr).
			Padding(1, 3)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
