package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#5B8DEF")
	colorBrand  = lipgloss.Color("#FF6B6B")
	colorOK     = lipgloss.Color("#4CAF50")
	colorWarn   = lipgloss.Color("#F7B801")
	colorMuted  = lipgloss.Color("#888888")
	colorFaint  = lipgloss.Color("#444444")
	colorText   = lipgloss.Color("#CCCCCC")

	brandStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorBrand)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	labelStyle    = lipgloss.NewStyle().Foreground(colorMuted).Width(16)
	errorStyle    = lipgloss.NewStyle().Foreground(colorBrand)
	okStyle       = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	selectedStyle = lipgloss.NewStyle().Foreground(colorWarn)

	tabStyle       = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent).Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFaint).
			Padding(0, 1)
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)
	dangerDialogStyle = dialogStyle.BorderForeground(colorBrand)
)

// statusStyle colours an order status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "Completed":
		return lipgloss.NewStyle().Foreground(colorOK)
	case "InProgress":
		return lipgloss.NewStyle().Foreground(colorAccent)
	case "Canceled":
		return lipgloss.NewStyle().Foreground(colorBrand)
	default:
		return lipgloss.NewStyle().Foreground(colorWarn)
	}
}
