package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#2190ff", Dark: "#2190ff"}
	dim    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	danger = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	okay   = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	labelStyle = lipgloss.NewStyle()
	focusLabel = lipgloss.NewStyle().Foreground(accent)
	errorStyle = lipgloss.NewStyle().Foreground(danger).PaddingLeft(2)
	mutedStyle = lipgloss.NewStyle().Foreground(dim)
	linkStyle  = lipgloss.NewStyle().Foreground(accent)
	doneStyle  = lipgloss.NewStyle().Foreground(okay)
)

// ButtonStyle returns the style of the submit control. A disabled button is
// dimmed.
func ButtonStyle(focused, disabled bool) lipgloss.Style {
	s := lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder())
	switch {
	case disabled:
		return s.Foreground(dim).BorderForeground(dim)
	case focused:
		return s.Bold(true).Foreground(accent).BorderForeground(accent)
	default:
		return s.BorderForeground(lipgloss.AdaptiveColor{Light: "240", Dark: "240"})
	}
}

// marker returns the focus indicator placed before a control.
func marker(focused bool) string {
	if focused {
		return focusLabel.Render("›") + " "
	}
	return "  "
}
