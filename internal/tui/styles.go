package tui

import "charm.land/lipgloss/v2"

var (
	primary = lipgloss.Color("#8B5CF6")
	success = lipgloss.Color("#22C55E")
	failure = lipgloss.Color("#F43F5E")
	dim     = lipgloss.Color("#94A3B8")
	text    = lipgloss.Color("#F8FAFC")
	border  = lipgloss.Color("#334155")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primary)
	subtitleStyle = lipgloss.NewStyle().Foreground(dim)
	bodyStyle     = lipgloss.NewStyle().Foreground(text)
	hintStyle     = lipgloss.NewStyle().Foreground(dim).Italic(true)
	selectedStyle = lipgloss.NewStyle().Foreground(primary).Bold(true)
	correctStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
	wrongStyle    = lipgloss.NewStyle().Foreground(failure).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(failure)
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2)
)
