package common

import "github.com/charmbracelet/lipgloss"

const (
	COLOR_GREY      = "241"
	COLOR_DARK_GREY = "238"
	COLOR_MAGENTA   = "170"
	COLOR_GREEN     = "42"
	COLOR_RED       = "160"
	COLOR_BLUE      = "69"
)

var (
	HelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_GREY)).Padding(0, 2)
	CaptionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(COLOR_MAGENTA)).Padding(2)
)

func DefaultWindowWidth(width int) int {
	return width - 10
}

func DefaultWindowHeight(height int) int {
	return height - 10
}
