package tui

import "github.com/charmbracelet/lipgloss"

// Theme 定义回放视图的色彩和样式
// Theme defines colors and styles for the replay view
type Theme struct {
	Primary lipgloss.Color
	Danger  lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color
	Muted   lipgloss.Color

	TitleStyle   lipgloss.Style
	StatusStyle  lipgloss.Style
	ActionStyle  lipgloss.Style
	UnknownStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	MutedStyle   lipgloss.Style
}

// DarkTheme 暗色主题（默认）
// DarkTheme is the default dark theme
func DarkTheme() Theme {
	t := Theme{
		Primary: lipgloss.Color("#7C3AED"),
		Danger:  lipgloss.Color("#EF4444"),
		Warning: lipgloss.Color("#F59E0B"),
		Success: lipgloss.Color("#10B981"),
		Muted:   lipgloss.Color("#6B7280"),
	}

	t.TitleStyle = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.StatusStyle = lipgloss.NewStyle().Foreground(t.Muted)
	t.ActionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))
	t.UnknownStyle = lipgloss.NewStyle().Foreground(t.Warning)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(t.Danger).Bold(true)
	t.SuccessStyle = lipgloss.NewStyle().Foreground(t.Success)
	t.MutedStyle = lipgloss.NewStyle().Foreground(t.Muted)
	return t
}
