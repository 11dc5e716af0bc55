package main

import "github.com/charmbracelet/lipgloss"

type theme struct {
	Header    lipgloss.Style
	ActiveTab lipgloss.Style
	Tab       lipgloss.Style
	Danger    lipgloss.Style
	Input     lipgloss.Style
}

func defaultTheme() theme {
	accent := lipgloss.Color("#00FFFF")
	secondary := lipgloss.Color("#7D7D7D")
	danger := lipgloss.Color("#FF0055")

	return theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Tab: lipgloss.NewStyle().
			Foreground(secondary),
		Danger: lipgloss.NewStyle().
			Foreground(danger),
		Input: lipgloss.NewStyle().
			Foreground(accent),
	}
}
