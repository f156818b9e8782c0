package render

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	route   lipgloss.Style
	code    lipgloss.Style
	detail  lipgloss.Style
	past    lipgloss.Style
	failure lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
	key     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		route:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		code:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")).Border(lipgloss.RoundedBorder()).Padding(0, 1),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		past:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}
