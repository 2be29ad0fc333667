package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Title     lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Thinking  lipgloss.Style
	Tool      lipgloss.Style
	Queue     lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Spinner   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Thinking:  lipgloss.NewStyle().Faint(true),
		Tool:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Queue:     lipgloss.NewStyle().Faint(true).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Help:      lipgloss.NewStyle().Faint(true),
		Spinner:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	}
}
