package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/leekHotline/seeforme/internal/lifecycle"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	advisoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	demoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

var statusStyles = map[lifecycle.Status]lipgloss.Style{
	lifecycle.StatusOpen:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	lifecycle.StatusClaimed:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	lifecycle.StatusReplied:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	lifecycle.StatusResolved:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	lifecycle.StatusUnresolved: lipgloss.NewStyle().Foreground(lipgloss.Color("166")),
	lifecycle.StatusCancelled:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

func statusBadge(s lifecycle.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render("[" + string(s) + "]")
}
