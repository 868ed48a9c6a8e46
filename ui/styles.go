package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/tempotweak/job"
)

// Styling functions using lipgloss
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	ProcessingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	FocusedLabelStyle = LabelStyle.
				Foreground(lipgloss.Color("86")).
				Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 2).
			MarginTop(1)
)

// StatusStyle colors a status label the way the job state reads:
// green when idle or done, orange while running, red otherwise
func StatusStyle(state job.State) lipgloss.Style {
	switch state {
	case job.StateIdle, job.StateCompleted:
		return SuccessStyle
	case job.StateRunning:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
