package tui

import "github.com/charmbracelet/lipgloss"

// Palette: teal for appointments, amber for anything that needs the
// user's attention before booking.
const (
	colorAppointment = lipgloss.Color("6")
	colorAttention   = lipgloss.Color("214")
	colorBooked      = lipgloss.Color("35")
	colorFailure     = lipgloss.Color("160")
	colorMuted       = lipgloss.Color("245")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAppointment).
			MarginBottom(1)

	referenceStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true).
			MarginBottom(1)

	appointmentBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorAppointment).
				Padding(0, 1)

	clarifyBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorAttention).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	departmentStyle = lipgloss.NewStyle().
			Foreground(colorAppointment).
			Bold(true)

	clarifyStyle = lipgloss.NewStyle().
			Foreground(colorAttention).
			Bold(true)

	conflictStyle = lipgloss.NewStyle().
			Foreground(colorAttention)

	bookedStyle = lipgloss.NewStyle().
			Foreground(colorBooked).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(colorFailure).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	keysStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)
)
