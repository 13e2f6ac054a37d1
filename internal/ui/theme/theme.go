// Package theme holds the colors and styles shared by every screen.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Colors by role. Screens use the styles below; raw colors are for the
// few places that compose their own.
var (
	Primary = lipgloss.Color("#6366F1") // indigo: brand, cursor
	Calm    = lipgloss.Color("#14B8A6") // teal: progress
	Accent  = lipgloss.Color("#F59E0B") // amber: live timer, warnings
	Good    = lipgloss.Color("#22C55E")
	Bad     = lipgloss.Color("#F43F5E")
	Text    = lipgloss.Color("#F8FAFC")
	TextDim = lipgloss.Color("#94A3B8")
	Line    = lipgloss.Color("#334155")
)

var (
	Title    = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Subtitle = lipgloss.NewStyle().Foreground(TextDim)
	Body     = lipgloss.NewStyle().Foreground(Text)
	Hint     = lipgloss.NewStyle().Foreground(TextDim).Italic(true)
	Rule     = lipgloss.NewStyle().Foreground(Line)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Line).
		Padding(0, 1)
)

// Cursor and answer states.
var (
	Selected   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Unselected = lipgloss.NewStyle().Foreground(Text)
	Correct    = lipgloss.NewStyle().Foreground(Good).Bold(true)
	Incorrect  = lipgloss.NewStyle().Foreground(Bad).Bold(true)
)

// Step markers and the status line.
var (
	Locked   = lipgloss.NewStyle().Foreground(TextDim)
	Done     = lipgloss.NewStyle().Foreground(Good)
	Tracking = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	Warning  = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	Failure  = lipgloss.NewStyle().Foreground(Bad)
)

// Progress bar cells. Urgent replaces Filled in the last minute of an
// assessment.
var (
	ProgressFilled = lipgloss.NewStyle().Background(Calm)
	ProgressEmpty  = lipgloss.NewStyle().Background(Line)
	ProgressUrgent = lipgloss.NewStyle().Background(Bad)
)
