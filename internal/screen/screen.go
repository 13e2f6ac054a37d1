package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/waypoint/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Leaver is implemented by screens holding state that must be settled when
// they leave the stack, such as a running tracking session.
type Leaver interface {
	// Leave returns a command run before the screen is discarded. It may
	// block; the program waits for it on quit.
	Leave() tea.Cmd
}

// Resumer is implemented by screens that restart work, such as timers,
// when they become the top of the stack again.
type Resumer interface {
	Resume() tea.Cmd
}

// StatusProvider is implemented by screens that show a status on the
// right of the header.
type StatusProvider interface {
	Status() string
}
