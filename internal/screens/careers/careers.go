// Package careers is the start screen: it lists imported careers, imports
// new roadmap documents and opens a career's roadmap.
package careers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/roadmap"
	"github.com/abhisek/waypoint/internal/router"
	"github.com/abhisek/waypoint/internal/screen"
	rmscreen "github.com/abhisek/waypoint/internal/screens/roadmap"
	"github.com/abhisek/waypoint/internal/ui/components"
	"github.com/abhisek/waypoint/internal/ui/layout"
	"github.com/abhisek/waypoint/internal/ui/theme"
)

const callTimeout = 30 * time.Second

// Deps are the collaborators of the careers screen.
type Deps struct {
	Catalog gateway.Catalog

	// Import stores a roadmap document. Nil hides the import item, as
	// with a remote backend.
	Import func(ctx context.Context, path string) (*gateway.Career, error)

	// NewEngine builds the engine for a loaded roadmap.
	NewEngine func(rm *roadmap.Roadmap) *progression.Engine

	// AutoOpen is a career id to open as soon as the list loads.
	AutoOpen string

	Logger *slog.Logger
}

type careersLoadedMsg struct {
	Careers []gateway.Career
	Err     error
}

type roadmapLoadedMsg struct {
	Roadmap *roadmap.Roadmap
	Err     error
}

type importedMsg struct {
	Career *gateway.Career
	Err    error
}

// Screen lists careers.
type Screen struct {
	deps      Deps
	careers   []gateway.Career
	menu      components.Menu
	loading   bool
	errMsg    string
	note      string
	importing bool
	input     components.TextInput
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.Resumer         = (*Screen)(nil)
)

// New creates the careers screen.
func New(deps Deps) *Screen {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Screen{deps: deps, loading: true}
	s.menu = components.NewMenu(s.items())
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.load()
}

// Resume reloads the list when coming back from a roadmap.
func (s *Screen) Resume() tea.Cmd {
	return s.load()
}

func (s *Screen) Title() string {
	return "Careers"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.importing {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Import"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case careersLoadedMsg:
		s.loading = false
		if msg.Err != nil {
			s.deps.Logger.Error("list careers", "err", msg.Err)
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.careers = msg.Careers
		s.menu = components.NewMenu(s.items())
		if id := s.deps.AutoOpen; id != "" {
			s.deps.AutoOpen = ""
			return s, s.open(id)
		}
		return s, nil

	case roadmapLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		next := rmscreen.New(s.deps.NewEngine(msg.Roadmap), s.deps.Logger)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case importedMsg:
		if msg.Err != nil {
			s.input.Err = msg.Err.Error()
			return s, nil
		}
		s.importing = false
		s.note = fmt.Sprintf("Imported %q with %d steps.", msg.Career.Title, msg.Career.StepCount)
		return s, s.load()

	case tea.KeyPressMsg:
		if s.importing {
			switch msg.String() {
			case "esc":
				s.importing = false
				return s, nil
			case "enter":
				return s, s.importDoc(s.input.Value())
			}
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, cmd
		}
		var cmd tea.Cmd
		s.menu, cmd = s.menu.Update(msg)
		return s, cmd
	}

	if s.importing {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) items() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(s.careers)+2)
	for _, c := range s.careers {
		id := c.ID
		detail := fmt.Sprintf("%d steps", c.StepCount)
		if c.Description != "" {
			detail += " · " + c.Description
		}
		items = append(items, components.MenuItem{
			Label:  c.Title,
			Detail: detail,
			Action: func() tea.Cmd { return s.open(id) },
		})
	}
	if s.deps.Import != nil {
		items = append(items, components.MenuItem{
			Label: "Import a roadmap…",
			Action: func() tea.Cmd {
				s.importing = true
				s.note = ""
				s.input = components.NewTextInput("path/to/roadmap.yaml", 512)
				return s.input.Init()
			},
		})
	}
	items = append(items, components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})
	return items
}

func (s *Screen) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		cs, err := s.deps.Catalog.ListCareers(ctx)
		return careersLoadedMsg{Careers: cs, Err: err}
	}
}

func (s *Screen) open(careerID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		rm, err := s.deps.Catalog.LoadRoadmap(ctx, careerID)
		if err != nil {
			err = fmt.Errorf("open career %s: %w", careerID, err)
		}
		return roadmapLoadedMsg{Roadmap: rm, Err: err}
	}
}

func (s *Screen) importDoc(path string) tea.Cmd {
	if path == "" {
		s.input.Err = "enter the path of a roadmap document"
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		c, err := s.deps.Import(ctx, path)
		return importedMsg{Career: c, Err: err}
	}
}

func (s *Screen) View(width, height int) string {
	cw := min(width-4, 80)

	var body string
	switch {
	case s.loading:
		body = theme.Hint.Render("Loading careers…")
	case s.importing:
		body = theme.Title.Render("Import a roadmap document") + "\n\n" + s.input.View()
	default:
		body = theme.Title.Render("Choose a career") + "\n\n"
		if len(s.careers) == 0 {
			body += theme.Hint.Render("No careers yet. Import a roadmap document to begin.") + "\n\n"
		}
		body += s.menu.View()
	}

	if s.note != "" && !s.importing {
		body += "\n" + theme.Done.Render(s.note)
	}
	if s.errMsg != "" {
		body += "\n" + theme.Failure.Width(cw).Render(s.errMsg)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Width(cw).Render(body))
}
