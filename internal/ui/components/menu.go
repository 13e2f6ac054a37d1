package components

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/waypoint/internal/ui/theme"
)

var (
	menuUp     = key.NewBinding(key.WithKeys("up", "k"))
	menuDown   = key.NewBinding(key.WithKeys("down", "j"))
	menuFirst  = key.NewBinding(key.WithKeys("home", "g"))
	menuLast   = key.NewBinding(key.WithKeys("end", "G"))
	menuChoose = key.NewBinding(key.WithKeys("enter"))
)

// MenuItem is one row of a Menu. Disabled rows are shown dimmed and
// skipped by the cursor.
type MenuItem struct {
	Label    string
	Detail   string // dim second line, optional
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list with a cursor.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu places the cursor on the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.seek(0, 1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// seek moves the cursor to the first enabled item at or after from,
// stepping by dir. The cursor stays put when there is none.
func (m *Menu) seek(from, dir int) {
	for i := from; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

// Update moves the cursor or runs the selected item's action.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(kmsg, menuUp):
		m.seek(m.Selected-1, -1)
	case key.Matches(kmsg, menuDown):
		m.seek(m.Selected+1, 1)
	case key.Matches(kmsg, menuFirst):
		m.seek(0, 1)
	case key.Matches(kmsg, menuLast):
		m.seek(len(m.Items)-1, -1)
	case key.Matches(kmsg, menuChoose):
		if m.Selected < 0 || m.Selected >= len(m.Items) {
			return m, nil
		}
		if item := m.Items[m.Selected]; item.Action != nil && !item.Disabled {
			return m, item.Action()
		}
	}
	return m, nil
}

func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		marker, style := "    ", theme.Unselected
		if item.Disabled {
			style = theme.Locked
		} else if i == m.Selected {
			marker, style = "  ▸ ", theme.Selected
		}
		b.WriteString(style.Render(marker+item.Label) + "\n")
		if item.Detail != "" {
			b.WriteString(theme.Subtitle.Render("      "+item.Detail) + "\n")
		}
	}
	return b.String()
}
