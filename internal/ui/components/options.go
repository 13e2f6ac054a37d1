package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/waypoint/internal/ui/theme"
)

// OptionList renders the options of one question. Chosen is the learner's
// answer or -1. When Reveal is set, the correct option is highlighted and
// a wrong choice is marked.
type OptionList struct {
	Options []string
	Cursor  int
	Chosen  int
	Reveal  bool
	Correct int
}

// View renders the numbered options.
func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		prefix := "  "
		if i == o.Cursor && !o.Reveal {
			prefix = "▸ "
		}
		mark := " "
		if i == o.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %d)  %s", prefix, mark, i+1, opt)

		style := theme.Unselected
		switch {
		case o.Reveal && i == o.Correct:
			style = theme.Correct
		case o.Reveal && i == o.Chosen:
			style = theme.Incorrect
		case o.Reveal:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == o.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
