package roadmap

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/waypoint/internal/progression"
	"github.com/abhisek/waypoint/internal/ui/components"
	"github.com/abhisek/waypoint/internal/ui/layout"
	"github.com/abhisek/waypoint/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	cw := min(width-4, 100)
	var b strings.Builder

	rm := s.engine.Roadmap()
	if rm.Description != "" && !layout.IsCompactHeight(height) {
		b.WriteString(theme.Subtitle.Width(cw).Render(rm.Description))
		b.WriteString("\n\n")
	}

	done := 0
	for _, v := range s.steps {
		if v.IsDone {
			done++
		}
	}
	if n := len(s.steps); n > 0 {
		b.WriteString(components.NewProgressBar("Completed", float64(done)/float64(n), cw).View())
		b.WriteString("\n")
	}
	b.WriteString(theme.Rule.Render(strings.Repeat("─", cw)))
	b.WriteString("\n")

	for i, v := range s.steps {
		b.WriteString(renderStep(v, i == s.cursor, cw))
		b.WriteString("\n")
	}

	if v, ok := s.selected(); ok && v.Description != "" && !layout.IsCompactWidth(width) {
		b.WriteString("\n")
		b.WriteString(theme.Card.Width(cw).Render(
			theme.Title.Render(v.Title) + "\n" + theme.Body.Render(v.Description)))
		b.WriteString("\n")
	}

	if s.status != "" {
		style := theme.Warning
		if s.isError {
			style = theme.Failure
		}
		b.WriteString("\n")
		b.WriteString(style.Width(cw).Render(s.status))
	} else if !s.loaded {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Loading progress…"))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		lipgloss.NewStyle().Width(cw).PaddingTop(1).Render(b.String()))
}

func renderStep(v progression.StepView, selected bool, cw int) string {
	prefix := "   "
	if selected {
		prefix = " ▸ "
	}

	marker, style := "○", theme.Unselected
	switch {
	case v.Tracking && v.Paused:
		marker, style = "⏸", theme.Tracking
	case v.Tracking:
		marker, style = "●", theme.Tracking
	case v.Locked:
		marker, style = "🔒", theme.Locked
	case v.IsDone:
		marker, style = "✓", theme.Done
	}
	if selected && !v.Locked {
		style = style.Bold(true)
	}

	left := style.Render(fmt.Sprintf("%s%s %d. %s", prefix, marker, v.Number, v.Title))

	var tags []string
	if v.HasAssessment {
		if v.AssessmentPassed {
			tags = append(tags, theme.Done.Render("passed"))
		} else {
			tags = append(tags, theme.Hint.Render("assessment"))
		}
	}
	minutes := components.FormatMinutes(v.AccumulatedMinutes)
	if v.Tracking {
		minutes += " +" + formatLive(v.LiveSeconds)
	}
	tags = append(tags, theme.Subtitle.Render(minutes))
	right := strings.Join(tags, "  ")

	gap := cw - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}
