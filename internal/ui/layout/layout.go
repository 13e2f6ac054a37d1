// Package layout composes the application frame: header bar, content area
// and key-hint footer.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/waypoint/internal/ui/theme"
)

const (
	MinWidth  = 64
	MinHeight = 20

	// Below these the roadmap drops descriptions and detail columns.
	CompactWidthThreshold  = 100
	CompactHeightThreshold = 30
)

// KeyHint is one footer entry, e.g. {"s", "start"}.
type KeyHint struct {
	Key         string
	Description string
}

func IsCompactWidth(width int) bool   { return width < CompactWidthThreshold }
func IsCompactHeight(height int) bool { return height < CompactHeightThreshold }

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage fills the terminal with a centered resize request.
func RenderMinSizeMessage(width, height int) string {
	body := fmt.Sprintf("Waypoint needs at least %d×%d.\nThis terminal is %d×%d.",
		MinWidth, MinHeight, width, height)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		theme.Hint.Render(body))
}

// RenderHeader is a one-line bar: brand and screen title on the left, the
// screen's status on the right, underlined by a rule.
func RenderHeader(title, status string, width int) string {
	left := theme.Title.Render(" ◆ Waypoint")
	if title != "" {
		left += theme.Hint.Render("  /  ") + theme.Subtitle.Render(title)
	}
	right := theme.Tracking.Render(status + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Status wins over the title when space runs out.
		right = theme.Tracking.Render(truncate(status, width/2) + " ")
		gap = max(1, width-lipgloss.Width(left)-lipgloss.Width(right))
	}
	bar := left + strings.Repeat(" ", gap) + right
	return bar + "\n" + theme.Rule.Render(strings.Repeat("─", max(width, 0)))
}

// RenderFooter renders hints on one line, dropping trailing hints that do
// not fit.
func RenderFooter(hints []KeyHint, width int) string {
	sep := theme.Hint.Render("  ·  ")
	line := " "
	for i, h := range hints {
		part := theme.Body.Bold(true).Render(h.Key) + " " + theme.Hint.Render(h.Description)
		if i > 0 {
			part = sep + part
		}
		if lipgloss.Width(line+part) > width {
			break
		}
		line += part
	}
	return theme.Rule.Render(strings.Repeat("─", max(width, 0))) + "\n" + line
}

// RenderFrame stacks header, content and footer, padding or clipping the
// content so the footer sits on the last line.
func RenderFrame(header, content, footer string, width, height int) string {
	room := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	lines := strings.Split(content, "\n")
	if len(lines) > room {
		lines = lines[:room]
	}
	body := lipgloss.NewStyle().Width(width).Height(room).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:max(n, 0)])
	}
	return string(r[:n-1]) + "…"
}
