package components

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/waypoint/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64 // 0..1
	Suffix  string  // shown after the bar
	Urgent  bool    // fills with the error color
	Width   int
}

// NewProgressBar creates a progress bar showing a percentage.
func NewProgressBar(label string, percent float64, width int) ProgressBar {
	return ProgressBar{
		Label:   label,
		Percent: percent,
		Suffix:  fmt.Sprintf("%d%%", int(clamp01(percent)*100)),
		Width:   width,
	}
}

// NewCountdown renders the time left of a limit. The bar turns urgent in
// the last fifth of the limit.
func NewCountdown(remaining, limit time.Duration, width int) ProgressBar {
	frac := 0.0
	if limit > 0 {
		frac = float64(remaining) / float64(limit)
	}
	return ProgressBar{
		Label:   "Time",
		Percent: frac,
		Suffix:  FormatClock(remaining),
		Urgent:  frac < 0.2,
		Width:   width,
	}
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string

	if p.Label != "" {
		result += lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	suffix := ""
	if p.Suffix != "" {
		suffix = "  " + p.Suffix
	}

	barWidth := p.Width - lipgloss.Width(result) - lipgloss.Width(suffix)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * clamp01(p.Percent))
	empty := barWidth - filled

	fill := theme.ProgressFilled
	if p.Urgent {
		fill = theme.ProgressUrgent
	}
	result += fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty))

	if suffix != "" {
		result += lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix)
	}
	return result
}

// FormatClock formats d as m:ss, rounding up to the next second.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// FormatMinutes renders a minute total as "1h 05m" or "42m".
func FormatMinutes(m int) string {
	if m >= 60 {
		return fmt.Sprintf("%dh %02dm", m/60, m%60)
	}
	return fmt.Sprintf("%dm", m)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
