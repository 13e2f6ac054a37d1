package assessment

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	runner "github.com/abhisek/waypoint/internal/assessment"
	"github.com/abhisek/waypoint/internal/ui/components"
	"github.com/abhisek/waypoint/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	snap := s.engine.Runner().Snapshot()
	cw := min(width-4, 90)

	var body string
	switch {
	case snap.Phase == runner.PhaseShowingResult && snap.Attempt != nil && snap.Result != nil:
		body = s.renderResult(snap, cw)
	case (snap.Phase == runner.PhaseInProgress || snap.Phase == runner.PhaseSubmitting) && snap.Attempt != nil:
		body = s.renderQuestion(snap, cw)
	case snap.Phase == runner.PhaseLoading:
		body = theme.Hint.Render("Loading assessment…")
	default:
		body = theme.Hint.Render("No assessment is open. Press Esc to go back.")
	}

	if s.status != "" {
		style := theme.Warning
		if s.isError {
			style = theme.Failure
		}
		body += "\n\n" + style.Width(cw).Render(s.status)
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		lipgloss.NewStyle().Width(cw).PaddingTop(1).Render(body))
}

func (s *Screen) renderQuestion(snap runner.Snapshot, cw int) string {
	a := snap.Attempt
	total := len(a.Assessment.Questions)
	q := a.CurrentQuestion()

	var b strings.Builder

	info := fmt.Sprintf("Question %d of %d   ·   answered %d/%d   ·   pass mark %d%%",
		a.Current+1, total, len(a.Answers), total, a.Assessment.PassingScore)
	b.WriteString(theme.Subtitle.Render(info))
	b.WriteString("\n")

	if limit := a.Assessment.TimeLimit(); limit > 0 {
		b.WriteString(components.NewCountdown(snap.Remaining, limit, cw).View())
		b.WriteString("\n")
	}
	b.WriteString(theme.Rule.Render(strings.Repeat("─", cw)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Width(cw).Render(q.Text))
	b.WriteString("\n\n")

	chosen := -1
	if idx, ok := a.Answers[q.ID]; ok {
		chosen = idx
	}
	b.WriteString(components.OptionList{
		Options: q.Options,
		Cursor:  s.effectiveCursor(snap),
		Chosen:  chosen,
	}.View())

	switch {
	case snap.Phase == runner.PhaseSubmitting:
		b.WriteString("\n" + theme.Hint.Render("Submitting…"))
	case snap.Expired:
		b.WriteString("\n" + theme.Warning.Render("Time is up. Press s to submit what you have."))
	case snap.NeedsAnswer:
		b.WriteString("\n" + theme.Warning.Render("Answer this question first."))
	}
	return b.String()
}

func (s *Screen) renderResult(snap runner.Snapshot, cw int) string {
	res := snap.Result
	a := snap.Attempt

	var b strings.Builder
	verdict := theme.Incorrect.Render("NOT PASSED")
	if res.Passed {
		verdict = theme.Correct.Render("PASSED")
	}
	b.WriteString(fmt.Sprintf("%s   %s\n",
		verdict,
		theme.Subtitle.Render(fmt.Sprintf("%d of %d correct · pass mark %d%%",
			res.CorrectCount(), len(res.PerQuestion), a.Assessment.PassingScore))))
	b.WriteString(components.NewProgressBar("Score", float64(res.Score)/100, cw).View())
	b.WriteString("\n")
	b.WriteString(theme.Rule.Render(strings.Repeat("─", cw)))
	b.WriteString("\n")

	for i, qr := range res.PerQuestion {
		qi := a.Assessment.QuestionIndex(qr.QuestionID)
		if qi < 0 {
			continue
		}
		q := a.Assessment.Questions[qi]

		mark := theme.Correct.Render("✓")
		if !qr.Correct {
			mark = theme.Incorrect.Render("✗")
		}
		b.WriteString(fmt.Sprintf("\n%s %s\n", mark,
			lipgloss.NewStyle().Foreground(theme.Text).Width(cw-2).Render(fmt.Sprintf("%d. %s", i+1, q.Text))))

		if !qr.Correct && qr.CorrectOptionIndex >= 0 && qr.CorrectOptionIndex < len(q.Options) {
			yours := "no answer"
			if idx, ok := a.Answers[q.ID]; ok && idx < len(q.Options) {
				yours = q.Options[idx]
			}
			b.WriteString(theme.Failure.Render("  your answer: "+yours) + "\n")
			b.WriteString(theme.Done.Render("  correct: "+q.Options[qr.CorrectOptionIndex]) + "\n")
		}
		if qr.Explanation != "" {
			b.WriteString(theme.Hint.Width(cw-2).Render("  "+qr.Explanation) + "\n")
		}
	}
	return b.String()
}
