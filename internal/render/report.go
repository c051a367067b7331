package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spigell/interview-practice/internal/backend"
)

const barWidth = 20

// Bar draws a 0-100 score as a fixed-width bar.
func Bar(score int) string {
	score = max(0, min(score, 100))
	filled := score * barWidth / 100
	return successStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barWidth-filled))
}

func Report(r *backend.Report) string {
	if r == nil {
		return ""
	}

	verdict := errorStyle.Render("Not passed")
	if r.Passed {
		verdict = successStyle.Render("Passed")
	}

	rows := []struct {
		label string
		score int
	}{
		{"Overall", r.OverallScore},
		{"Technical skill", r.TechnicalSkill},
		{"Problem solving", r.ProblemSolving},
		{"Communication", r.Communication},
		{"Experience", r.Experience},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Interview report") + "  " + verdict + "\n\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "%-16s %s %3d\n", row.label, Bar(row.score), row.score)
	}

	if len(r.Pros) > 0 {
		b.WriteString("\n" + successStyle.Render("Strengths") + "\n")
		for _, p := range r.Pros {
			b.WriteString("  + " + p + "\n")
		}
	}
	if len(r.Cons) > 0 {
		b.WriteString("\n" + warningStyle.Render("To improve") + "\n")
		for _, c := range r.Cons {
			b.WriteString("  - " + c + "\n")
		}
	}
	if r.Summary != "" {
		b.WriteString("\n" + dimStyle.Render(r.Summary) + "\n")
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Documents lists stored CVs or job descriptions, one per line.
func Documents(title string, docs *backend.Documents) string {
	if docs == nil || docs.Len() == 0 {
		return dimStyle.Render("no " + title + " uploaded")
	}

	lines := []string{titleStyle.Render(title)}
	for _, d := range docs.Items {
		lines = append(lines, fmt.Sprintf("  %s  %s  %s",
			lipgloss.NewStyle().Bold(true).Render(d.ID),
			d.Name(),
			dimStyle.Render(d.UploadedAt),
		))
	}
	return strings.Join(lines, "\n")
}
