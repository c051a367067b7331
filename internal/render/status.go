package render

import (
	"fmt"
	"strings"
)

// TimeUpNotice is printed once when a question's countdown runs out.
const TimeUpNotice = "Time's up! But feel free to continue with your answer."

// Status is everything shown on the status line.
type Status struct {
	Current int
	Total   int
	Elapsed string
	// Countdown is empty when no question is being timed.
	Countdown string
	LowTime   bool
	Locked    bool
	Recording bool
	Complete  bool
}

// QuestionBadge shows progress capped at the total, e.g. "Question 3/3".
func QuestionBadge(current, total int) string {
	if total <= 0 {
		return ""
	}
	return fmt.Sprintf("Question %d/%d", min(current, total), total)
}

func StatusLine(s Status) string {
	parts := make([]string, 0, 5)

	if badge := QuestionBadge(s.Current, s.Total); badge != "" {
		parts = append(parts, titleStyle.Render(badge))
	}
	if s.Elapsed != "" {
		parts = append(parts, statusStyle.Render(s.Elapsed))
	}
	if s.Countdown != "" {
		style := statusStyle
		if s.LowTime {
			style = warningStyle
		}
		parts = append(parts, style.Render(s.Countdown+" left"))
	}

	switch {
	case s.Recording:
		parts = append(parts, errorStyle.Render("● recording"))
	case s.Locked:
		parts = append(parts, dimStyle.Render("waiting for interviewer..."))
	case s.Complete:
		parts = append(parts, successStyle.Render("interview complete, type :report"))
	}

	return strings.Join(parts, dimStyle.Render(" | "))
}
