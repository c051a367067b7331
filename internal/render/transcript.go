package render

import (
	"fmt"
	"strings"

	"github.com/spigell/interview-practice/internal/transcript"
)

// Speaker is the label shown for a role.
func Speaker(role transcript.Role) string {
	if role == transcript.RoleUser {
		return "You"
	}
	return "Interviewer"
}

func Message(m transcript.Message) string {
	style := interviewerStyle
	if m.Role == transcript.RoleUser {
		style = candidateStyle
	}

	return fmt.Sprintf("%s %s %s",
		dimStyle.Render("["+m.Timestamp+"]"),
		style.Render(Speaker(m.Role)+":"),
		m.Content,
	)
}

func Transcript(msgs []transcript.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, Message(m))
	}
	return strings.Join(lines, "\n")
}
