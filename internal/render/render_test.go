package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/transcript"
)

func TestQuestionBadge(t *testing.T) {
	tests := []struct {
		current int
		total   int
		want    string
	}{
		{0, 0, ""},
		{0, 3, "Question 0/3"},
		{2, 3, "Question 2/3"},
		{5, 3, "Question 3/3"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.current, tt.total), func(t *testing.T) {
			require.Equal(t, tt.want, QuestionBadge(tt.current, tt.total))
		})
	}
}

func TestStatusLine(t *testing.T) {
	line := StatusLine(Status{Current: 1, Total: 3, Elapsed: "02:05", Countdown: "0:25", LowTime: true})
	require.Contains(t, line, "Question 1/3")
	require.Contains(t, line, "02:05")
	require.Contains(t, line, "0:25 left")

	require.Contains(t, StatusLine(Status{Recording: true, Locked: true}), "recording")
	require.Contains(t, StatusLine(Status{Locked: true}), "waiting")
	require.Contains(t, StatusLine(Status{Current: 3, Total: 3, Complete: true}), ":report")
	require.NotContains(t, StatusLine(Status{Current: 0, Total: 3}), "left")
}

func TestMessage(t *testing.T) {
	out := Transcript([]transcript.Message{
		{Role: transcript.RoleAI, Content: "Welcome", Timestamp: "10:30"},
		{Role: transcript.RoleUser, Content: "Hi", Timestamp: "10:31"},
	})

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "[10:30]")
	require.Contains(t, lines[0], "Interviewer:")
	require.Contains(t, lines[0], "Welcome")
	require.Contains(t, lines[1], "You:")
}

func TestReport(t *testing.T) {
	out := Report(&backend.Report{
		Passed:         true,
		OverallScore:   80,
		TechnicalSkill: 70,
		Pros:           []string{"Clear answers"},
		Cons:           []string{"Few examples"},
		Summary:        "Solid.",
	})

	require.Contains(t, out, "Passed")
	require.Contains(t, out, "Technical skill")
	require.Contains(t, out, "+ Clear answers")
	require.Contains(t, out, "- Few examples")
	require.Contains(t, out, "Solid.")
	require.Empty(t, Report(nil))
}

func TestBarClamps(t *testing.T) {
	require.Equal(t, barWidth, strings.Count(Bar(150), "█"))
	require.Equal(t, barWidth, strings.Count(Bar(-5), "░"))
	require.Equal(t, barWidth/2, strings.Count(Bar(50), "█"))
}

func TestDocuments(t *testing.T) {
	require.Contains(t, Documents("CVs", &backend.Documents{}), "no CVs uploaded")

	out := Documents("CVs", &backend.Documents{Items: []*backend.Document{
		{ID: "CV-001", Filename: "stored.pdf", OriginalFilename: "resume.pdf"},
	}})
	require.Contains(t, out, "CV-001")
	require.Contains(t, out, "resume.pdf")
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := Notifier{W: &buf}

	n.Error("submit answer", &backend.Error{Op: "submit answer", Kind: backend.KindStatus, Status: 500, Message: "model overloaded"})
	n.Error("start interview", &backend.Error{Op: "start interview", Kind: backend.KindNetwork, Err: errors.New("dial tcp")})
	n.Info(TimeUpNotice)

	out := buf.String()
	require.Contains(t, out, "submit answer failed: model overloaded")
	require.Contains(t, out, "backend is unreachable")
	require.Contains(t, out, TimeUpNotice)
}
