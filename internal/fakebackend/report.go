package fakebackend

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spigell/interview-practice/internal/backend"
)

func (s *Server) report(c *gin.Context) {
	id := c.Query("session_id")
	sess, ok := s.lookup(id)
	if !ok {
		abortDetail(c, http.StatusNotFound, "session %s not found", id)
		return
	}

	c.JSON(http.StatusOK, score(sess.answers, len(s.cfg.Questions)))
}

func (s *Server) reportFromTranscript(c *gin.Context) {
	var req backend.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "invalid request body: %v", err)
		return
	}
	if len(req.ConversationHistory) == 0 {
		abortDetail(c, http.StatusUnprocessableEntity, "conversation_history must not be empty")
		return
	}

	var answers []string
	for _, m := range req.ConversationHistory {
		if m.Role == "user" {
			answers = append(answers, m.Content)
		}
	}

	c.JSON(http.StatusOK, score(answers, len(s.cfg.Questions)))
}

// score grades on answered questions and answer length. It only needs to be
// stable, not meaningful.
func score(answers []string, total int) backend.Report {
	answered := 0
	words := 0
	for _, a := range answers {
		if n := len(strings.Fields(a)); n > 0 {
			answered++
			words += n
		}
	}

	coverage := 0
	if total > 0 {
		coverage = min(answered*100/total, 100)
	}
	depth := 0
	if answered > 0 {
		depth = min(words/answered*5, 100)
	}

	r := backend.Report{
		TechnicalSkill: (coverage + depth) / 2,
		ProblemSolving: depth,
		Communication:  coverage,
		Experience:     (coverage*2 + depth) / 3,
		Pros:           []string{},
		Cons:           []string{},
	}
	r.OverallScore = (r.TechnicalSkill + r.ProblemSolving + r.Communication + r.Experience) / 4
	r.Passed = r.OverallScore >= 60

	if coverage == 100 {
		r.Pros = append(r.Pros, "Answered every question")
	} else {
		r.Cons = append(r.Cons, "Left questions unanswered")
	}
	if depth >= 50 {
		r.Pros = append(r.Pros, "Gave detailed answers")
	} else {
		r.Cons = append(r.Cons, "Answers were brief")
	}
	r.Summary = "Generated by the offline practice backend."

	return r
}
