package fakebackend

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
)

const (
	ackReply      = "Thanks for your answer."
	finishedReply = "That was the last question. You can request your report now."
)

// qnaResponse mirrors the backend's loose reply field, which is either a
// string or an array of strings.
type qnaResponse struct {
	SessionID string           `json:"session_id,omitempty"`
	Role      string           `json:"role"`
	Reply     any              `json:"reply"`
	Question  backend.Progress `json:"question"`
}

type answerBody struct {
	SessionID string `json:"session_id" binding:"required"`
	Answer    string `json:"answer"`
}

func (s *Server) startInterview(c *gin.Context) {
	var req backend.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "invalid request body: %v", err)
		return
	}
	if err := req.Validate(); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "%v", err)
		return
	}
	if req.JobDescription == nil {
		if !s.docs[backend.CollectionJD].has(req.JDID) {
			abortDetail(c, http.StatusNotFound, "job description %s not found", req.JDID)
			return
		}
		if !s.docs[backend.CollectionCV].has(req.CVID) {
			abortDetail(c, http.StatusNotFound, "cv %s not found", req.CVID)
			return
		}
	}

	s.mu.Lock()
	s.sessionNo++
	sess := &session{id: fmt.Sprintf("S%d", s.sessionNo)}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("interview started", zap.String("session_id", sess.id))

	c.JSON(http.StatusOK, qnaResponse{
		SessionID: sess.id,
		Role:      "ai",
		Reply:     s.cfg.Greeting + "\n\n" + s.cfg.Questions[0],
		Question:  backend.Progress{CurrentIdx: 0, Total: len(s.cfg.Questions)},
	})
}

func (s *Server) answer(c *gin.Context) {
	var body answerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abortDetail(c, http.StatusUnprocessableEntity, "invalid request body: %v", err)
		return
	}

	total := len(s.cfg.Questions)

	s.mu.Lock()
	sess, ok := s.sessions[body.SessionID]
	if !ok {
		s.mu.Unlock()
		abortDetail(c, http.StatusNotFound, "session %s not found", body.SessionID)
		return
	}

	if sess.finished {
		current := sess.current
		s.mu.Unlock()
		c.JSON(http.StatusOK, qnaResponse{Role: "ai", Reply: finishedReply, Question: backend.Progress{CurrentIdx: current, Total: total}})
		return
	}

	sess.answers = append(sess.answers, body.Answer)
	sess.current++

	reply := []string{ackReply, finishedReply}
	if sess.current < total {
		reply[1] = s.cfg.Questions[sess.current]
	} else {
		sess.finished = true
	}
	current := sess.current
	s.mu.Unlock()

	c.JSON(http.StatusOK, qnaResponse{Role: "ai", Reply: reply, Question: backend.Progress{CurrentIdx: current, Total: total}})
}

func (s *Server) endSession(c *gin.Context) {
	id := c.Param("session_id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"deleted": ok})
}

func (s *Server) lookup(id string) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return session{}, false
	}
	cp := *sess
	cp.answers = append([]string(nil), sess.answers...)
	return cp, true
}
