package fakebackend

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
)

// Invitation is an invitation the fake backend accepted instead of mailing it.
type Invitation struct {
	Receiver string
	CVID     string
	JDID     string
}

type invitationQuery struct {
	Receiver string `form:"receiver" binding:"required,email"`
	CVID     string `form:"cv_id" binding:"required"`
	JDID     string `form:"jd_id" binding:"required"`
}

func (s *Server) sendInvitation(c *gin.Context) {
	var q invitationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortError(c, http.StatusUnprocessableEntity, "invalid invitation: %v", err)
		return
	}
	if !s.docs[backend.CollectionCV].has(q.CVID) {
		abortError(c, http.StatusNotFound, "cv %s not found", q.CVID)
		return
	}
	if !s.docs[backend.CollectionJD].has(q.JDID) {
		abortError(c, http.StatusNotFound, "jd %s not found", q.JDID)
		return
	}

	s.mu.Lock()
	s.invitations = append(s.invitations, Invitation(q))
	s.mu.Unlock()

	s.logger.Info("invitation recorded", zap.String("cv_id", q.CVID), zap.String("jd_id", q.JDID))
	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent to " + q.Receiver})
}

// Invitations lists the invitations accepted so far, oldest first.
func (s *Server) Invitations() []Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.invitations)
}
