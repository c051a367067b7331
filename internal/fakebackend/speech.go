package fakebackend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) voice(c *gin.Context) {
	switch action := c.Query("action"); action {
	case "start":
		path := "/tmp/recording-" + s.newID() + ".wav"
		s.mu.Lock()
		s.audio[path] = true
		s.lastAudio = path
		s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"audio_path": path})
	case "stop":
		s.mu.Lock()
		path := s.lastAudio
		s.lastAudio = ""
		s.mu.Unlock()
		if path == "" {
			abortError(c, http.StatusConflict, "no recording in progress")
			return
		}
		c.JSON(http.StatusOK, gin.H{"audio_path": path})
	default:
		abortError(c, http.StatusBadRequest, "unknown action %q", action)
	}
}

func (s *Server) speechToText(c *gin.Context) {
	path := c.Query("audio_path")

	s.mu.Lock()
	ok := s.audio[path]
	s.mu.Unlock()
	if !ok {
		abortDetail(c, http.StatusNotFound, "audio file %s not found", path)
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": "user", "text": s.cfg.Transcript})
}

func (s *Server) deleteAudio(c *gin.Context) {
	path := c.Query("audio_path")

	s.mu.Lock()
	ok := s.audio[path]
	delete(s.audio, path)
	s.mu.Unlock()

	s.logger.Debug("audio deleted", zap.String("audio_path", path), zap.Bool("existed", ok))
	c.JSON(http.StatusOK, gin.H{"deleted": ok})
}

// PendingAudio returns how many recordings have not been deleted yet.
func (s *Server) PendingAudio() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audio)
}
