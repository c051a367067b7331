// Package fakebackend serves canned interview, speech, report and document
// routes over HTTP. It backs the serve command for offline dry runs and the
// end-to-end tests of the client packages.
package fakebackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/util"
)

const (
	DefaultGreeting   = "Welcome! Let's begin."
	DefaultTranscript = "This is a transcribed answer."
	defaultPrefix     = "/routes"
	defaultMailPrefix = "/api"
)

var DefaultQuestions = []string{
	"Tell me about a project you are proud of.",
	"How do you approach debugging a production incident?",
	"Describe a time you disagreed with a teammate and how it was resolved.",
}

type Config struct {
	Greeting     string        `mapstructure:"greeting"`
	Questions    []string      `mapstructure:"questions"`
	Transcript   string        `mapstructure:"transcript"`
	Latency      time.Duration `mapstructure:"latency"`
	AllowOrigins []string      `mapstructure:"allow-origins"`
	RoutesPrefix string        `mapstructure:"routes-prefix"`
	MailPrefix   string        `mapstructure:"mail-prefix"`
	Debug        bool          `mapstructure:"debug"`
}

type session struct {
	id       string
	current  int
	answers  []string
	finished bool
}

type Server struct {
	cfg    Config
	logger *zap.Logger
	engine *gin.Engine
	newID  func() string

	mu          sync.Mutex
	sessions    map[string]*session
	sessionNo   int
	audio       map[string]bool
	lastAudio   string
	docs        map[backend.Collection]*store
	invitations []Invitation
}

func New(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Greeting) == "" {
		cfg.Greeting = DefaultGreeting
	}
	if len(cfg.Questions) == 0 {
		cfg.Questions = DefaultQuestions
	}
	if strings.TrimSpace(cfg.Transcript) == "" {
		cfg.Transcript = DefaultTranscript
	}
	if cfg.RoutesPrefix == "" {
		cfg.RoutesPrefix = defaultPrefix
	}
	if cfg.MailPrefix == "" {
		cfg.MailPrefix = defaultMailPrefix
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		newID:    uuid.NewString,
		sessions: map[string]*session{},
		audio:    map[string]bool{},
		docs: map[backend.Collection]*store{
			backend.CollectionCV: newStore("CV", seedDocument("CV-001", "cv.pdf")),
			backend.CollectionJD: newStore("JD", seedDocument("JD-001", "jd.pdf")),
		},
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  s.cfg.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(s.latency())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group(s.cfg.RoutesPrefix)
	{
		api.POST("/qna/start", s.startInterview)
		api.POST("/qna/answer", s.answer)
		api.DELETE("/qna/:session_id", s.endSession)

		api.POST("/speech/voice", s.voice)
		api.POST("/speech/stt", s.speechToText)
		api.DELETE("/speech/audio", s.deleteAudio)

		api.GET("/report", s.report)
		api.POST("/report", s.reportFromTranscript)
	}

	router.Group(s.cfg.MailPrefix).POST("/send_confirmation", s.sendInvitation)

	for _, coll := range []backend.Collection{backend.CollectionCV, backend.CollectionJD} {
		st := s.docs[coll]
		group := router.Group("/" + string(coll))
		group.GET("", s.listDocuments(st))
		group.POST("", s.uploadDocument(st))
		group.GET("/:id", s.downloadDocument(st))
		group.DELETE("/:id", s.deleteDocument(st))
	}

	return router
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("fake backend listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down fake backend")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// latency delays every request to mimic a slow model behind the API.
func (s *Server) latency() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := util.WaitFor(c.Request.Context(), s.cfg.Latency); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func abortDetail(c *gin.Context, status int, format string, args ...any) {
	c.AbortWithStatusJSON(status, gin.H{"detail": fmt.Sprintf(format, args...)})
}

func abortError(c *gin.Context, status int, format string, args ...any) {
	c.AbortWithStatusJSON(status, gin.H{"error": fmt.Sprintf(format, args...)})
}
