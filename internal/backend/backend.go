// Package backend is the JSON-over-HTTP client for the interview backend.
package backend

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRoutesPrefix = "/routes"
	defaultMailPrefix   = "/api"
	userAgent           = "spigell/interview-practice"

	pathStart      = "/qna/start"
	pathAnswer     = "/qna/answer"
	pathSession    = "/qna/"
	pathVoice      = "/speech/voice"
	pathSTT        = "/speech/stt"
	pathAudio      = "/speech/audio"
	pathReport     = "/report"
	pathCVs        = "/cv"
	pathJobs       = "/jd"
	pathInvitation = "/send_confirmation"
	queryAction    = "action"
	queryAudioPath = "audio_path"
	querySessionID = "session_id"
	actionStart    = "start"
	actionStop     = "stop"
	multipartField = "file"
)

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	// BaseURL is the backend origin, e.g. http://localhost:8000.
	BaseURL string
	// RoutesPrefix is mounted in front of the qna, speech and report routes.
	RoutesPrefix string
	// DocumentsPrefix is mounted in front of the cv and jd collections.
	DocumentsPrefix string
	// MailPrefix is mounted in front of the invitation route.
	MailPrefix string
}

func New(logger *zap.Logger, baseURL string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger:  logger,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		UserAgent:    userAgent,
		RoutesPrefix: defaultRoutesPrefix,
		MailPrefix:   defaultMailPrefix,
	}
}

// SetTimeout changes the per-request timeout. Non-positive values keep the default.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.HTTPClient.Timeout = d
}

func (c *Client) routeURL(path string) string {
	return c.BaseURL + normalizePrefix(c.RoutesPrefix) + path
}

func (c *Client) documentURL(path string) string {
	return c.BaseURL + normalizePrefix(c.DocumentsPrefix) + path
}

func (c *Client) mailURL(path string) string {
	return c.BaseURL + normalizePrefix(c.MailPrefix) + path
}

func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
