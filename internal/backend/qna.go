package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// JobDescription is an inline job description used when no stored JD is picked.
type JobDescription struct {
	Title            string   `json:"title,omitempty" mapstructure:"title" yaml:"title"`
	Location         string   `json:"location,omitempty" mapstructure:"location" yaml:"location"`
	Type             string   `json:"type,omitempty" mapstructure:"type" yaml:"type"`
	Responsibilities []string `json:"responsibilities,omitempty" mapstructure:"responsibilities" yaml:"responsibilities"`
	Requirements     []string `json:"requirements,omitempty" mapstructure:"requirements" yaml:"requirements"`
}

// StartRequest carries the interview context. Either JobDescription or the
// JDID/CVID pair must be set.
type StartRequest struct {
	JobDescription *JobDescription `json:"job_description,omitempty"`
	JDID           string          `json:"jd_id,omitempty"`
	CVID           string          `json:"cv_id,omitempty"`
}

func (r StartRequest) Validate() error {
	if r.JobDescription != nil {
		return nil
	}
	if strings.TrimSpace(r.JDID) == "" || strings.TrimSpace(r.CVID) == "" {
		return fmt.Errorf("either a job description or both jd_id and cv_id are required")
	}
	return nil
}

// Reply holds the interviewer's reply segments. The backend sends either a
// single string or an array of strings. Blank segments are dropped in both
// forms, so every segment becomes a visible message.
type Reply []string

func (r *Reply) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*r = nil
			return nil
		}
		*r = Reply{s}
		return nil
	}

	var segments []string
	if err := json.Unmarshal(data, &segments); err != nil {
		return fmt.Errorf("reply must be a string or an array of strings: %w", err)
	}

	kept := segments[:0]
	for _, seg := range segments {
		if strings.TrimSpace(seg) != "" {
			kept = append(kept, seg)
		}
	}
	*r = kept
	return nil
}

// Progress is the backend's question counter. CurrentIdx is reported by the
// backend and never computed locally.
type Progress struct {
	CurrentIdx int `json:"current_idx"`
	Total      int `json:"total"`
}

type StartResponse struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Reply     Reply     `json:"reply"`
	Question  *Progress `json:"question"`
}

type AnswerResponse struct {
	Role     string    `json:"role"`
	Reply    Reply     `json:"reply"`
	Question *Progress `json:"question"`
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// StartInterview opens a new interview session.
func (c *Client) StartInterview(ctx context.Context, req StartRequest) (*StartResponse, error) {
	const op = "start interview"

	if err := req.Validate(); err != nil {
		return nil, validationError(op, err.Error())
	}

	var resp StartResponse
	if err := c.doJSON(ctx, op, http.MethodPost, c.routeURL(pathStart), nil, req, &resp); err != nil {
		return nil, err
	}

	if strings.TrimSpace(resp.SessionID) == "" {
		return nil, &Error{Op: op, Kind: KindDecode, Message: "backend returned empty session_id"}
	}

	c.logger.Debug("interview started",
		zap.String("session_id", resp.SessionID),
		zap.Int("reply_segments", len(resp.Reply)),
	)

	return &resp, nil
}

// SubmitAnswer sends one answer for the session's current question.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer string) (*AnswerResponse, error) {
	const op = "submit answer"

	if strings.TrimSpace(sessionID) == "" {
		return nil, validationError(op, "session id is required")
	}

	var resp AnswerResponse
	body := answerRequest{SessionID: sessionID, Answer: answer}
	if err := c.doJSON(ctx, op, http.MethodPost, c.routeURL(pathAnswer), nil, body, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// EndSession asks the backend to drop the session.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	const op = "end session"

	if strings.TrimSpace(sessionID) == "" {
		return validationError(op, "session id is required")
	}

	var resp struct {
		Deleted *bool `json:"deleted"`
	}
	rawURL := c.routeURL(pathSession + url.PathEscape(sessionID))
	if err := c.doJSON(ctx, op, http.MethodDelete, rawURL, nil, nil, &resp); err != nil {
		return err
	}

	if resp.Deleted != nil && !*resp.Deleted {
		return &Error{Op: op, Kind: KindStatus, Message: "backend did not delete the session"}
	}

	return nil
}
