package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Report is the scored interview evaluation.
type Report struct {
	Passed         bool     `json:"passed" yaml:"passed"`
	OverallScore   int      `json:"overall_score" yaml:"overall_score"`
	TechnicalSkill int      `json:"technical_skill" yaml:"technical_skill"`
	ProblemSolving int      `json:"problem_solving" yaml:"problem_solving"`
	Communication  int      `json:"communication" yaml:"communication"`
	Experience     int      `json:"experience" yaml:"experience"`
	Pros           []string `json:"pros" yaml:"pros"`
	Cons           []string `json:"cons" yaml:"cons"`
	Summary        string   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

type Candidate struct {
	Name           string `json:"name" mapstructure:"name"`
	TargetPosition string `json:"target_position" mapstructure:"target-position"`
	ContactPhone   string `json:"contact_phone" mapstructure:"contact-phone"`
	EmailAddress   string `json:"email_address" mapstructure:"email-address"`
}

type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReportRequest asks for a report on an explicit transcript instead of a
// stored session.
type ReportRequest struct {
	Candidate           Candidate             `json:"candidate"`
	ConversationHistory []ConversationMessage `json:"conversation_history"`
}

// Report fetches the report for a finished session.
func (c *Client) Report(ctx context.Context, sessionID string) (*Report, error) {
	const op = "generate report"

	if strings.TrimSpace(sessionID) == "" {
		return nil, validationError(op, "session id is required")
	}

	q := url.Values{}
	q.Set(querySessionID, sessionID)

	var report Report
	if err := c.doJSON(ctx, op, http.MethodGet, c.routeURL(pathReport), q, nil, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// ReportFromTranscript posts a candidate and conversation for evaluation.
func (c *Client) ReportFromTranscript(ctx context.Context, req ReportRequest) (*Report, error) {
	const op = "generate report"

	if len(req.ConversationHistory) == 0 {
		return nil, validationError(op, "conversation history is empty")
	}

	var report Report
	if err := c.doJSON(ctx, op, http.MethodPost, c.routeURL(pathReport), nil, req, &report); err != nil {
		return nil, err
	}

	return &report, nil
}
