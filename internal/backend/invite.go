package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	queryReceiver = "receiver"
	queryCVID     = "cv_id"
	queryJDID     = "jd_id"
)

var validate = validator.New()

// Invitation is the backend's acknowledgement of a sent interview invitation.
type Invitation struct {
	Message string `json:"message"`
}

// SendInvitation asks the backend to mail receiver an invitation to interview
// for the given CV and job description. Inputs are checked before any request
// is made.
func (c *Client) SendInvitation(ctx context.Context, receiver, cvID, jdID string) (*Invitation, error) {
	const op = "send invitation"

	receiver = strings.TrimSpace(receiver)
	if receiver == "" {
		return nil, validationError(op, "receiver email is required")
	}
	if err := validate.Var(receiver, "email"); err != nil {
		return nil, validationError(op, fmt.Sprintf("%q is not an email address", receiver))
	}
	if strings.TrimSpace(cvID) == "" || strings.TrimSpace(jdID) == "" {
		return nil, validationError(op, "cv id and jd id are required")
	}

	q := url.Values{}
	q.Set(queryReceiver, receiver)
	q.Set(queryCVID, cvID)
	q.Set(queryJDID, jdID)

	var inv Invitation
	if err := c.doJSON(ctx, op, http.MethodPost, c.mailURL(pathInvitation), q, nil, &inv); err != nil {
		return nil, err
	}

	c.logger.Debug("invitation sent", zap.String("cv_id", cvID), zap.String("jd_id", jdID))
	return &inv, nil
}
