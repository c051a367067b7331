// Package transcript keeps the ordered chat turns of an interview.
package transcript

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAI   Role = "ai"
	RoleUser Role = "user"
)

// timestampLayout mirrors the hour:minute stamp shown next to each turn.
const timestampLayout = "15:04"

type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp string    `json:"timestamp" yaml:"timestamp"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ParseRole maps backend role strings to a Role. Anything that is not the
// user is treated as the interviewer.
func ParseRole(s string) Role {
	if Role(s) == RoleUser {
		return RoleUser
	}
	return RoleAI
}

// Factory builds messages with fresh ids and display timestamps.
type Factory struct {
	NewID func() string
	Now   func() time.Time
}

func NewFactory() Factory {
	return Factory{
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

// Build returns one message per content segment, in order.
func (f Factory) Build(role Role, contents ...string) []Message {
	newID := f.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := f.Now
	if now == nil {
		now = time.Now
	}

	msgs := make([]Message, 0, len(contents))
	for _, content := range contents {
		at := now()
		msgs = append(msgs, Message{
			ID:        newID(),
			Role:      role,
			Content:   content,
			Timestamp: at.Format(timestampLayout),
			CreatedAt: at,
		})
	}
	return msgs
}
