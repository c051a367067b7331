package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/spigell/interview-practice/internal/backend"
)

// Notifier prints user-facing outcomes as styled lines.
type Notifier struct {
	W io.Writer
}

func (n Notifier) Error(op string, err error) {
	fmt.Fprintln(n.W, errorStyle.Render("✗ "+op+" failed: ")+Describe(err))
}

func (n Notifier) Info(msg string) {
	fmt.Fprintln(n.W, warningStyle.Render(msg))
}

func (n Notifier) Success(msg string) {
	fmt.Fprintln(n.W, successStyle.Render("✓ "+msg))
}

// Describe turns an error into the text shown to the user. Backend errors
// show the server's message when it sent one.
func Describe(err error) string {
	var be *backend.Error
	if errors.As(err, &be) {
		switch {
		case be.Message != "":
			return be.Message
		case be.Kind == backend.KindNetwork:
			return "backend is unreachable"
		}
	}
	return err.Error()
}
