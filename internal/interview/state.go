// Package interview owns the interview session: its identity, question
// counters, message log and the interaction lock that serializes backend calls.
package interview

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spigell/interview-practice/internal/fsm"
	"github.com/spigell/interview-practice/internal/transcript"
)

var (
	ErrLocked         = errors.New("interaction is locked by a request in flight")
	ErrNotStarted     = errors.New("interview has not started")
	ErrAlreadyStarted = errors.New("interview already started")
	ErrEmptyAnswer    = errors.New("answer must not be empty")
	ErrClosed         = errors.New("interview controller is closed")
)

// State is the complete session state. Values are never mutated in place:
// Reduce returns a new State and leaves its input untouched.
type State struct {
	SessionID       string
	Phase           fsm.SessionPhase
	CurrentQuestion int
	TotalQuestions  int
	Locked          bool
	Messages        []transcript.Message
}

func NewState(welcome ...transcript.Message) State {
	return State{
		Phase:    fsm.PhaseNotStarted,
		Messages: transcript.Append(nil, welcome...),
	}
}

func (s State) clone() State {
	s.Messages = slices.Clone(s.Messages)
	return s
}

func (s State) Started() bool {
	return s.Phase == fsm.PhaseActive
}

// Complete reports whether the backend has reached the last question. It only
// unlocks the report; nothing transitions on it.
func (s State) Complete() bool {
	return s.TotalQuestions > 0 && s.CurrentQuestion >= s.TotalQuestions
}

// DisplayQuestion is the question number shown to the user, capped at the total.
func (s State) DisplayQuestion() int {
	return min(s.CurrentQuestion, s.TotalQuestions)
}

// Progress is the backend-reported question counter.
type Progress struct {
	Current int
	Total   int
}

// Event is one input to Reduce.
type Event interface {
	isEvent()
}

type StartRequested struct{}

type StartSucceeded struct {
	SessionID string
	Replies   []transcript.Message
	Progress  *Progress
}

type StartFailed struct{}

// AnswerRequested locks the session and appends the user's message before the
// backend has seen it.
type AnswerRequested struct {
	Message transcript.Message
}

type AnswerSucceeded struct {
	Replies  []transcript.Message
	Progress *Progress
}

type AnswerFailed struct{}

// Acquired and Released bracket multi-step operations that hold the lock.
type Acquired struct{}

type Released struct{}

func (StartRequested) isEvent()  {}
func (StartSucceeded) isEvent()  {}
func (StartFailed) isEvent()     {}
func (AnswerRequested) isEvent() {}
func (AnswerSucceeded) isEvent() {}
func (AnswerFailed) isEvent()    {}
func (Acquired) isEvent()        {}
func (Released) isEvent()        {}

// Reduce applies ev to s. On error the returned state equals s.
func Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case StartRequested:
		if s.Started() {
			return s, ErrAlreadyStarted
		}
		if s.Locked {
			return s, ErrLocked
		}
		phase, err := fsm.TransitionSession(s.Phase, fsm.EventStartRequested)
		if err != nil {
			return s, err
		}
		s.Phase = phase
		s.Locked = true
		return s, nil

	case StartSucceeded:
		phase, err := fsm.TransitionSession(s.Phase, fsm.EventStartSucceeded)
		if err != nil {
			return s, err
		}
		s.Phase = phase
		s.SessionID = e.SessionID
		// The opening reply replaces the local welcome text.
		s.Messages = transcript.Append(nil, e.Replies...)
		s = applyProgress(s, e.Progress)
		s.Locked = false
		return s, nil

	case StartFailed:
		phase, err := fsm.TransitionSession(s.Phase, fsm.EventStartFailed)
		if err != nil {
			return s, err
		}
		s.Phase = phase
		s.Locked = false
		return s, nil

	case Acquired:
		if !s.Started() {
			return s, ErrNotStarted
		}
		if s.Locked {
			return s, ErrLocked
		}
		s.Locked = true
		return s, nil

	case Released:
		s.Locked = false
		return s, nil

	case AnswerRequested:
		// Only a lock holder may submit, so the lock must already be taken.
		if !s.Started() {
			return s, ErrNotStarted
		}
		if !s.Locked {
			return s, fmt.Errorf("answer requested without holding the lock")
		}
		s.Messages = transcript.Append(s.Messages, e.Message)
		return s, nil

	case AnswerSucceeded:
		if !s.Started() {
			return s, ErrNotStarted
		}
		s.Messages = transcript.Append(s.Messages, e.Replies...)
		s = applyProgress(s, e.Progress)
		return s, nil

	case AnswerFailed:
		// The optimistic user message stays in the log.
		return s, nil

	default:
		return s, fmt.Errorf("unknown event %T", ev)
	}
}

func applyProgress(s State, p *Progress) State {
	if p == nil {
		return s
	}
	s.CurrentQuestion = p.Current
	s.TotalQuestions = p.Total
	return s
}
