package fsm

import "fmt"

// SessionPhase is the coarse lifecycle of an interview session. The
// interaction lock and completion are tracked beside the phase, not in it.
type SessionPhase string

type SessionEvent string

const (
	PhaseNotStarted SessionPhase = "not_started"
	PhaseStarting   SessionPhase = "starting"
	PhaseActive     SessionPhase = "active"
)

const (
	EventStartRequested SessionEvent = "start_requested"
	EventStartSucceeded SessionEvent = "start_succeeded"
	EventStartFailed    SessionEvent = "start_failed"
)

// TransitionSession returns the next session phase for the event.
func TransitionSession(current SessionPhase, event SessionEvent) (SessionPhase, error) {
	switch current {
	case PhaseNotStarted:
		switch event {
		case EventStartRequested:
			return PhaseStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseStarting:
		switch event {
		case EventStartSucceeded:
			return PhaseActive, nil
		case EventStartFailed:
			return PhaseNotStarted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseActive:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown session phase %q", current)
	}
}
