package fsm

import "fmt"

type CountdownState string

type CountdownEvent string

const (
	CountdownIdle    CountdownState = "idle"
	CountdownRunning CountdownState = "running"
	CountdownFired   CountdownState = "fired"
)

const (
	EventActivate   CountdownEvent = "activate"
	EventDeactivate CountdownEvent = "deactivate"
	EventExpire     CountdownEvent = "expire"
	EventRearm      CountdownEvent = "rearm"
)

// TransitionCountdown returns the next countdown state. A fired countdown only
// leaves Fired through EventRearm, which callers issue on a new activation token.
func TransitionCountdown(current CountdownState, event CountdownEvent) (CountdownState, error) {
	if event == EventRearm {
		return CountdownIdle, nil
	}

	switch current {
	case CountdownIdle:
		switch event {
		case EventActivate:
			return CountdownRunning, nil
		case EventDeactivate:
			return CountdownIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case CountdownRunning:
		switch event {
		case EventActivate:
			return CountdownRunning, nil
		case EventDeactivate:
			return CountdownIdle, nil
		case EventExpire:
			return CountdownFired, nil
		default:
			return current, invalidTransition(current, event)
		}
	case CountdownFired:
		switch event {
		case EventActivate, EventDeactivate:
			return CountdownFired, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown countdown state %q", current)
	}
}
