// Package fsm holds the transition tables for interview sessions, voice
// recordings and question countdowns.
package fsm

import "fmt"

type RecordingState string

type RecordingEvent string

const (
	RecordingIdle         RecordingState = "idle"
	RecordingActive       RecordingState = "recording"
	RecordingTranscribing RecordingState = "transcribing"
	RecordingError        RecordingState = "error"
)

const (
	EventCaptureStart RecordingEvent = "start"
	EventCaptureStop  RecordingEvent = "stop"
	EventTranscribed  RecordingEvent = "transcribed"
	EventCaptureFail  RecordingEvent = "fail"
	EventRecover      RecordingEvent = "recover"
)

// TransitionRecording returns the next recording state for the event.
// EventCaptureFail is accepted from every state.
func TransitionRecording(current RecordingState, event RecordingEvent) (RecordingState, error) {
	if event == EventCaptureFail {
		return RecordingError, nil
	}

	switch current {
	case RecordingIdle:
		switch event {
		case EventCaptureStart:
			return RecordingActive, nil
		default:
			return current, invalidTransition(current, event)
		}
	case RecordingActive:
		switch event {
		case EventCaptureStop:
			return RecordingTranscribing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case RecordingTranscribing:
		switch event {
		case EventTranscribed:
			return RecordingIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case RecordingError:
		switch event {
		case EventRecover:
			return RecordingIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown recording state %q", current)
	}
}

func invalidTransition[S ~string, E ~string](state S, event E) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
