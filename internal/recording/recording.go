// Package recording drives a spoken answer from microphone capture to a
// submitted transcript. One toggle starts capture, the next one stops it and
// runs stop, transcription, submission and artifact cleanup in order.
package recording

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/fsm"
	"github.com/spigell/interview-practice/internal/interview"
	"github.com/spigell/interview-practice/internal/logger"
	"github.com/spigell/interview-practice/internal/transcript"
	"github.com/spigell/interview-practice/internal/util"

	"go.uber.org/zap"
)

var (
	ErrBusy            = errors.New("recording is busy")
	ErrEmptyTranscript = errors.New("no speech was recognized")
	// ErrSubmit marks failures of the answer submission itself. The session
	// has already reported those through its notifier.
	ErrSubmit = errors.New("submit spoken answer")
)

// Speech is the part of the backend client that handles audio.
type Speech interface {
	StartVoice(ctx context.Context) (*backend.VoiceResponse, error)
	StopVoice(ctx context.Context) (*backend.VoiceResponse, error)
	SpeechToText(ctx context.Context, audioPath string) (*backend.TranscriptionResponse, error)
	DeleteAudio(ctx context.Context, audioPath string) error
}

// Session is the interview a recording answers into.
type Session interface {
	Acquire() (*interview.Hold, error)
	Started() bool
	Locked() bool
}

// Result describes what a toggle did. CleanupErr is set when the audio
// artifact could not be deleted; it never fails the toggle itself.
type Result struct {
	State      fsm.RecordingState
	AudioPath  string
	Transcript string
	CleanupErr error
}

type Controller struct {
	speech  Speech
	session Session
	logger  *zap.Logger

	mu        sync.Mutex
	state     fsm.RecordingState
	starting  bool
	audioPath string
	hold      *interview.Hold
}

func New(speech Speech, session Session, log *zap.Logger) *Controller {
	return &Controller{
		speech:  speech,
		session: session,
		logger:  logger.WithFields(log),
		state:   fsm.RecordingIdle,
	}
}

func (c *Controller) State() fsm.RecordingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Recording() bool {
	return c.State() == fsm.RecordingActive
}

// MicEnabled reports whether the microphone control may be used right now.
// While recording it stays enabled so capture can be stopped. It is disabled
// while capture is starting or transcribing, and otherwise follows the
// session lock.
func (c *Controller) MicEnabled() bool {
	c.mu.Lock()
	state, starting := c.state, c.starting
	c.mu.Unlock()

	if starting {
		return false
	}

	switch state {
	case fsm.RecordingActive:
		return true
	case fsm.RecordingTranscribing:
		return false
	default:
		return c.session.Started() && !c.session.Locked()
	}
}

// Toggle starts capture when idle and finishes it when recording. A toggle
// while the previous one is still talking to the backend returns ErrBusy.
func (c *Controller) Toggle(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.state == fsm.RecordingError {
		c.state, _ = fsm.TransitionRecording(c.state, fsm.EventRecover)
	}

	switch {
	case c.starting || c.state == fsm.RecordingTranscribing:
		state := c.state
		c.mu.Unlock()
		return Result{State: state}, ErrBusy
	case c.state == fsm.RecordingIdle:
		c.starting = true
		c.mu.Unlock()
		return c.start(ctx)
	default:
		return c.stop(ctx)
	}
}

// start is entered with c.starting set and c.mu released. The session runs
// its change callbacks inside Acquire, and those may query the recorder.
func (c *Controller) start(ctx context.Context) (Result, error) {
	hold, err := c.session.Acquire()
	if err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		return Result{State: fsm.RecordingIdle}, fmt.Errorf("start recording: %w", err)
	}

	c.mu.Lock()
	next, err := fsm.TransitionRecording(c.state, fsm.EventCaptureStart)
	if err != nil {
		c.starting = false
		state := c.state
		c.mu.Unlock()
		hold.Release()
		return Result{State: state}, err
	}
	c.state = next
	c.hold = hold
	c.mu.Unlock()

	ok := false
	defer func() {
		if !ok {
			c.reset(fsm.EventCaptureFail)
		}
	}()

	resp, err := c.speech.StartVoice(ctx)
	if err != nil {
		c.logger.Error("starting voice capture", zap.Error(err))
		return Result{State: fsm.RecordingIdle}, fmt.Errorf("start recording: %w", err)
	}

	path := strings.TrimSpace(resp.AudioPath)
	c.mu.Lock()
	c.starting = false
	c.audioPath = path
	c.mu.Unlock()
	ok = true

	c.logger.Info("voice capture started", logger.AudioFields(path)...)
	return Result{State: fsm.RecordingActive, AudioPath: path}, nil
}

// stop is entered with c.mu held and the session lock owned by c.hold.
func (c *Controller) stop(ctx context.Context) (Result, error) {
	next, err := fsm.TransitionRecording(c.state, fsm.EventCaptureStop)
	if err != nil {
		state := c.state
		c.mu.Unlock()
		return Result{State: state}, err
	}
	c.state = next
	path := c.audioPath
	hold := c.hold
	c.mu.Unlock()

	res := Result{State: fsm.RecordingIdle, AudioPath: path}
	event := fsm.EventCaptureFail
	defer func() {
		c.reset(event)
	}()

	text, path, err := c.transcribe(ctx, path)
	res.AudioPath = path
	if err == nil {
		res.Transcript = text
		log := c.logger.With(logger.AudioFields(path)...)
		log.Debug("submitting spoken answer", zap.String("answer", util.TruncateForLog(text, 120)))
		if err = hold.SubmitAnswer(ctx, transcript.RoleUser, text); err != nil {
			err = fmt.Errorf("%w: %w", ErrSubmit, err)
		}
	}

	res.CleanupErr = c.cleanup(ctx, path)

	if err != nil {
		c.logger.Error("finishing recording", zap.Error(err))
		return res, err
	}

	event = fsm.EventTranscribed
	return res, nil
}

// Abort stops an active capture without submitting anything and deletes the
// artifact. It is a no-op unless a recording is in progress.
func (c *Controller) Abort(ctx context.Context) error {
	c.mu.Lock()
	if c.state != fsm.RecordingActive || c.starting {
		c.mu.Unlock()
		return nil
	}
	next, err := fsm.TransitionRecording(c.state, fsm.EventCaptureStop)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	path := c.audioPath
	c.mu.Unlock()

	defer c.reset(fsm.EventCaptureFail)

	stopped, err := c.speech.StopVoice(ctx)
	if err == nil {
		if p := strings.TrimSpace(stopped.AudioPath); p != "" {
			path = p
		}
	} else {
		err = fmt.Errorf("stop recording: %w", err)
	}

	return errors.Join(err, c.cleanup(ctx, path))
}

// transcribe stops capture and converts the audio to text. The returned path
// is the finalized artifact, falling back to the one reported at start.
func (c *Controller) transcribe(ctx context.Context, path string) (string, string, error) {
	stopped, err := c.speech.StopVoice(ctx)
	if err != nil {
		return "", path, fmt.Errorf("stop recording: %w", err)
	}
	if p := strings.TrimSpace(stopped.AudioPath); p != "" {
		path = p
	}
	if path == "" {
		return "", path, fmt.Errorf("stop recording: backend returned no audio path")
	}

	resp, err := c.speech.SpeechToText(ctx, path)
	if err != nil {
		return "", path, fmt.Errorf("transcribe recording: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", path, ErrEmptyTranscript
	}
	return text, path, nil
}

// cleanup deletes the artifact even if ctx was cancelled mid-chain.
func (c *Controller) cleanup(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	if err := c.speech.DeleteAudio(context.WithoutCancel(ctx), path); err != nil {
		c.logger.Warn("deleting audio artifact", append(logger.AudioFields(path), zap.Error(err))...)
		return err
	}
	return nil
}

// reset returns the controller to idle and gives back the session lock.
// EventCaptureFail passes through the error state on the way.
func (c *Controller) reset(event fsm.RecordingEvent) {
	c.mu.Lock()
	next, err := fsm.TransitionRecording(c.state, event)
	if err == nil && next == fsm.RecordingError {
		next, err = fsm.TransitionRecording(next, fsm.EventRecover)
	}
	if err != nil {
		next = fsm.RecordingIdle
	}
	c.state = next
	c.starting = false
	c.audioPath = ""
	hold := c.hold
	c.hold = nil
	c.mu.Unlock()

	if hold != nil {
		hold.Release()
	}
}
