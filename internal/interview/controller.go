package interview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/logger"
	"github.com/spigell/interview-practice/internal/transcript"
	"github.com/spigell/interview-practice/internal/util"

	"go.uber.org/zap"
)

const logAnswerLimit = 120

// Backend is the part of the backend client the session needs.
type Backend interface {
	StartInterview(ctx context.Context, req backend.StartRequest) (*backend.StartResponse, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string) (*backend.AnswerResponse, error)
}

// Notifier presents outcomes to the user. The controller never assumes a
// particular presentation.
type Notifier interface {
	Error(op string, err error)
	Info(msg string)
}

type noopNotifier struct{}

func (noopNotifier) Error(string, error) {}
func (noopNotifier) Info(string)         {}

type Options struct {
	Logger   *zap.Logger
	Notifier Notifier
	Messages transcript.Factory
	// Welcome is shown before the interview starts and dropped once it does.
	Welcome string
	// OnChange is called with every new state, outside the controller lock.
	OnChange func(State)
}

// Controller is the single owner of the session state. Every transition goes
// through Reduce under mu; backend calls happen outside mu while the
// interaction lock is held.
type Controller struct {
	backend  Backend
	logger   *zap.Logger
	notifier Notifier
	messages transcript.Factory
	onChange func(State)

	mu     sync.Mutex
	state  State
	closed bool
}

func NewController(b Backend, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	if opts.Messages.NewID == nil || opts.Messages.Now == nil {
		opts.Messages = transcript.NewFactory()
	}

	var welcome []transcript.Message
	if w := strings.TrimSpace(opts.Welcome); w != "" {
		welcome = opts.Messages.Build(transcript.RoleAI, w)
	}

	return &Controller{
		backend:  b,
		logger:   opts.Logger,
		notifier: opts.Notifier,
		messages: opts.Messages,
		onChange: opts.OnChange,
		state:    NewState(welcome...),
	}
}

// apply runs one event through Reduce. Events arriving after Close are
// dropped so late backend results cannot touch a torn-down session.
func (c *Controller) apply(ev Event) (State, error) {
	c.mu.Lock()
	if c.closed {
		s := c.state
		c.mu.Unlock()
		return s, ErrClosed
	}

	next, err := Reduce(c.state, ev)
	if err != nil {
		c.mu.Unlock()
		return next, err
	}
	c.state = next
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(next.clone())
	}
	return next, nil
}

// StartInterview opens the session on the backend. On failure the session
// stays not started so the call can be retried.
func (c *Controller) StartInterview(ctx context.Context, req backend.StartRequest) error {
	if _, err := c.apply(StartRequested{}); err != nil {
		return err
	}

	settled := false
	defer func() {
		if !settled {
			_, _ = c.apply(StartFailed{})
		}
	}()

	resp, err := c.backend.StartInterview(ctx, req)
	if err != nil {
		settled = true
		_, _ = c.apply(StartFailed{})
		c.logger.Error("starting interview", zap.Error(err))
		c.notifier.Error("start interview", err)
		return fmt.Errorf("start interview: %w", err)
	}

	replies := c.messages.Build(transcript.ParseRole(resp.Role), resp.Reply...)
	state, err := c.apply(StartSucceeded{
		SessionID: resp.SessionID,
		Replies:   replies,
		Progress:  progressOf(resp.Question),
	})
	settled = true
	if err != nil {
		_, _ = c.apply(StartFailed{})
		return err
	}

	c.logger.Info("interview started", logger.SessionFields(state.SessionID, state.CurrentQuestion, state.TotalQuestions)...)
	return nil
}

// SubmitAnswer sends one answer. A call made while the session is locked is
// rejected with ErrLocked and changes nothing. The lock is released on every
// exit path.
func (c *Controller) SubmitAnswer(ctx context.Context, role transcript.Role, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyAnswer
	}

	hold, err := c.Acquire()
	if err != nil {
		return err
	}
	defer hold.Release()

	return hold.SubmitAnswer(ctx, role, content)
}

// Acquire takes the interaction lock for a multi-step operation. The caller
// must Release the returned hold.
func (c *Controller) Acquire() (*Hold, error) {
	if _, err := c.apply(Acquired{}); err != nil {
		return nil, err
	}
	return &Hold{c: c}, nil
}

// Hold is an acquired interaction lock.
type Hold struct {
	c        *Controller
	released atomic.Bool
}

// Release gives the lock back. Only the first call has an effect.
func (h *Hold) Release() {
	if h.released.Swap(true) {
		return
	}
	h.c.mu.Lock()
	h.c.state, _ = Reduce(h.c.state, Released{})
	next := h.c.state
	closed := h.c.closed
	h.c.mu.Unlock()

	if !closed && h.c.onChange != nil {
		h.c.onChange(next.clone())
	}
}

// SubmitAnswer appends the answer to the log, sends it, and appends the
// replies. The user's message stays in the log even if the backend fails.
func (h *Hold) SubmitAnswer(ctx context.Context, role transcript.Role, content string) error {
	if h.released.Load() {
		return fmt.Errorf("submit answer: %w", ErrLocked)
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyAnswer
	}

	c := h.c
	msg := c.messages.Build(role, content)[0]
	state, err := c.apply(AnswerRequested{Message: msg})
	if err != nil {
		return err
	}

	log := c.logger.With(logger.SessionFields(state.SessionID, state.CurrentQuestion, state.TotalQuestions)...)
	log.Debug("submitting answer", zap.String("answer", util.TruncateForLog(content, logAnswerLimit)))

	resp, err := c.backend.SubmitAnswer(ctx, state.SessionID, content)
	if err != nil {
		_, _ = c.apply(AnswerFailed{})
		log.Error("submitting answer", zap.Error(err))
		c.notifier.Error("submit answer", err)
		return fmt.Errorf("submit answer: %w", err)
	}

	replies := c.messages.Build(transcript.ParseRole(resp.Role), resp.Reply...)
	state, err = c.apply(AnswerSucceeded{Replies: replies, Progress: progressOf(resp.Question)})
	if err != nil {
		return err
	}

	log.Info("answer accepted",
		zap.Int("replies", len(replies)),
		zap.Int("question", state.CurrentQuestion),
		zap.Bool("complete", state.Complete()),
	)
	return nil
}

// Close tears the session down. Backend calls still in flight complete but
// their results are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.state.Locked = false
}

// Snapshot returns a copy of the state. Callers may modify the returned
// messages without touching the session log.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Controller) Messages() []transcript.Message {
	return c.Snapshot().Messages
}

func (c *Controller) Locked() bool {
	return c.Snapshot().Locked
}

func (c *Controller) Started() bool {
	return c.Snapshot().Started()
}

func (c *Controller) Complete() bool {
	return c.Snapshot().Complete()
}

func (c *Controller) SessionID() string {
	return c.Snapshot().SessionID
}

func progressOf(p *backend.Progress) *Progress {
	if p == nil {
		return nil
	}
	return &Progress{Current: p.CurrentIdx, Total: p.Total}
}
