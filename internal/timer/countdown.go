package timer

import (
	"context"
	"fmt"
	"sync"

	"github.com/spigell/interview-practice/internal/fsm"
)

const (
	// DefaultQuestionTime is the thinking time per question, in seconds.
	DefaultQuestionTime = 120
	lowTimeThreshold    = 30
)

// Countdown is an advisory per-question timer. Each activation token gets at
// most one onTimeUp call; only a new token restarts the countdown.
type Countdown struct {
	mu        sync.Mutex
	max       int
	remaining int
	state     fsm.CountdownState
	token     uint64
	armed     bool
	onTimeUp  func()
}

func NewCountdown(maxSeconds int, onTimeUp func()) *Countdown {
	if maxSeconds <= 0 {
		maxSeconds = DefaultQuestionTime
	}
	return &Countdown{
		max:       maxSeconds,
		remaining: maxSeconds,
		state:     fsm.CountdownIdle,
		onTimeUp:  onTimeUp,
	}
}

// Activate starts ticking for token. A token different from the current one
// rearms the countdown from the maximum; the same token only resumes it.
func (c *Countdown) Activate(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed || token != c.token {
		c.state, _ = fsm.TransitionCountdown(c.state, fsm.EventRearm)
		c.remaining = c.max
		c.token = token
		c.armed = true
	}

	if next, err := fsm.TransitionCountdown(c.state, fsm.EventActivate); err == nil {
		c.state = next
	}
}

// Deactivate pauses the countdown without resetting it.
func (c *Countdown) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if next, err := fsm.TransitionCountdown(c.state, fsm.EventDeactivate); err == nil {
		c.state = next
	}
}

// Tick counts one second down. Reaching zero fires onTimeUp once and stops
// the countdown.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if c.state != fsm.CountdownRunning {
		c.mu.Unlock()
		return
	}

	c.remaining--
	fire := false
	if c.remaining <= 0 {
		c.remaining = 0
		c.state, _ = fsm.TransitionCountdown(c.state, fsm.EventExpire)
		fire = true
	}
	c.mu.Unlock()

	if fire && c.onTimeUp != nil {
		c.onTimeUp()
	}
}

// Run ticks the countdown on every tick of ticker until ctx is done.
func (c *Countdown) Run(ctx context.Context, ticker Ticker) {
	drive(ctx, ticker, c.Tick)
}

func (c *Countdown) State() fsm.CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Max() int {
	return c.max
}

// Active reports whether the countdown is ticking.
func (c *Countdown) Active() bool {
	return c.State() == fsm.CountdownRunning
}

// LowTime reports whether less than half a minute is left but time is not up.
func (c *Countdown) LowTime() bool {
	r := c.Remaining()
	return r > 0 && r <= lowTimeThreshold
}

func (c *Countdown) TimeUp() bool {
	return c.State() == fsm.CountdownFired
}

// Fraction is the share of the maximum still remaining, from 0 to 1.
func (c *Countdown) Fraction() float64 {
	return float64(c.Remaining()) / float64(c.max)
}

// Format renders the remaining time as M:SS.
func (c *Countdown) Format() string {
	r := c.Remaining()
	return fmt.Sprintf("%d:%02d", r/60, r%60)
}
