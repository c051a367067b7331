package timer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Stopwatch counts whole seconds of interview time. It has no upper bound and
// never stops on its own.
type Stopwatch struct {
	mu      sync.Mutex
	seconds int
	running bool
	onTick  func(seconds int)
}

// NewStopwatch returns a stopped stopwatch. onTick, when set, is called after
// every counted second, outside the stopwatch lock.
func NewStopwatch(onTick func(seconds int)) *Stopwatch {
	return &Stopwatch{onTick: onTick}
}

func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

func (s *Stopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Reset zeroes the count and stops the stopwatch.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	s.seconds = 0
	s.running = false
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(0)
	}
}

// Tick advances the stopwatch by one second if it is running.
func (s *Stopwatch) Tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.seconds++
	n := s.seconds
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(n)
	}
}

// Run ticks the stopwatch on every tick of ticker until ctx is done.
func (s *Stopwatch) Run(ctx context.Context, ticker Ticker) {
	drive(ctx, ticker, s.Tick)
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) Seconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seconds
}

func (s *Stopwatch) Elapsed() time.Duration {
	return time.Duration(s.Seconds()) * time.Second
}

func (s *Stopwatch) Format() string {
	return FormatClock(s.Seconds())
}

// FormatClock renders seconds as MM:SS. Minutes are zero-padded to two digits
// and keep growing past 59.
func FormatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", totalSeconds/60, totalSeconds%60)
}
