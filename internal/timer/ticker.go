// Package timer implements the interview clock and the per-question countdown.
package timer

import (
	"context"
	"time"
)

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTicker returns a wall-clock Ticker with the given period.
func NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// drive calls tick for every tick until ctx is done.
func drive(ctx context.Context, ticker Ticker, tick func()) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			tick()
		}
	}
}
