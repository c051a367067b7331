package util

import (
	"context"
	"time"
)

// WaitFor blocks for d or until ctx is done, whichever comes first. A done
// ctx wins even when d is zero.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
