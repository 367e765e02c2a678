package endpoint

import (
	"context"
	"time"
)

// DefaultPollInterval is how often wait conditions are re-checked.
const DefaultPollInterval = 100 * time.Millisecond

// Clock is the time source used by wait loops.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Poll calls check until it returns true, timeout elapses or ctx is done.
// A zero timeout waits until ctx is done. An error from check ends the wait.
func Poll(ctx context.Context, clock Clock, interval, timeout time.Duration, check func(context.Context) (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := clock.Now()
	for {
		ok, err := check(ctx)
		if err != nil || ok {
			return ok, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-clock.After(interval):
		}
		if timeout > 0 && clock.Now().Sub(start) >= timeout {
			return false, nil
		}
	}
}
