// Package poll provides bounded condition polling with a fixed interval.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned when the condition is not met before the deadline.
var ErrTimeout = errors.New("poll timeout")

// CheckFunc reports whether the polled condition holds.
// a non-nil error aborts polling immediately and is returned as is.
type CheckFunc func(ctx context.Context) (bool, error)

// Until calls check right away and then once per interval until it returns true,
// returns an error, the timeout elapses or ctx is canceled.
// the next check starts a full interval after the previous one returned, so a slow check
// never shortens the gap. the context passed to check carries the overall deadline. On timeout the returned error wraps ErrTimeout.
func Until(ctx context.Context, interval, timeout time.Duration, check CheckFunc) error {
	if interval <= 0 {
		return fmt.Errorf("invalid poll interval %v", interval)
	}

	ctx, cancel := context.WithTimeoutCause(ctx, timeout, ErrTimeout)
	defer cancel()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			if errors.Is(context.Cause(ctx), ErrTimeout) {
				return fmt.Errorf("%w after %v: %w", ErrTimeout, timeout, err)
			}
			return err
		}
		if done {
			return nil
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			if errors.Is(context.Cause(ctx), ErrTimeout) {
				return fmt.Errorf("%w after %v", ErrTimeout, timeout)
			}
			return ctx.Err()
		case <-timer.C:
		}
	}
}
