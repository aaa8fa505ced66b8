package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/umputun/nbprobe/pkg/poll"
)

// ErrStartupTimeout is returned when no server shows up within the wait duration.
var ErrStartupTimeout = errors.New("notebook server did not start")

// default startup wait, matches a cold start of a notebook server with the IQ# kernel.
const (
	DefaultWait     = 180 * time.Second
	DefaultInterval = 5 * time.Second
)

// logger interface for dependency injection.
type logger interface {
	Print(format string, args ...any)
}

// WaitOptions controls WaitForServer.
type WaitOptions struct {
	Wait     time.Duration // maximum time to wait, DefaultWait if zero
	Interval time.Duration // pause between registry queries, DefaultInterval if zero
	Log      logger        // optional
}

// WaitForServer queries reg once per interval and returns the first record as soon as
// the registry is not empty. registry errors don't stop the wait, the last one is
// reported with ErrStartupTimeout when the wait runs out.
func WaitForServer(ctx context.Context, reg Registry, opts WaitOptions) (ServerRecord, error) {
	if opts.Wait <= 0 {
		opts.Wait = DefaultWait
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	var (
		found   ServerRecord
		lastErr error
		queries int
	)
	err := poll.Until(ctx, opts.Interval, opts.Wait, func(ctx context.Context) (bool, error) {
		queries++
		records, err := reg.Servers(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			lastErr = err
			return false, nil
		}
		if len(records) == 0 {
			if queries == 1 && opts.Log != nil {
				opts.Log.Print("waiting for notebook server to start...")
			}
			return false, nil
		}
		found = records[0]
		return true, nil
	})

	switch {
	case err == nil:
		return found, nil
	case errors.Is(err, poll.ErrTimeout):
		if lastErr != nil {
			return ServerRecord{}, fmt.Errorf("%w in %v: %w", ErrStartupTimeout, opts.Wait, lastErr)
		}
		return ServerRecord{}, fmt.Errorf("%w in %v", ErrStartupTimeout, opts.Wait)
	default:
		return ServerRecord{}, fmt.Errorf("wait for server: %w", err)
	}
}
