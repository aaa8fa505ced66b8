//go:build !windows

package discovery

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processAlive reports whether a process with the given pid exists.
// EPERM means the process exists but belongs to another user.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
