//go:build !windows

package launcher

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

func shellCommand(command string) *exec.Cmd {
	return exec.Command("/bin/sh", "-c", command) //nolint:noctx // canceled through the process group, not the context
}

// setupProcessGroup runs cmd in its own process group, so the server and the kernels it
// spawned can be signaled together.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGTERM to the whole group, then SIGKILL once the leader exited or
// grace passed. kernels may outlive their server, the final SIGKILL is sent either way.
func killProcessGroup(cmd *exec.Cmd, grace time.Duration, exited <-chan struct{}) error {
	if cmd.Process == nil {
		return nil
	}
	pgid := -cmd.Process.Pid

	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil // whole group is gone already
		}
		return fmt.Errorf("sigterm process group %d: %w", -pgid, err)
	}

	select {
	case <-exited:
	case <-time.After(grace):
	}

	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("sigkill process group %d: %w", -pgid, err)
	}
	return nil
}
