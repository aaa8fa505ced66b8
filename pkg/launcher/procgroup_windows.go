//go:build windows

package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

func shellCommand(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command) //nolint:noctx // killed explicitly on cancel
}

// setupProcessGroup is a no-op on windows, only the direct child is killed.
func setupProcessGroup(*exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd, _ time.Duration, _ <-chan struct{}) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill server: %w", err)
	}
	return nil
}
