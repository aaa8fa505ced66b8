package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// customChannel runs a user script for notifications. the script gets the result as JSON
// on stdin and its status in NBPROBE_STATUS.
type customChannel struct {
	scriptPath string
}

func newCustomChannel(scriptPath string) *customChannel {
	return &customChannel{scriptPath: scriptPath}
}

func (c *customChannel) send(ctx context.Context, r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.scriptPath) //nolint:gosec // path comes from user config, not user input
	cmd.Stdin = bytes.NewReader(data)
	cmd.Env = append(os.Environ(), "NBPROBE_STATUS="+r.Status)
	cmd.WaitDelay = time.Second // children holding the output pipe don't block a killed script

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err = cmd.Run(); err != nil {
		if out := strings.TrimSpace(output.String()); out != "" {
			return fmt.Errorf("script %s: %w, output: %s", c.scriptPath, err, out)
		}
		return fmt.Errorf("script %s: %w", c.scriptPath, err)
	}
	return nil
}
