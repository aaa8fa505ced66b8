// Package launcher starts the notebook server under test as a child process and stops it,
// together with the kernels it spawned, when the probe is done.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultStopGrace is how long a stopped server gets to shut its kernels down before it is killed.
const DefaultStopGrace = 5 * time.Second

// maxLineSize limits a single line of server output, longer lines are split.
const maxLineSize = 1024 * 1024

// outputDrain is how long output is still read after the server process exited.
const outputDrain = 500 * time.Millisecond

// Options configures Start.
type Options struct {
	Command   string            // shell command line, e.g. "jupyter notebook --no-browser"
	Dir       string            // working directory, current if empty
	Env       []string          // added to the inherited environment, "KEY=value"
	Output    func(line string) // called for every line of stdout and stderr, can be nil
	StopGrace time.Duration     // DefaultStopGrace if zero
}

// Server is a running server process.
type Server struct {
	cmd   *exec.Cmd
	grace time.Duration
	done  chan struct{}
	err   error // exit error, set before done is closed

	stopOnce sync.Once
	stopErr  error
}

// Start runs the command in its own process group. canceling ctx stops the server the same way Stop does.
func Start(ctx context.Context, opts Options) (*Server, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return nil, errors.New("empty server command")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context already canceled: %w", err)
	}

	cmd := shellCommand(opts.Command)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	setupProcessGroup(cmd)

	// one writer for both streams, exec copies them from a single pipe
	out := &lineWriter{emit: opts.Output}
	cmd.Stdout = out
	cmd.Stderr = out
	// kernels left behind by a crashed server keep the pipe open, Wait must not wait for them
	cmd.WaitDelay = outputDrain

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", opts.Command, err)
	}

	s := &Server{cmd: cmd, grace: opts.StopGrace, done: make(chan struct{})}
	if s.grace <= 0 {
		s.grace = DefaultStopGrace
	}
	go s.wait(out)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Stop()
		case <-s.done:
		}
	}()
	return s, nil
}

// wait reaps the server process. it returns at most outputDrain after the server exited,
// even if its children still hold the output pipe.
func (s *Server) wait(out *lineWriter) {
	err := s.cmd.Wait()
	out.flush()
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		s.err = fmt.Errorf("server exited: %w", err)
	}
	close(s.done)
}

// PID returns the process id of the server, which is also its process group id.
func (s *Server) PID() int {
	return s.cmd.Process.Pid
}

// Done is closed when the server process exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Err returns the exit error once Done is closed, nil for a clean exit.
func (s *Server) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Stop sends SIGTERM to the process group, waits up to the grace period and kills what is
// left. blocks until the server exited. safe to call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = killProcessGroup(s.cmd, s.grace, s.done)
		select {
		case <-s.done:
		case <-time.After(s.grace):
			s.stopErr = errors.Join(s.stopErr, fmt.Errorf("server %d did not exit", s.PID()))
		}
	})
	return s.stopErr
}

// lineWriter splits the output stream into lines for Options.Output.
type lineWriter struct {
	emit func(line string)

	mu  sync.Mutex
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.line(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	for len(w.buf) >= maxLineSize {
		w.line(w.buf[:maxLineSize])
		w.buf = w.buf[maxLineSize:]
	}
	return len(p), nil
}

// flush emits an unterminated last line.
func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.line(w.buf)
		w.buf = nil
	}
}

// line must be called with mu held.
func (w *lineWriter) line(b []byte) {
	if w.emit != nil {
		w.emit(strings.TrimSuffix(string(b), "\r"))
	}
}
