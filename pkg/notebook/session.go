package notebook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/umputun/nbprobe/pkg/discovery"
	"github.com/umputun/nbprobe/pkg/poll"
)

// defaults for Options
const (
	DefaultKernel       = "iqsharp"
	DefaultInitTimeout  = 120 * time.Second
	DefaultPollInterval = 250 * time.Millisecond

	menuTimeout  = 10 * time.Second
	cleanupLimit = 10 * time.Second
)

// notebook UI selectors used for the kernel menu
const (
	kernelMenuSelector    = "#kernellink"
	interruptMenuSelector = "#int_kernel"
)

// logger interface for dependency injection.
type logger interface {
	Print(format string, args ...any)
}

// Options configures a notebook session.
type Options struct {
	Kernel       string        // kernel spec name, DefaultKernel if empty
	InitTimeout  time.Duration // wait for kernel connection, DefaultInitTimeout if zero
	PollInterval time.Duration // page polling interval, DefaultPollInterval if zero
	Launch       LaunchOptions
	Log          logger // optional
}

func (o Options) withDefaults() Options {
	if o.Kernel == "" {
		o.Kernel = DefaultKernel
	}
	if o.InitTimeout <= 0 {
		o.InitTimeout = DefaultInitTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Session is a browser showing a scratch notebook with a running kernel.
// Session is not safe for concurrent use, cells of one notebook are driven sequentially.
type Session struct {
	page     Page
	server   discovery.ServerRecord
	opts     Options
	contents *contentsClient
	path     string

	quitOnce sync.Once
	quitErr  error
}

// Open launches a browser, creates a scratch notebook bound to the configured kernel and
// waits until the kernel is connected. Callers must Quit the returned session.
func Open(ctx context.Context, server discovery.ServerRecord, opts Options) (*Session, error) {
	page, err := Launch(ctx, opts.Launch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInit, err)
	}
	return Attach(ctx, page, server, opts)
}

// Attach is Open on an already launched page. the page is owned by the session and
// closed on failure or by Quit.
func Attach(ctx context.Context, page Page, server discovery.ServerRecord, opts Options) (*Session, error) {
	s := &Session{page: page, server: server, opts: opts.withDefaults(), contents: newContentsClient(server)}
	if err := s.init(ctx); err != nil {
		_ = s.Quit()
		return nil, fmt.Errorf("%w: %w", ErrSessionInit, err)
	}
	return s, nil
}

func (s *Session) init(ctx context.Context) error {
	// the token url sets the auth cookie for the later notebook page
	if err := s.page.Navigate(ctx, s.server.SessionURL()); err != nil {
		return fmt.Errorf("open %s: %w", s.server.Redacted(), err)
	}

	path, err := s.contents.create(ctx, s.opts.Kernel)
	if err != nil {
		return err
	}
	s.path = path

	if err := s.page.Navigate(ctx, notebookURL(s.server, path)); err != nil {
		return fmt.Errorf("open notebook %s: %w", path, err)
	}

	var state struct {
		Name      string `json:"name"`
		Connected bool   `json:"connected"`
	}
	var lastErr error
	err = poll.Until(ctx, s.opts.PollInterval, s.opts.InitTimeout, func(ctx context.Context) (bool, error) {
		// the page may still be loading, evaluation errors are retried
		if err := call(ctx, s.page, &state, kernelStateJS, s.opts.Kernel); err != nil {
			lastErr = err
			return false, nil
		}
		return state.Name == s.opts.Kernel && state.Connected, nil
	})
	if err != nil {
		if lastErr != nil {
			return fmt.Errorf("wait for kernel %s (seen %q, connected %v): %w, last error: %w",
				s.opts.Kernel, state.Name, state.Connected, err, lastErr)
		}
		return fmt.Errorf("wait for kernel %s (seen %q, connected %v): %w", s.opts.Kernel, state.Name, state.Connected, err)
	}
	s.logf("kernel %s connected, notebook %s", s.opts.Kernel, path)
	return nil
}

// Path returns the scratch notebook path relative to the server root.
func (s *Session) Path() string { return s.path }

// AddAndExecuteCell puts content into the cell at index and executes it. missing cells up
// to index are appended, existing content is replaced.
func (s *Session) AddAndExecuteCell(ctx context.Context, index int, content string) error {
	if index < 0 {
		return fmt.Errorf("invalid cell index %d", index)
	}
	if err := call(ctx, s.page, nil, executeCellJS, index, content); err != nil {
		return fmt.Errorf("execute cell %d: %w", index, err)
	}
	return nil
}

// ClearCellOutput removes all rendered output of the cell at index.
func (s *Session) ClearCellOutput(ctx context.Context, index int) error {
	var ok bool
	if err := call(ctx, s.page, &ok, clearOutputJS, index); err != nil {
		return fmt.Errorf("clear cell %d output: %w", index, err)
	}
	if !ok {
		return fmt.Errorf("clear cell %d output: no such cell", index)
	}
	return nil
}

// CellOutput returns the text of every rendered output fragment of the cell at index,
// in render order. it doesn't wait, an executing cell may have no output yet.
func (s *Session) CellOutput(ctx context.Context, index int) ([]string, error) {
	var out *[]string
	if err := call(ctx, s.page, &out, cellOutputJS, index); err != nil {
		return nil, fmt.Errorf("read cell %d output: %w", index, err)
	}
	if out == nil {
		return nil, fmt.Errorf("read cell %d output: no such cell", index)
	}
	return *out, nil
}

// WaitForCellOutput blocks until the cell at index has at least one output fragment.
func (s *Session) WaitForCellOutput(ctx context.Context, index int, timeout time.Duration) ([]string, error) {
	return s.WaitForCellOutputFunc(ctx, index, timeout, func(out []string) bool { return len(out) > 0 })
}

// WaitForCellOutputFunc polls the output of the cell at index until cond accepts it.
// on timeout the error wraps ErrCellExecutionTimeout and carries the last seen output.
func (s *Session) WaitForCellOutputFunc(ctx context.Context, index int, timeout time.Duration,
	cond func(out []string) bool) ([]string, error) {
	var last []string
	err := poll.Until(ctx, s.opts.PollInterval, timeout, func(ctx context.Context) (bool, error) {
		out, err := s.CellOutput(ctx, index)
		if err != nil {
			return false, err
		}
		last = out
		return cond(out), nil
	})
	switch {
	case err == nil:
		return last, nil
	case errors.Is(err, poll.ErrTimeout):
		return last, fmt.Errorf("%w: cell %d, last output %q: %w", ErrCellExecutionTimeout, index, last, err)
	default:
		return last, err
	}
}

// WaitForSelector blocks until an element matching selector is visible.
func (s *Session) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	return s.page.WaitVisible(ctx, selector, timeout)
}

// Click clicks the first element matching selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.page.Click(ctx, selector)
}

// Interrupt interrupts the kernel through the Kernel menu.
func (s *Session) Interrupt(ctx context.Context) error {
	if err := s.page.Click(ctx, kernelMenuSelector); err != nil {
		return fmt.Errorf("open kernel menu: %w", err)
	}
	if err := s.page.WaitVisible(ctx, interruptMenuSelector, menuTimeout); err != nil {
		return fmt.Errorf("interrupt kernel: %w", err)
	}
	if err := s.page.Click(ctx, interruptMenuSelector); err != nil {
		return fmt.Errorf("interrupt kernel: %w", err)
	}
	return nil
}

// LoadModule requires a JavaScript module synchronously. a module the loader doesn't
// know fails with ErrScriptExecution.
func (s *Session) LoadModule(ctx context.Context, name string) error {
	var res struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := call(ctx, s.page, &res, requireJS, name); err != nil {
		return fmt.Errorf("require %s: %w", name, err)
	}
	if !res.OK {
		return fmt.Errorf("%w: require %s: %s", ErrScriptExecution, name, res.Error)
	}
	return nil
}

// Quit closes the browser and removes the scratch notebook together with its kernel.
// cleanup on the server is best effort. Quit is safe to call more than once.
func (s *Session) Quit() error {
	s.quitOnce.Do(func() {
		if err := s.page.Close(); err != nil {
			s.quitErr = fmt.Errorf("close browser: %w", err)
		}
		if s.path == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), cleanupLimit)
		defer cancel()
		if err := s.contents.shutdown(ctx, s.path); err != nil {
			s.logf("[WARN] failed to stop kernel of %s: %v", s.path, err)
		}
		if err := s.contents.remove(ctx, s.path); err != nil {
			s.logf("[WARN] failed to remove %s: %v", s.path, err)
		}
	})
	return s.quitErr
}

func (s *Session) logf(format string, args ...any) {
	if s.opts.Log != nil {
		s.opts.Log.Print(format, args...)
	}
}
