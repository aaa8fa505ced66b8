package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/umputun/nbprobe/pkg/notebook"
)

// defaults for Config
const (
	DefaultCellTimeout  = 120 * time.Second
	DefaultDebugTimeout = 60 * time.Second
)

//go:generate moq -out mocks/logger.go -pkg mocks -skip-ensure -fmt goimports . Logger
//go:generate moq -out mocks/observer.go -pkg mocks -skip-ensure -fmt goimports . Observer

// Logger provides logging functionality.
type Logger interface {
	Print(format string, args ...any)
	Error(format string, args ...any)
}

// CheckLogger is implemented by loggers that tag lines with the check producing them.
// without it the runner prefixes lines with "[check]".
type CheckLogger interface {
	ForCheck(name string) Logger
}

// AlignedPrinter is implemented by loggers that print a multi-line block under one
// timestamp. failed checks dump their cell output through it, line by line otherwise.
type AlignedPrinter interface {
	PrintAligned(text string)
}

// Observer is told about check lifecycle, calls may come from several goroutines.
type Observer interface {
	CheckStarted(name string)
	CheckFinished(res Result)
}

// Opener starts a fresh notebook session.
type Opener func(ctx context.Context) (Session, error)

// Status of a finished check.
type Status string

// check statuses
const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip" // not run, the run was canceled first
)

// Result of a single check.
type Result struct {
	Check    string        `json:"check"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Err      error         `json:"-"`
}

// Config holds runner configuration.
type Config struct {
	Parallel     int           // max checks running at once, 1 if zero
	CellTimeout  time.Duration // DefaultCellTimeout if zero
	DebugTimeout time.Duration // DefaultDebugTimeout if zero
	Fixture      *Fixture      // required
}

// Runner runs checks, each one in its own session.
type Runner struct {
	cfg      Config
	open     Opener
	log      Logger
	observer Observer
}

// New makes a runner. open is called once per check.
func New(cfg Config, open Opener, log Logger) *Runner {
	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}
	if cfg.CellTimeout <= 0 {
		cfg.CellTimeout = DefaultCellTimeout
	}
	if cfg.DebugTimeout <= 0 {
		cfg.DebugTimeout = DefaultDebugTimeout
	}
	return &Runner{cfg: cfg, open: open, log: log}
}

// SetObserver registers an observer of check lifecycle, nil removes it.
func (r *Runner) SetObserver(o Observer) {
	r.observer = o
}

// Run executes checks and returns one result per check in the given order. a failed check
// doesn't stop the others; canceled ctx does, remaining checks are skipped and ctx error returned.
func (r *Runner) Run(ctx context.Context, checks []Check) ([]Result, error) {
	if r.cfg.Fixture == nil {
		return nil, fmt.Errorf("no fixture configured")
	}

	results := make([]Result, len(checks))
	var g errgroup.Group
	g.SetLimit(r.cfg.Parallel)
	for i, c := range checks {
		g.Go(func() error {
			results[i] = r.runCheck(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("checks interrupted: %w", err)
	}
	return results, nil
}

func (r *Runner) runCheck(ctx context.Context, c Check) Result {
	if ctx.Err() != nil {
		return Result{Check: c.Name, Status: StatusSkip, Error: "canceled"}
	}
	if r.observer != nil {
		r.observer.CheckStarted(c.Name)
	}
	r.log.Print("check %s started: %s", c.Name, c.Description)

	start := time.Now()
	err := r.exec(ctx, c)
	res := Result{Check: c.Name, Status: StatusPass, Duration: time.Since(start)}
	if err != nil {
		res.Status, res.Error, res.Err = StatusFail, err.Error(), err
		r.log.Error("check %s failed: %v", c.Name, err)
		r.dumpOutput(c.Name, err)
	} else {
		r.log.Print("check %s passed in %s", c.Name, res.Duration.Round(time.Millisecond))
	}

	if r.observer != nil {
		r.observer.CheckFinished(res)
	}
	return res
}

// dumpOutput prints the cell fragments a check saw when it failed on unexpected output.
func (r *Runner) dumpOutput(check string, err error) {
	var oe *notebook.OutputError
	if !errors.As(err, &oe) || len(oe.Output) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "cell output of check %s, %d fragments:\n", check, len(oe.Output))
	for i, frag := range oe.Output {
		fmt.Fprintf(&b, "[%d] %s\n", i, frag)
	}
	if ap, ok := r.log.(AlignedPrinter); ok {
		ap.PrintAligned(b.String())
		return
	}
	for line := range strings.SplitSeq(strings.TrimRight(b.String(), "\n"), "\n") {
		r.log.Print("%s", line)
	}
}

func (r *Runner) exec(ctx context.Context, c Check) error {
	s, err := r.open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if qerr := s.Quit(); qerr != nil {
			r.log.Print("[WARN] check %s: quit session: %v", c.Name, qerr)
		}
	}()

	var log Logger = prefixLogger{prefix: c.Name, log: r.log}
	if cl, ok := r.log.(CheckLogger); ok {
		log = cl.ForCheck(c.Name)
	}
	env := Env{
		Fixture:      r.cfg.Fixture,
		CellTimeout:  r.cfg.CellTimeout,
		DebugTimeout: r.cfg.DebugTimeout,
		Log:          log,
	}
	return c.Run(ctx, s, env)
}

// Failed counts failed and skipped results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Status != StatusPass {
			n++
		}
	}
	return n
}

// prefixLogger tags lines of one check, checks may run in parallel.
type prefixLogger struct {
	prefix string
	log    Logger
}

func (p prefixLogger) Print(format string, args ...any) {
	p.log.Print("[%s] %s", p.prefix, fmt.Sprintf(format, args...))
}

func (p prefixLogger) Error(format string, args ...any) {
	p.log.Error("[%s] %s", p.prefix, fmt.Sprintf(format, args...))
}
