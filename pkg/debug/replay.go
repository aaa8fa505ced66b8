package debug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/umputun/nbprobe/pkg/notebook"
)

// ErrDebugStartTimeout is returned when the debug toolbar never shows up after %debug.
var ErrDebugStartTimeout = errors.New("debug session did not start")

// DefaultButtonSelector matches the "next step" button of the IQ# debug toolbar.
const DefaultButtonSelector = ".iqsharp-debug-toolbar .btn"

// Banners are the texts expected in the fixed debug output fragments.
type Banners struct {
	Start    string `yaml:"start" json:"start"`
	Controls string `yaml:"controls" json:"controls"`
	Finish   string `yaml:"finish" json:"finish"`
}

// DefaultBanners matches the IQ# debugger.
var DefaultBanners = Banners{
	Start:    "Starting debug session",
	Controls: "Debug controls",
	Finish:   "Finished debug session",
}

// fragments rendered by a settled debug session
const settledFragments = 4

// Console is the part of a notebook session a replay needs.
type Console interface {
	AddAndExecuteCell(ctx context.Context, index int, content string) error
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Interrupt(ctx context.Context) error
	WaitForCellOutputFunc(ctx context.Context, index int, timeout time.Duration, cond func([]string) bool) ([]string, error)
}

// Options configures Replay.
type Options struct {
	Operation      string        // operation name passed to %debug
	Trace          Trace         // expected trace rendering of the operation
	Banners        Banners       // DefaultBanners if empty
	ButtonSelector string        // DefaultButtonSelector if empty
	StartTimeout   time.Duration // wait for the debug toolbar, 60s if zero
	SettleTimeout  time.Duration // wait for the settled output, 60s if zero
}

func (o Options) withDefaults() Options {
	if o.Banners == (Banners{}) {
		o.Banners = DefaultBanners
	}
	if o.ButtonSelector == "" {
		o.ButtonSelector = DefaultButtonSelector
	}
	if o.StartTimeout <= 0 {
		o.StartTimeout = 60 * time.Second
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = 60 * time.Second
	}
	return o
}

// Replay drives one debug session in cell along path and validates the settled output.
// the cell output should be cleared before, fragments of an earlier run fail validation.
func Replay(ctx context.Context, console Console, cell int, path Path, opts Options) error {
	opts = opts.withDefaults()
	m := NewMachine(opts.Trace)

	for _, a := range path.Actions {
		if err := m.Apply(a); err != nil {
			return err
		}
		if err := perform(ctx, console, cell, a, opts); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
	}
	if !m.State().Terminal() {
		return fmt.Errorf("path %s ends in non-terminal state %s", path, m.State())
	}

	out, err := console.WaitForCellOutputFunc(ctx, cell, opts.SettleTimeout, func(out []string) bool {
		return len(out) >= settledFragments
	})
	if err != nil {
		return fmt.Errorf("wait for settled debug output: %w", err)
	}
	return Validate(out, m.ExpectedTrace(), opts.Banners)
}

func perform(ctx context.Context, console Console, cell int, a Action, opts Options) error {
	switch a {
	case ActionStart:
		if err := console.AddAndExecuteCell(ctx, cell, "%debug "+opts.Operation); err != nil {
			return err
		}
		if err := console.WaitForSelector(ctx, opts.ButtonSelector, opts.StartTimeout); err != nil {
			return fmt.Errorf("%w: %w", ErrDebugStartTimeout, err)
		}
		return nil
	case ActionStep:
		return console.Click(ctx, opts.ButtonSelector)
	case ActionInterrupt:
		return console.Interrupt(ctx)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, a)
	}
}

// Validate checks the settled output of a debug session: exactly four fragments, the
// start and controls banners, the expected trace and the finish banner, in this order.
func Validate(out []string, expectedTrace string, b Banners) error {
	if len(out) != settledFragments {
		return &notebook.OutputError{Fragment: -1, Expected: fmt.Sprintf("%d fragments", settledFragments), Output: out}
	}
	checks := []struct {
		ok   bool
		want string
	}{
		{strings.Contains(out[0], b.Start), fmt.Sprintf("text containing %q", b.Start)},
		{strings.Contains(out[1], b.Controls), fmt.Sprintf("text containing %q", b.Controls)},
		{out[2] == expectedTrace, fmt.Sprintf("trace %q", expectedTrace)},
		{strings.Contains(out[3], b.Finish), fmt.Sprintf("text containing %q", b.Finish)},
	}
	for i, c := range checks {
		if !c.ok {
			return &notebook.OutputError{Fragment: i, Expected: c.want, Output: out}
		}
	}
	return nil
}
