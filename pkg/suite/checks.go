// Package suite holds the notebook conformance checks and runs them, each in its own
// browser session.
package suite

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/umputun/nbprobe/pkg/debug"
	"github.com/umputun/nbprobe/pkg/notebook"
)

// Session is the notebook session a check drives, implemented by notebook.Session.
type Session interface {
	debug.Console
	ClearCellOutput(ctx context.Context, index int) error
	CellOutput(ctx context.Context, index int) ([]string, error)
	WaitForCellOutput(ctx context.Context, index int, timeout time.Duration) ([]string, error)
	LoadModule(ctx context.Context, name string) error
	Quit() error
}

// Env is what a check gets besides the session.
type Env struct {
	Fixture      *Fixture
	CellTimeout  time.Duration // wait for the first output of an executed cell
	DebugTimeout time.Duration // wait for the debug toolbar and settled debug output
	Log          Logger
}

// Check is a single conformance check.
type Check struct {
	Name        string
	Description string
	Run         func(ctx context.Context, s Session, env Env) error
}

// cells used by checks, the operation is always defined in the first one
const (
	definitionCell = 0
	magicCell      = 1
)

var allChecks = []Check{
	{Name: "version", Description: "%version reports the kernel", Run: checkVersion},
	{Name: "modules", Description: "notebook extension modules load", Run: checkModules},
	{Name: "debug", Description: "%debug steps and interrupts", Run: checkDebug},
	{Name: "trace", Description: "%trace renders the full trace", Run: checkTrace},
}

// Checks returns all known checks in run order.
func Checks() []Check {
	return slices.Clone(allChecks)
}

// Names returns names of all known checks.
func Names() []string {
	res := make([]string, len(allChecks))
	for i, c := range allChecks {
		res[i] = c.Name
	}
	return res
}

// Select returns checks by name in run order, all of them for an empty list.
func Select(names []string) ([]Check, error) {
	if len(names) == 0 {
		return Checks(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if !slices.Contains(Names(), n) {
			return nil, fmt.Errorf("unknown check %q, known checks: %s", n, strings.Join(Names(), ", "))
		}
		want[n] = true
	}
	var res []Check
	for _, c := range allChecks {
		if want[c.Name] {
			res = append(res, c)
		}
	}
	return res, nil
}

func checkVersion(ctx context.Context, s Session, env Env) error {
	fx := env.Fixture
	if err := s.AddAndExecuteCell(ctx, definitionCell, fx.Version.Command); err != nil {
		return err
	}
	out, err := s.WaitForCellOutput(ctx, definitionCell, env.CellTimeout)
	if err != nil {
		return err
	}
	if !strings.Contains(out[0], fx.Version.Marker) {
		return &notebook.OutputError{Fragment: 0, Expected: fmt.Sprintf("text containing %q", fx.Version.Marker), Output: out}
	}
	env.Log.Print("kernel version: %s", firstLine(out[0]))
	return nil
}

func checkModules(ctx context.Context, s Session, env Env) error {
	for _, name := range env.Fixture.Modules.Absent {
		err := s.LoadModule(ctx, name)
		if err == nil {
			return fmt.Errorf("%w: module %s loaded, expected a script error", notebook.ErrUnexpectedOutput, name)
		}
		if !errors.Is(err, notebook.ErrScriptExecution) {
			return err
		}
		env.Log.Print("module %s rejected as expected", name)
	}
	for _, name := range env.Fixture.Modules.Present {
		if err := s.LoadModule(ctx, name); err != nil {
			return err
		}
		env.Log.Print("module %s loaded", name)
	}
	return nil
}

// defineOperation compiles the sample operation, IQ# echoes the operation name.
func defineOperation(ctx context.Context, s Session, env Env) error {
	op := env.Fixture.Operation
	if err := s.AddAndExecuteCell(ctx, definitionCell, op.Source); err != nil {
		return err
	}
	out, err := s.WaitForCellOutput(ctx, definitionCell, env.CellTimeout)
	if err != nil {
		return fmt.Errorf("define %s: %w", op.Name, err)
	}
	if out[0] != op.Name {
		return fmt.Errorf("define %s: %w", op.Name,
			&notebook.OutputError{Fragment: 0, Expected: fmt.Sprintf("%q", op.Name), Output: out})
	}
	return nil
}

func checkDebug(ctx context.Context, s Session, env Env) error {
	if err := defineOperation(ctx, s, env); err != nil {
		return err
	}
	fx := env.Fixture
	opts := debug.Options{
		Operation:      fx.Operation.Name,
		Trace:          fx.Operation.Trace,
		Banners:        fx.Debug.Banners,
		ButtonSelector: fx.Debug.Button,
		StartTimeout:   env.DebugTimeout,
		SettleTimeout:  env.DebugTimeout,
	}
	for i, p := range debug.Paths() {
		if i > 0 {
			if err := s.ClearCellOutput(ctx, magicCell); err != nil {
				return err
			}
		}
		if err := debug.Replay(ctx, s, magicCell, p, opts); err != nil {
			return fmt.Errorf("debug path %s: %w", p, err)
		}
		env.Log.Print("debug path %s passed", p)
	}
	return nil
}

func checkTrace(ctx context.Context, s Session, env Env) error {
	if err := defineOperation(ctx, s, env); err != nil {
		return err
	}
	fx := env.Fixture
	if err := s.AddAndExecuteCell(ctx, magicCell, "%trace "+fx.Operation.Name); err != nil {
		return err
	}
	if _, err := s.WaitForCellOutput(ctx, magicCell, env.CellTimeout); err != nil {
		return err
	}

	want := fx.FullTrace()
	out, err := s.WaitForCellOutputFunc(ctx, magicCell, env.DebugTimeout, func(out []string) bool {
		return len(out) > 0 && out[0] == want
	})
	if err != nil {
		if errors.Is(err, notebook.ErrCellExecutionTimeout) {
			return &notebook.OutputError{Fragment: 0, Expected: fmt.Sprintf("trace %q", want), Output: out}
		}
		return err
	}
	if len(out) != 1 {
		return &notebook.OutputError{Fragment: -1, Expected: "1 fragment", Output: out}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
