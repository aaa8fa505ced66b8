package notebook

import (
	"errors"
	"fmt"
)

// error kinds reported by a session, wrapped with details.
var (
	ErrSessionInit          = errors.New("notebook session init failed")
	ErrCellExecutionTimeout = errors.New("cell execution timeout")
	ErrScriptExecution      = errors.New("script execution failed")
	ErrUnexpectedOutput     = errors.New("unexpected cell output")
)

// OutputError is an assertion failure on rendered cell output. it always carries
// what was actually rendered.
type OutputError struct {
	Fragment int      // offending fragment index, -1 if the fragment count is wrong
	Expected string   // human readable expectation
	Output   []string // all fragments as rendered
}

func (e *OutputError) Error() string {
	if e.Fragment < 0 || e.Fragment >= len(e.Output) {
		return fmt.Sprintf("%v: expected %s, got %d fragments %q", ErrUnexpectedOutput, e.Expected, len(e.Output), e.Output)
	}
	return fmt.Sprintf("%v: fragment %d: expected %s, got %q", ErrUnexpectedOutput, e.Fragment, e.Expected, e.Output[e.Fragment])
}

// Unwrap makes errors.Is(err, ErrUnexpectedOutput) work.
func (e *OutputError) Unwrap() error { return ErrUnexpectedOutput }
