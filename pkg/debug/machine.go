// Package debug models an interactive IQ# %debug session as an explicit state machine
// and replays its paths against a live notebook.
package debug

import (
	"errors"
	"fmt"
	"strings"
)

// State of a debug session.
type State int

// debug session states
const (
	NotStarted State = iota
	Started
	SteppedOnce
	SteppedTwice
	Interrupted
	Finished
)

var stateNames = map[State]string{
	NotStarted:   "not-started",
	Started:      "started",
	SteppedOnce:  "stepped-once",
	SteppedTwice: "stepped-twice",
	Interrupted:  "interrupted",
	Finished:     "finished",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no action can leave the state.
func (s State) Terminal() bool { return s == Interrupted || s == Finished }

// Action is a user interaction with a debug session.
type Action string

// debug actions
const (
	ActionStart     Action = "start"     // run %debug
	ActionInterrupt Action = "interrupt" // interrupt the kernel from the menu
	ActionStep      Action = "step"      // click the "next step" button
)

// actions in the order paths are explored
var actions = []Action{ActionStart, ActionInterrupt, ActionStep}

// ErrInvalidTransition is returned for an action not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid debug transition")

type edge struct {
	from   State
	action Action
}

var transitions = map[edge]State{
	{NotStarted, ActionStart}:      Started,
	{Started, ActionInterrupt}:     Interrupted,
	{Started, ActionStep}:          SteppedOnce,
	{SteppedOnce, ActionInterrupt}: Interrupted,
	{SteppedOnce, ActionStep}:      SteppedTwice,
}

// automatic transitions, taken right after entering the key state
var automatic = map[State]State{
	SteppedTwice: Finished,
}

// Next returns the state reached from s by a, following automatic transitions.
func Next(s State, a Action) (State, error) {
	next, ok := transitions[edge{s, a}]
	if !ok {
		return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a, s)
	}
	for {
		to, ok := automatic[next]
		if !ok {
			return next, nil
		}
		next = to
	}
}

// Trace describes the expected %trace/%debug rendering of an operation: a register
// prefix followed by one gate name per executed step.
type Trace struct {
	Prefix string   `yaml:"prefix" json:"prefix"`
	Gates  []string `yaml:"gates" json:"gates"`
}

// Render returns the trace after steps executed instructions, "" for none.
func (t Trace) Render(steps int) string {
	if steps <= 0 {
		return ""
	}
	steps = min(steps, len(t.Gates))
	return strings.TrimSpace(t.Prefix + " " + strings.Join(t.Gates[:steps], " "))
}

// Machine tracks a single debug session.
type Machine struct {
	state   State
	steps   int
	trace   Trace
	history []Action
}

// NewMachine makes a machine in NotStarted state.
func NewMachine(trace Trace) *Machine {
	return &Machine{state: NotStarted, trace: trace}
}

// Apply performs an action, the machine is unchanged on error.
func (m *Machine) Apply(a Action) error {
	next, err := Next(m.state, a)
	if err != nil {
		return err
	}
	if a == ActionStep {
		m.steps++
	}
	m.state = next
	m.history = append(m.history, a)
	return nil
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// ExpectedTrace returns the trace the debugger shows in the current state.
func (m *Machine) ExpectedTrace() string { return m.trace.Render(m.steps) }

// Path is a sequence of actions leading from NotStarted to a terminal state.
type Path struct {
	Actions []Action
	Final   State
	Steps   int
}

func (p Path) String() string {
	parts := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",") + " -> " + p.Final.String()
}

// Paths enumerates every action sequence from NotStarted to a terminal state by walking
// the transition table depth first.
func Paths() []Path {
	var res []Path
	var walk func(s State, acts []Action, steps int)
	walk = func(s State, acts []Action, steps int) {
		if s.Terminal() {
			res = append(res, Path{Actions: append([]Action(nil), acts...), Final: s, Steps: steps})
			return
		}
		for _, a := range actions {
			next, err := Next(s, a)
			if err != nil {
				continue
			}
			n := steps
			if a == ActionStep {
				n++
			}
			walk(next, append(acts, a), n)
		}
	}
	walk(NotStarted, nil, 0)
	return res
}
