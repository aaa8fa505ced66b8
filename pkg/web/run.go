package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	sse "github.com/tmaxmax/go-sse"

	"github.com/umputun/nbprobe/pkg/report"
	"github.com/umputun/nbprobe/pkg/suite"
)

// DefaultReplaySize is how many events the SSE stream replays to reconnecting clients.
const DefaultReplaySize = 1000

// RunState represents the current state of a probe run.
type RunState string

// run state constants.
const (
	RunStateRunning RunState = "running"
	RunStatePassed  RunState = "passed"
	RunStateFailed  RunState = "failed"
)

// CheckState is the live status of one check as shown on the dashboard.
type CheckState struct {
	Name       string `json:"name"`
	Status     string `json:"status"` // pending, running, or a suite.Status once finished
	DurationMs int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Snapshot is the JSON view of a run served by /api/report.
type Snapshot struct {
	ID      string         `json:"id"`
	State   RunState       `json:"state"`
	Started time.Time      `json:"started"`
	Checks  []CheckState   `json:"checks"`
	Report  *report.Report `json:"report,omitempty"`
}

// Run holds the live state of one probe run: check statuses, the event history and the SSE stream.
// each watch-mode iteration gets its own Run.
type Run struct {
	mu      sync.RWMutex
	id      string
	state   RunState
	started time.Time
	checks  []CheckState
	report  *report.Report

	Buffer *Buffer
	stream *sse.Server
}

// NewRun creates a run for the given checks, all of them pending.
func NewRun(id string, checks []string) (*Run, error) {
	replayer, err := sse.NewFiniteReplayer(DefaultReplaySize, true)
	if err != nil {
		return nil, fmt.Errorf("create replayer: %w", err)
	}

	r := &Run{
		id:      id,
		state:   RunStateRunning,
		started: time.Now(),
		Buffer:  NewBuffer(DefaultBufferSize),
		stream:  &sse.Server{Provider: &sse.Joe{Replayer: replayer}},
	}
	for _, name := range checks {
		r.checks = append(r.checks, CheckState{Name: name, Status: "pending"})
	}
	return r, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Publish records the event in the history, updates check states and streams it to SSE clients.
func (r *Run) Publish(e Event) error {
	data, err := e.JSON()
	if err != nil {
		return err
	}

	r.Buffer.Add(e)
	r.apply(e)

	msg := &sse.Message{}
	msg.AppendData(string(data))
	if err := r.stream.Publish(msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// apply updates check states from lifecycle events.
func (r *Run) apply(e Event) {
	if e.Type != EventTypeCheckStart && e.Type != EventTypeCheckEnd {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, c := range r.checks {
		if c.Name == e.Check {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.checks = append(r.checks, CheckState{Name: e.Check})
		idx = len(r.checks) - 1
	}

	c := &r.checks[idx]
	switch e.Type {
	case EventTypeCheckStart:
		c.Status = "running"
	case EventTypeCheckEnd:
		c.Status, c.DurationMs = string(e.Status), e.DurationMs
		if e.Status != suite.StatusPass {
			c.Error = e.Text
		}
	}
}

// Finish stores the final report and announces it to clients.
func (r *Run) Finish(rep *report.Report) error {
	r.mu.Lock()
	r.report = rep
	r.state = RunStateFailed
	if rep.Passed() {
		r.state = RunStatePassed
	}
	r.mu.Unlock()

	return r.Publish(NewReportEvent(rep.Summary()))
}

// State returns the current run state.
func (r *Run) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Snapshot returns a copy of the run state.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		ID:      r.id,
		State:   r.state,
		Started: r.started,
		Checks:  append([]CheckState(nil), r.checks...),
		Report:  r.report,
	}
}

// Close disconnects SSE clients and drops the history.
func (r *Run) Close(ctx context.Context) error {
	defer r.Buffer.Clear()
	if err := r.stream.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown event stream: %w", err)
	}
	return nil
}
