package web

import (
	"fmt"
	"log"

	"github.com/umputun/nbprobe/pkg/status"
	"github.com/umputun/nbprobe/pkg/suite"
)

//go:generate moq -out mocks/logger.go -pkg mocks -skip-ensure -fmt goimports . Logger

// Logger is the progress logger wrapped by BroadcastLogger.
type Logger interface {
	Print(format string, args ...any)
	PrintRaw(format string, args ...any)
	PrintSection(section status.Section)
	PrintAligned(text string)
	Error(format string, args ...any)
	Warn(format string, args ...any)
	SetPhase(phase status.Phase)
	Phase() status.Phase
	Path() string
}

// BroadcastLogger wraps a Logger and publishes every line to the run's SSE stream.
// all calls are forwarded to the inner logger first. it also observes check lifecycle
// and publishes check_start/check_end events. safe for concurrent use as long as
// the inner logger is.
type BroadcastLogger struct {
	inner Logger
	run   *Run
}

// NewBroadcastLogger creates a logger that wraps inner and broadcasts to run.
func NewBroadcastLogger(inner Logger, run *Run) *BroadcastLogger {
	return &BroadcastLogger{inner: inner, run: run}
}

// SetPhase sets the current run phase for color coding.
func (b *BroadcastLogger) SetPhase(phase status.Phase) {
	b.inner.SetPhase(phase)
}

// Phase returns the current run phase.
func (b *BroadcastLogger) Phase() status.Phase {
	return b.inner.Phase()
}

// Print writes a timestamped message and broadcasts it.
func (b *BroadcastLogger) Print(format string, args ...any) {
	b.inner.Print(format, args...)
	b.broadcast(NewOutputEvent(b.inner.Phase(), formatText(format, args...)))
}

// PrintRaw writes without timestamp and broadcasts it.
func (b *BroadcastLogger) PrintRaw(format string, args ...any) {
	b.inner.PrintRaw(format, args...)
	b.broadcast(NewOutputEvent(b.inner.Phase(), formatText(format, args...)))
}

// PrintSection writes a section header and broadcasts it.
func (b *BroadcastLogger) PrintSection(section status.Section) {
	b.inner.PrintSection(section)
	b.broadcast(NewSectionEvent(b.inner.Phase(), section))
}

// PrintAligned writes multi-line text and broadcasts it as one event.
func (b *BroadcastLogger) PrintAligned(text string) {
	b.inner.PrintAligned(text)
	b.broadcast(NewOutputEvent(b.inner.Phase(), text))
}

// Error writes an error message and broadcasts it.
func (b *BroadcastLogger) Error(format string, args ...any) {
	b.inner.Error(format, args...)
	b.broadcast(NewErrorEvent(b.inner.Phase(), formatText(format, args...)))
}

// Warn writes a warning message and broadcasts it.
func (b *BroadcastLogger) Warn(format string, args ...any) {
	b.inner.Warn(format, args...)
	b.broadcast(NewWarnEvent(b.inner.Phase(), formatText(format, args...)))
}

// Path returns the progress file path.
func (b *BroadcastLogger) Path() string {
	return b.inner.Path()
}

// CheckStarted publishes a check_start event.
func (b *BroadcastLogger) CheckStarted(name string) {
	b.broadcast(NewCheckStartEvent(name))
}

// CheckFinished publishes a check_end event with the check result.
func (b *BroadcastLogger) CheckFinished(res suite.Result) {
	b.broadcast(NewCheckEndEvent(res))
}

// ForCheck returns a logger for one check: lines are prefixed with the check name
// and the published events are tagged with it, so the dashboard can filter by check.
func (b *BroadcastLogger) ForCheck(name string) suite.Logger {
	return checkLogger{b: b, name: name}
}

type checkLogger struct {
	b    *BroadcastLogger
	name string
}

func (c checkLogger) Print(format string, args ...any) {
	msg := formatText(format, args...)
	c.b.inner.Print("[%s] %s", c.name, msg)
	e := NewOutputEvent(c.b.inner.Phase(), msg)
	e.Check = c.name
	c.b.broadcast(e)
}

func (c checkLogger) Error(format string, args ...any) {
	msg := formatText(format, args...)
	c.b.inner.Error("[%s] %s", c.name, msg)
	e := NewErrorEvent(c.b.inner.Phase(), msg)
	e.Check = c.name
	c.b.broadcast(e)
}

// broadcast sends an event to the run for live streaming and replay.
// errors are logged but not propagated since logging is the primary operation.
func (b *BroadcastLogger) broadcast(e Event) {
	if err := b.run.Publish(e); err != nil {
		log.Printf("[WARN] failed to broadcast event: %v", err)
	}
}

// formatText formats a string with args, like fmt.Sprintf.
func formatText(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
