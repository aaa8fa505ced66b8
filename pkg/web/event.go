// Package web provides the live dashboard: an HTTP server streaming probe events over SSE.
package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/umputun/nbprobe/pkg/status"
	"github.com/umputun/nbprobe/pkg/suite"
)

// EventType represents the type of event being streamed.
type EventType string

// event type constants for SSE streaming.
const (
	EventTypeOutput     EventType = "output"      // regular output line
	EventTypeSection    EventType = "section"     // section header
	EventTypeError      EventType = "error"       // error message
	EventTypeWarn       EventType = "warn"        // warning message
	EventTypeCheckStart EventType = "check_start" // a check began
	EventTypeCheckEnd   EventType = "check_end"   // a check finished, Status holds the outcome
	EventTypeReport     EventType = "report"      // the run finished, Text holds the summary
)

// Event represents a single event to be streamed to web clients.
type Event struct {
	Type       EventType    `json:"type"`
	Phase      status.Phase `json:"phase"`
	Check      string       `json:"check,omitempty"`
	Status     suite.Status `json:"status,omitempty"`
	DurationMs int64        `json:"duration_ms,omitempty"`
	Text       string       `json:"text"`
	Timestamp  time.Time    `json:"timestamp"`
}

func newEvent(typ EventType, phase status.Phase, text string) Event {
	return Event{Type: typ, Phase: phase, Text: text, Timestamp: time.Now()}
}

// NewOutputEvent creates an output event with current timestamp.
func NewOutputEvent(phase status.Phase, text string) Event {
	return newEvent(EventTypeOutput, phase, text)
}

// NewSectionEvent creates a section header event, check is empty for generic sections.
func NewSectionEvent(phase status.Phase, section status.Section) Event {
	e := newEvent(EventTypeSection, phase, section.Label)
	e.Check = section.Check
	return e
}

// NewErrorEvent creates an error event.
func NewErrorEvent(phase status.Phase, text string) Event {
	return newEvent(EventTypeError, phase, text)
}

// NewWarnEvent creates a warning event.
func NewWarnEvent(phase status.Phase, text string) Event {
	return newEvent(EventTypeWarn, phase, text)
}

// NewCheckStartEvent marks the start of a check.
func NewCheckStartEvent(name string) Event {
	e := newEvent(EventTypeCheckStart, status.PhaseCheck, "check "+name+" started")
	e.Check = name
	return e
}

// NewCheckEndEvent carries the result of a finished check.
func NewCheckEndEvent(res suite.Result) Event {
	text := fmt.Sprintf("check %s %s", res.Check, res.Status)
	if res.Error != "" {
		text += ": " + res.Error
	}
	e := newEvent(EventTypeCheckEnd, status.PhaseCheck, text)
	e.Check, e.Status, e.DurationMs = res.Check, res.Status, res.Duration.Milliseconds()
	return e
}

// NewReportEvent announces the end of the run.
func NewReportEvent(summary string) Event {
	return newEvent(EventTypeReport, status.PhaseReport, summary)
}

// JSON returns the event as JSON bytes for SSE streaming.
func (e Event) JSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
