// Package status defines shared run-model types for nbprobe.
// phase and section types used by progress, web and the cli.
package status

// Phase represents run phase for color coding.
type Phase string

// Phase constants for run stages.
const (
	PhaseDiscover Phase = "discover" // waiting for a notebook server (info color)
	PhaseCheck    Phase = "check"    // running browser checks (green)
	PhaseReport   Phase = "report"   // rendering and delivering the report (cyan)
)

// Phases returns all phases in run order.
func Phases() []Phase {
	return []Phase{PhaseDiscover, PhaseCheck, PhaseReport}
}
