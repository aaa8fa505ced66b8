package status

import (
	"sync"
	"time"
)

// PhaseTime is the time a run spent in one phase.
type PhaseTime struct {
	Phase    Phase
	Duration time.Duration
}

// PhaseHolder keeps the current run phase and accumulates the time spent in each phase.
// watch mode cycles through the phases once per probe, the totals cover all cycles.
type PhaseHolder struct {
	mu    sync.Mutex
	phase Phase
	since time.Time
	spent map[Phase]time.Duration
	now   func() time.Time // time.Now if nil
}

// Set switches to phase p. setting the current phase again keeps its clock running.
func (h *PhaseHolder) Set(p Phase) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p == h.phase && !h.since.IsZero() {
		return
	}
	now := h.clock()
	h.account(now)
	h.phase, h.since = p, now
}

// Get returns the current phase.
func (h *PhaseHolder) Get() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// Spent returns the time per known phase, the running one counted up to now.
// phases never entered are skipped, order follows Phases.
func (h *PhaseHolder) Spent() []PhaseTime {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clock()
	var res []PhaseTime
	for _, p := range Phases() {
		d, entered := h.spent[p]
		if p == h.phase && !h.since.IsZero() {
			d += now.Sub(h.since)
			entered = true
		}
		if entered {
			res = append(res, PhaseTime{Phase: p, Duration: d})
		}
	}
	return res
}

// account adds the running span to the totals, must be called with mu held.
func (h *PhaseHolder) account(now time.Time) {
	if h.phase == "" || h.since.IsZero() {
		return
	}
	if h.spent == nil {
		h.spent = make(map[Phase]time.Duration)
	}
	h.spent[h.phase] += now.Sub(h.since)
}

func (h *PhaseHolder) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}
