package web

import (
	"sync"
)

// DefaultBufferSize is the default maximum number of events to keep in the buffer.
const DefaultBufferSize = 10000

// Buffer is a thread-safe ring buffer of events with a per-check index,
// used to serve history to clients that join late.
type Buffer struct {
	mu       sync.RWMutex
	events   []Event
	maxSize  int
	writePos int   // next position to write (wraps around)
	count    int   // total events written (for full detection)
	seq      []int // write sequence number per slot, orders slots across wraparound
	checks   map[string][]int
}

// NewBuffer creates a new ring buffer with the specified max size.
// if maxSize is 0, DefaultBufferSize is used.
func NewBuffer(maxSize int) *Buffer {
	if maxSize <= 0 {
		maxSize = DefaultBufferSize
	}
	return &Buffer{
		events:  make([]Event, maxSize),
		seq:     make([]int, maxSize),
		maxSize: maxSize,
		checks:  make(map[string][]int),
	}
}

// Add appends an event to the buffer, overwriting oldest if full.
func (b *Buffer) Add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// drop the index entry of the slot being overwritten first
	if b.count >= b.maxSize {
		b.unindex(b.writePos)
	}

	b.events[b.writePos] = e
	b.seq[b.writePos] = b.count
	if e.Check != "" {
		b.checks[e.Check] = append(b.checks[e.Check], b.writePos)
	}

	b.writePos = (b.writePos + 1) % b.maxSize
	b.count++
}

// unindex removes the check index entry for pos. must be called with lock held.
func (b *Buffer) unindex(pos int) {
	name := b.events[pos].Check
	if name == "" {
		return
	}
	indices := b.checks[name]
	// entries are chronological, the overwritten slot is the oldest one
	if len(indices) > 0 && indices[0] == pos {
		indices = indices[1:]
	}
	if len(indices) == 0 {
		delete(b.checks, name)
		return
	}
	b.checks[name] = indices
}

// All returns all events in chronological order.
func (b *Buffer) All() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	if b.count <= b.maxSize {
		result := make([]Event, b.count)
		copy(result, b.events[:b.count])
		return result
	}

	// buffer wrapped, read from writePos to end, then start to writePos
	result := make([]Event, b.maxSize)
	tailLen := b.maxSize - b.writePos
	copy(result[:tailLen], b.events[b.writePos:])
	copy(result[tailLen:], b.events[:b.writePos])
	return result
}

// ByCheck returns all events tagged with the given check in chronological order.
func (b *Buffer) ByCheck(name string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	indices := b.checks[name]
	if len(indices) == 0 {
		return nil
	}
	result := make([]Event, len(indices))
	for i, idx := range indices {
		result[i] = b.events[idx]
	}
	return result
}

// Checks returns the names of checks with buffered events.
func (b *Buffer) Checks() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	type first struct {
		name string
		seq  int
	}
	firsts := make([]first, 0, len(b.checks))
	for name, indices := range b.checks {
		firsts = append(firsts, first{name: name, seq: b.seq[indices[0]]})
	}
	// order by first appearance, insertion sort as the list is tiny
	for i := 1; i < len(firsts); i++ {
		for j := i; j > 0 && firsts[j].seq < firsts[j-1].seq; j-- {
			firsts[j], firsts[j-1] = firsts[j-1], firsts[j]
		}
	}
	res := make([]string, len(firsts))
	for i, f := range firsts {
		res[i] = f.name
	}
	return res
}

// Count returns the total number of events currently in the buffer.
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return min(b.count, b.maxSize)
}

// Clear removes all events from the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = make([]Event, b.maxSize)
	b.seq = make([]int, b.maxSize)
	b.writePos = 0
	b.count = 0
	b.checks = make(map[string][]int)
}
