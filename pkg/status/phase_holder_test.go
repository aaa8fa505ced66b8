package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is advanced by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newHolder() (*PhaseHolder, *fakeClock) {
	c := &fakeClock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	return &PhaseHolder{now: c.now}, c
}

func TestPhaseHolder_SetGet(t *testing.T) {
	h := &PhaseHolder{}
	assert.Equal(t, Phase(""), h.Get())
	assert.Empty(t, h.Spent())

	h.Set(PhaseCheck)
	assert.Equal(t, PhaseCheck, h.Get())

	h.Set(PhaseReport)
	assert.Equal(t, PhaseReport, h.Get())
}

func TestPhaseHolder_Spent(t *testing.T) {
	h, clock := newHolder()

	h.Set(PhaseDiscover)
	clock.advance(12 * time.Second)
	h.Set(PhaseCheck)
	clock.advance(time.Minute)
	h.Set(PhaseCheck) // same phase, clock keeps running
	clock.advance(30 * time.Second)
	h.Set(PhaseReport)
	clock.advance(time.Second)

	assert.Equal(t, []PhaseTime{
		{Phase: PhaseDiscover, Duration: 12 * time.Second},
		{Phase: PhaseCheck, Duration: 90 * time.Second},
		{Phase: PhaseReport, Duration: time.Second},
	}, h.Spent())
}

func TestPhaseHolder_SpentAccumulatesCycles(t *testing.T) {
	h, clock := newHolder()
	for range 3 {
		h.Set(PhaseDiscover)
		clock.advance(2 * time.Second)
		h.Set(PhaseCheck)
		clock.advance(10 * time.Second)
	}

	assert.Equal(t, []PhaseTime{
		{Phase: PhaseDiscover, Duration: 6 * time.Second},
		{Phase: PhaseCheck, Duration: 30 * time.Second},
	}, h.Spent(), "report phase never entered")
}

func TestPhaseHolder_UnknownPhaseNotListed(t *testing.T) {
	h, clock := newHolder()
	h.Set("warmup")
	clock.advance(time.Second)
	h.Set(PhaseCheck)
	clock.advance(time.Second)

	assert.Equal(t, []PhaseTime{{Phase: PhaseCheck, Duration: time.Second}}, h.Spent())
}

func TestPhaseHolder_ConcurrentAccess(t *testing.T) {
	h := &PhaseHolder{}
	phases := Phases()

	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := range 32 {
		wg.Go(func() {
			<-start
			for i := range 500 {
				h.Set(phases[(w+i)%len(phases)])
				h.Get()
				if i%50 == 0 {
					h.Spent()
				}
			}
		})
	}
	close(start)
	wg.Wait()

	assert.Contains(t, phases, h.Get())
	assert.NotEmpty(t, h.Spent())
}

func TestSections(t *testing.T) {
	s := NewCheckSection("debug", "step through %debug")
	assert.Equal(t, SectionCheck, s.Type)
	assert.Equal(t, "debug", s.Check)
	assert.Equal(t, "check debug: step through %debug", s.Label)

	assert.Equal(t, "check trace", NewCheckSection("trace", "").Label)

	g := NewGenericSection("report")
	assert.Equal(t, SectionGeneric, g.Type)
	assert.Empty(t, g.Check)
	assert.Equal(t, "report", g.Label)
}
