package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedRegistry returns canned answers, one per query, repeating the last one.
type scriptedRegistry struct {
	mu      sync.Mutex
	answers []func() ([]ServerRecord, error)
	calls   []time.Time
}

func (s *scriptedRegistry) Servers(context.Context) ([]ServerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, time.Now())
	idx := min(len(s.calls)-1, len(s.answers)-1)
	return s.answers[idx]()
}

func (s *scriptedRegistry) callTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.calls...)
}

func none() ([]ServerRecord, error) { return nil, nil }

type logRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (l *logRecorder) Print(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

func TestWaitForServer_FoundEarly(t *testing.T) {
	want := ServerRecord{URL: "http://localhost:8888/", Token: "abc"}
	reg := &scriptedRegistry{answers: []func() ([]ServerRecord, error){
		none, none,
		func() ([]ServerRecord, error) { return []ServerRecord{want, {URL: "http://other/"}}, nil },
	}}
	log := &logRecorder{}

	start := time.Now()
	got, err := WaitForServer(context.Background(), reg, WaitOptions{Wait: time.Minute, Interval: 20 * time.Millisecond, Log: log})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Less(t, time.Since(start), 10*time.Second, "should return as soon as the record appears")
	assert.Len(t, reg.callTimes(), 3)
	assert.Equal(t, []string{"waiting for notebook server to start..."}, log.msgs)
}

func TestWaitForServer_Timeout(t *testing.T) {
	reg := &scriptedRegistry{answers: []func() ([]ServerRecord, error){none}}

	_, err := WaitForServer(context.Background(), reg, WaitOptions{Wait: 100 * time.Millisecond, Interval: 20 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartupTimeout)
	assert.Contains(t, err.Error(), "100ms")
}

func TestWaitForServer_TimeoutReportsLastRegistryError(t *testing.T) {
	reg := &scriptedRegistry{answers: []func() ([]ServerRecord, error){
		func() ([]ServerRecord, error) { return nil, errors.New("permission denied") },
	}}

	_, err := WaitForServer(context.Background(), reg, WaitOptions{Wait: 60 * time.Millisecond, Interval: 20 * time.Millisecond})
	require.ErrorIs(t, err, ErrStartupTimeout)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestWaitForServer_RegistryErrorIsRetried(t *testing.T) {
	want := ServerRecord{URL: "http://localhost:8888/"}
	reg := &scriptedRegistry{answers: []func() ([]ServerRecord, error){
		func() ([]ServerRecord, error) { return nil, errors.New("transient") },
		func() ([]ServerRecord, error) { return []ServerRecord{want}, nil },
	}}

	got, err := WaitForServer(context.Background(), reg, WaitOptions{Wait: time.Minute, Interval: 10 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWaitForServer_NoFasterThanInterval(t *testing.T) {
	interval := 40 * time.Millisecond
	reg := &scriptedRegistry{answers: []func() ([]ServerRecord, error){none}}

	_, err := WaitForServer(context.Background(), reg, WaitOptions{Wait: 300 * time.Millisecond, Interval: interval})
	require.ErrorIs(t, err, ErrStartupTimeout)

	calls := reg.callTimes()
	require.GreaterOrEqual(t, len(calls), 2)
	for i := 1; i < len(calls); i++ {
		// ticker jitter allowance
		assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), interval-10*time.Millisecond)
	}
}

func TestWaitForServer_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reg := &scriptedRegistry{answers: []func() ([]ServerRecord, error){none}}

	_, err := WaitForServer(ctx, reg, WaitOptions{Wait: time.Minute, Interval: 10 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStartupTimeout)
}

func TestWaitForServer_Defaults(t *testing.T) {
	want := ServerRecord{URL: "http://localhost:8888/"}
	reg := &scriptedRegistry{answers: []func() ([]ServerRecord, error){
		func() ([]ServerRecord, error) { return []ServerRecord{want}, nil },
	}}
	got, err := WaitForServer(context.Background(), reg, WaitOptions{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
