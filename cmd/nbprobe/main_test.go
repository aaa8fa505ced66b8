package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/nbprobe/pkg/config"
	"github.com/umputun/nbprobe/pkg/discovery"
	"github.com/umputun/nbprobe/pkg/notebook"
	"github.com/umputun/nbprobe/pkg/progress"
	"github.com/umputun/nbprobe/pkg/report"
	"github.com/umputun/nbprobe/pkg/web"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return cfg
}

func TestResolve_Defaults(t *testing.T) {
	s, err := resolve(testConfig(t), opts{})
	require.NoError(t, err)

	assert.Equal(t, []string{"version", "modules", "debug", "trace"}, s.checkNames())
	assert.Equal(t, notebook.EnginePlaywright, s.launch.Engine)
	assert.Equal(t, "firefox", s.launch.Browser)
	assert.True(t, s.launch.Headless)
	assert.Equal(t, 180*time.Second, s.wait)
	assert.Equal(t, 5*time.Second, s.pollInterval)
	assert.Equal(t, 1, s.runner.Parallel)
	assert.Equal(t, 120*time.Second, s.runner.CellTimeout)
	assert.Equal(t, 60*time.Second, s.runner.DebugTimeout)
	assert.Equal(t, "iqsharp", s.session.Kernel)
	assert.Equal(t, 250*time.Millisecond, s.session.PollInterval)
	assert.Equal(t, s.launch, s.session.Launch)
	require.NotNil(t, s.fixture)
	assert.Same(t, s.fixture, s.runner.Fixture)

	_, isRuntime := s.registry().(*discovery.RuntimeRegistry)
	assert.True(t, isRuntime)
}

func TestResolve_FlagsOverrideConfig(t *testing.T) {
	s, err := resolve(testConfig(t), opts{
		Checks:   []string{"trace", "debug"},
		URL:      "http://localhost:8888",
		Token:    "secret",
		Wait:     time.Minute,
		Engine:   "rod",
		Browser:  "chromium",
		Headed:   true,
		Parallel: 2,
		Report:   "out.json",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"debug", "trace"}, s.checkNames(), "run order is fixed")
	assert.Equal(t, notebook.EngineRod, s.launch.Engine)
	assert.Equal(t, "chromium", s.launch.Browser)
	assert.False(t, s.launch.Headless)
	assert.Equal(t, time.Minute, s.wait)
	assert.Equal(t, 2, s.runner.Parallel)
	assert.Equal(t, "out.json", s.reportPath)
	assert.Equal(t, "http://localhost:8888/?token=[REDACTED]", s.serverLabel())

	_, isStatic := s.registry().(*discovery.StaticRegistry)
	assert.True(t, isStatic)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		o    opts
		err  string
	}{
		{name: "unknown check", o: opts{Checks: []string{"nope"}}, err: `unknown check "nope"`},
		{name: "unknown engine", o: opts{Engine: "netscape"}, err: `unknown engine "netscape"`},
		{name: "token without url", o: opts{Token: "t"}, err: "--token requires --url"},
		{name: "watch with url", o: opts{Watch: true, URL: "http://localhost:1"}, err: "can't be used with --url"},
		{name: "watch with server cmd", o: opts{Watch: true, ServerCmd: "jupyter notebook"}, err: "can't be used with --server-cmd"},
		{name: "missing fixture", o: opts{Fixture: "/nonexistent/fixture.yml"}, err: "load fixture"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolve(testConfig(t), tc.o)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestSettings_ServerLabel(t *testing.T) {
	assert.Equal(t, "http://host:1/", settings{serverURL: "http://host:1"}.serverLabel())
	assert.Equal(t, "runtime dir /tmp/rt", settings{runtimeDir: "/tmp/rt"}.serverLabel())
}

func TestSettings_ServerEnv(t *testing.T) {
	assert.Nil(t, settings{}.serverEnv())
	assert.Equal(t, []string{"JUPYTER_RUNTIME_DIR=/tmp/rt"}, settings{runtimeDir: "/tmp/rt"}.serverEnv())
}

func TestWithCause(t *testing.T) {
	errWait := errors.New("wait for server: context canceled")
	assert.Equal(t, errWait, withCause(context.Background(), errWait), "live context keeps the error")

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errServerExited)
	err := withCause(ctx, errWait)
	require.ErrorIs(t, err, errServerExited)
	assert.Equal(t, "wait for server: context canceled: notebook server exited", err.Error())
	assert.Equal(t, err, withCause(ctx, err), "cause is added once")

	plain, cancelPlain := context.WithCancel(context.Background())
	cancelPlain()
	assert.Equal(t, errWait, withCause(plain, errWait), "plain cancel has nothing to add")
}

func TestProbe_ServerExited(t *testing.T) {
	dir := t.TempDir()
	s, err := resolve(testConfig(t), opts{RuntimeDir: filepath.Join(dir, "runtime"), Wait: 10 * time.Second, NoColor: true})
	require.NoError(t, err)

	log, err := progress.NewLogger(progress.Config{Path: filepath.Join(dir, "progress.txt"), NoColor: true})
	require.NoError(t, err)
	defer log.Close()

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errServerExited)
	p := &prober{settings: s, base: log}
	rep, err := p.probe(ctx, s.registry())
	require.NoError(t, err)
	assert.False(t, rep.Passed())
	assert.Contains(t, rep.Error, "notebook server exited")
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Empty(t, firstNonEmpty())
	assert.Empty(t, firstNonEmpty("", ""))
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
}

func TestProbe_NoServer(t *testing.T) {
	dir := t.TempDir()
	s, err := resolve(testConfig(t), opts{RuntimeDir: filepath.Join(dir, "runtime"), Wait: 300 * time.Millisecond, NoColor: true,
		Report: filepath.Join(dir, "report.json")})
	require.NoError(t, err)
	s.pollInterval = 50 * time.Millisecond

	log, err := progress.NewLogger(progress.Config{Path: filepath.Join(dir, "progress.txt"), NoColor: true})
	require.NoError(t, err)
	defer log.Close()

	p := &prober{settings: s, base: log}
	rep, err := p.probe(context.Background(), s.registry())
	require.NoError(t, err)
	assert.False(t, rep.Passed())
	assert.Contains(t, rep.Error, "notebook server did not start")
	assert.Empty(t, rep.Results)
	assert.Positive(t, rep.Duration)

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "notebook server did not start")

	progressLog, err := os.ReadFile(filepath.Join(dir, "progress.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(progressLog), "FAIL: 0 passed, 0 failed")
}

func TestProber_LoggerWithDashboard(t *testing.T) {
	dir := t.TempDir()
	s, err := resolve(testConfig(t), opts{})
	require.NoError(t, err)

	log, err := progress.NewLogger(progress.Config{Path: filepath.Join(dir, "progress.txt"), NoColor: true})
	require.NoError(t, err)
	defer log.Close()

	srv, err := web.NewServer(web.ServerConfig{}, nil)
	require.NoError(t, err)
	p := &prober{settings: s, base: log, dashboard: srv}

	l1, obs1 := p.logger(context.Background())
	require.NotNil(t, obs1)
	first := srv.Run()
	require.NotNil(t, first)
	l1.Print("hello")
	assert.Equal(t, 1, first.Buffer.Count())

	_, _ = p.logger(context.Background())
	assert.NotSame(t, first, srv.Run(), "every probe gets its own run")
	assert.Equal(t, 0, first.Buffer.Count(), "previous run is closed")

	require.NoError(t, srv.Run().Finish(&report.Report{}))
}
