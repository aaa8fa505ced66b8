//go:build e2e

package e2e

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/nbprobe/pkg/report"
	"github.com/umputun/nbprobe/pkg/status"
	"github.com/umputun/nbprobe/pkg/suite"
	"github.com/umputun/nbprobe/pkg/web"
)

// startDashboard serves a fresh run on a free port and returns it with the dashboard url.
func startDashboard(t *testing.T, checks ...string) (*web.Run, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	run, err := web.NewRun("e2e-run", checks)
	require.NoError(t, err)
	srv, err := web.NewServer(web.ServerConfig{Host: "127.0.0.1", Port: port, Server: "http://localhost:8888/", Engine: "playwright"}, run)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	url := "http://127.0.0.1:" + strconv.Itoa(port)
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", "127.0.0.1:"+strconv.Itoa(port), pollInterval)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, pollTimeout, pollInterval)
	return run, url
}

func waitText(t *testing.T, loc playwright.Locator, text string) {
	t.Helper()
	require.NoError(t, loc.Filter(playwright.LocatorFilterOptions{HasText: text}).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(pollTimeout / time.Millisecond)),
	}), "wait for %q", text)
}

func TestDashboard_Header(t *testing.T) {
	_, url := startDashboard(t, "version")
	page := newPage(t)
	_, err := page.Goto(url)
	require.NoError(t, err)

	waitText(t, page.Locator("header h1"), "nbprobe")
	waitText(t, page.Locator("header .meta"), "http://localhost:8888/")
	waitText(t, page.Locator("#run"), "e2e-run")
	waitText(t, page.Locator("#checks div"), "version")
}

func TestDashboard_HistoryAndLiveEvents(t *testing.T) {
	run, url := startDashboard(t, "version", "trace")
	bl := web.NewBroadcastLogger(newNopProgress(), run)

	bl.SetPhase(status.PhaseDiscover)
	bl.Print("server found before the page opened")

	page := newPage(t)
	_, err := page.Goto(url)
	require.NoError(t, err)
	waitText(t, page.Locator("#log div"), "server found before the page opened")

	bl.CheckStarted("version")
	bl.ForCheck("version").Print("kernel version: iqsharp 0.28")
	waitText(t, page.Locator("#log div"), "kernel version: iqsharp 0.28")
	waitText(t, page.Locator("#checks div.running"), "version")

	bl.CheckFinished(suite.Result{Check: "version", Status: suite.StatusPass, Duration: 1200 * time.Millisecond})
	waitText(t, page.Locator("#checks div.pass"), "version")

	require.NoError(t, run.Finish(&report.Report{Results: []suite.Result{{Check: "version", Status: suite.StatusPass}}}))
	waitText(t, page.Locator("#state"), "passed")
	waitText(t, page.Locator("#log div.report"), "PASS: 1 passed, 0 failed")
}

func TestDashboard_FilterByCheck(t *testing.T) {
	run, url := startDashboard(t, "debug", "trace")
	bl := web.NewBroadcastLogger(newNopProgress(), run)
	bl.ForCheck("debug").Print("debug line")
	bl.ForCheck("trace").Print("trace line")

	page := newPage(t)
	_, err := page.Goto(url)
	require.NoError(t, err)
	waitText(t, page.Locator("#log div"), "trace line")

	require.NoError(t, page.Locator("#checks div").Filter(playwright.LocatorFilterOptions{HasText: "debug"}).Click())
	waitText(t, page.Locator("#checks div.selected"), "debug")
	assert.Eventually(t, func() bool {
		n, err := page.Locator("#log div").Filter(playwright.LocatorFilterOptions{HasText: "trace line"}).Count()
		return err == nil && n == 0
	}, pollTimeout, pollInterval, "trace lines hidden while debug is selected")
	waitText(t, page.Locator("#log div"), "debug line")
}

// nopProgress is a progress logger writing nowhere, the dashboard only needs the broadcast side.
type nopProgress struct{ phase status.Phase }

func newNopProgress() *nopProgress { return &nopProgress{phase: status.PhaseCheck} }

func (n *nopProgress) Print(string, ...any) {}
func (n *nopProgress) PrintRaw(string, ...any) {}
func (n *nopProgress) PrintSection(status.Section) {}
func (n *nopProgress) PrintAligned(string) {}
func (n *nopProgress) Error(string, ...any) {}
func (n *nopProgress) Warn(string, ...any) {}
func (n *nopProgress) SetPhase(p status.Phase) { n.phase = p }
func (n *nopProgress) Phase() status.Phase { return n.phase }
func (n *nopProgress) Path() string { return "" }
