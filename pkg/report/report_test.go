package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/nbprobe/pkg/notify"
	"github.com/umputun/nbprobe/pkg/suite"
)

func sampleReport() *Report {
	return &Report{
		Server:   "http://localhost:8888/?token=***",
		Engine:   "playwright",
		Browser:  "firefox",
		Kernel:   "iqsharp",
		Started:  time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		Duration: 42*time.Second + 300*time.Millisecond,
		Results: []suite.Result{
			{Check: "version", Status: suite.StatusPass, Duration: 1200 * time.Millisecond},
			{Check: "debug", Status: suite.StatusFail, Duration: 30 * time.Second,
				Error: `unexpected cell output: fragment 2: expected "|0⟩ q0 H", got ""`, Err: errors.New("x")},
			{Check: "trace", Status: suite.StatusSkip, Error: "canceled"},
		},
	}
}

func TestReport_Passed(t *testing.T) {
	tests := []struct {
		name string
		r    Report
		want bool
	}{
		{name: "all pass", r: Report{Results: []suite.Result{{Status: suite.StatusPass}, {Status: suite.StatusPass}}}, want: true},
		{name: "one fail", r: Report{Results: []suite.Result{{Status: suite.StatusPass}, {Status: suite.StatusFail}}}},
		{name: "skipped", r: Report{Results: []suite.Result{{Status: suite.StatusSkip}}}},
		{name: "no results", r: Report{}},
		{name: "run error", r: Report{Error: "no server", Results: []suite.Result{{Status: suite.StatusPass}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.r.Passed())
		})
	}
}

func TestReport_Summary(t *testing.T) {
	assert.Equal(t, "FAIL: 1 passed, 2 failed", sampleReport().Summary())
	r := Report{Results: []suite.Result{{Status: suite.StatusPass}}}
	assert.Equal(t, "PASS: 1 passed, 0 failed", r.Summary())
}

func TestReport_Markdown(t *testing.T) {
	md := sampleReport().Markdown()

	assert.Contains(t, md, "# nbprobe report")
	assert.Contains(t, md, "- **server**: http://localhost:8888/?token=***")
	assert.Contains(t, md, "- **engine**: playwright (firefox)")
	assert.Contains(t, md, "- **started**: 2026-10-18 09:30:00")
	assert.Contains(t, md, "- **duration**: 42.3s")
	assert.Contains(t, md, "- **result**: FAIL: 1 passed, 2 failed")
	assert.Contains(t, md, "| version | pass | 1.2s |")
	assert.Contains(t, md, "| debug | fail | 30s |")
	assert.Contains(t, md, "| trace | skip | 0s |")
	assert.Contains(t, md, "### debug\n\n```\nunexpected cell output: fragment 2: expected \"|0⟩ q0 H\", got \"\"\n```")
	assert.Contains(t, md, "### trace")
	assert.NotContains(t, md, "### version")
}

func TestReport_Markdown_RunError(t *testing.T) {
	r := Report{Error: "notebook server did not start in 3m0s"}
	md := r.Markdown()
	assert.Contains(t, md, "**run failed**: notebook server did not start in 3m0s")
	assert.Contains(t, md, "- **engine**: -")
	assert.NotContains(t, md, "| check |")
	assert.NotContains(t, md, "## Failures")
}

func TestReport_JSON(t *testing.T) {
	data, err := sampleReport().JSON()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "playwright", got["engine"])
	assert.Equal(t, "iqsharp", got["kernel"])
	results, ok := got["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 3)
	debugRes, ok := results[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fail", debugRes["status"])
	assert.NotContains(t, debugRes, "Err")
	assert.NotContains(t, got, "error")
}

func TestReport_Write(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "out", "report.json")
		require.NoError(t, r.Write(path))
		data, err := os.ReadFile(path) //nolint:gosec // test file
		require.NoError(t, err)
		assert.True(t, json.Valid(data))
	})

	t.Run("markdown", func(t *testing.T) {
		path := filepath.Join(dir, "report.MD")
		require.NoError(t, r.Write(path))
		data, err := os.ReadFile(path) //nolint:gosec // test file
		require.NoError(t, err)
		assert.Equal(t, r.Markdown(), string(data))
	})

	t.Run("unsupported", func(t *testing.T) {
		err := r.Write(filepath.Join(dir, "report.txt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported report format ".txt"`)
	})
}

func TestReport_NotifyResult(t *testing.T) {
	got := sampleReport().NotifyResult()
	assert.Equal(t, notify.Result{
		Status:   "failure",
		Server:   "http://localhost:8888/?token=***",
		Engine:   "playwright",
		Checks:   3,
		Failed:   2,
		Failures: []string{`debug: unexpected cell output: fragment 2: expected "|0⟩ q0 H", got ""`, "trace: canceled"},
		Duration: "42s",
	}, got)

	ok := Report{Engine: "rod", Duration: 90 * time.Second, Results: []suite.Result{{Check: "version", Status: suite.StatusPass}}}
	assert.Equal(t, "success", ok.NotifyResult().Status)
	assert.Empty(t, ok.NotifyResult().Failures)
	assert.Equal(t, "1m30s", ok.NotifyResult().Duration)
}
