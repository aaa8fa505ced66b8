// Package report summarizes a probe run as markdown or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/umputun/nbprobe/pkg/notify"
	"github.com/umputun/nbprobe/pkg/suite"
)

// Report is the outcome of one probe run.
type Report struct {
	Server   string         `json:"server"` // token redacted
	Engine   string         `json:"engine"`
	Browser  string         `json:"browser,omitempty"`
	Kernel   string         `json:"kernel"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
	Results  []suite.Result `json:"results"`
	Error    string         `json:"error,omitempty"` // run level failure, e.g. no server
}

// Passed reports whether the run completed and every check passed.
// a run without results never passes.
func (r *Report) Passed() bool {
	return r.Error == "" && len(r.Results) > 0 && suite.Failed(r.Results) == 0
}

// Failures lists failed and skipped checks as "name: error".
func (r *Report) Failures() []string {
	var res []string
	for _, c := range r.Results {
		if c.Status == suite.StatusPass {
			continue
		}
		res = append(res, fmt.Sprintf("%s: %s", c.Check, c.Error))
	}
	return res
}

// Summary is a one-line outcome, e.g. "PASS: 4 passed, 0 failed".
func (r *Report) Summary() string {
	verdict := "FAIL"
	if r.Passed() {
		verdict = "PASS"
	}
	failed := suite.Failed(r.Results)
	return fmt.Sprintf("%s: %d passed, %d failed", verdict, len(r.Results)-failed, failed)
}

// Markdown renders the report as a markdown document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# nbprobe report\n\n")

	engine := r.Engine
	if r.Browser != "" {
		engine = fmt.Sprintf("%s (%s)", r.Engine, r.Browser)
	}
	fmt.Fprintf(&b, "- **server**: %s\n", orDash(r.Server))
	fmt.Fprintf(&b, "- **engine**: %s\n", orDash(engine))
	fmt.Fprintf(&b, "- **kernel**: %s\n", orDash(r.Kernel))
	if !r.Started.IsZero() {
		fmt.Fprintf(&b, "- **started**: %s\n", r.Started.Format(time.DateTime))
	}
	fmt.Fprintf(&b, "- **duration**: %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- **result**: %s\n", r.Summary())

	if r.Error != "" {
		fmt.Fprintf(&b, "\n**run failed**: %s\n", r.Error)
	}

	if len(r.Results) > 0 {
		b.WriteString("\n| check | status | duration |\n|---|---|---|\n")
		for _, c := range r.Results {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Check, c.Status, c.Duration.Round(time.Millisecond))
		}
	}

	var failed []suite.Result
	for _, c := range r.Results {
		if c.Status != suite.StatusPass {
			failed = append(failed, c)
		}
	}
	if len(failed) > 0 {
		b.WriteString("\n## Failures\n")
		for _, c := range failed {
			fmt.Fprintf(&b, "\n### %s\n\n```\n%s\n```\n", c.Check, c.Error)
		}
	}
	return b.String()
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

// Write saves the report, the format follows the file extension (.json, .md or .markdown).
func (r *Report) Write(path string) error {
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		d, err := r.JSON()
		if err != nil {
			return err
		}
		data = append(d, '\n')
	case ".md", ".markdown":
		data = []byte(r.Markdown())
	default:
		return fmt.Errorf("unsupported report format %q, use .json or .md", filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// NotifyResult converts the report into a notification payload.
func (r *Report) NotifyResult() notify.Result {
	res := notify.Result{
		Status:   "failure",
		Server:   r.Server,
		Engine:   r.Engine,
		Checks:   len(r.Results),
		Failed:   suite.Failed(r.Results),
		Failures: r.Failures(),
		Duration: r.Duration.Round(time.Second).String(),
		Error:    r.Error,
	}
	if r.Passed() {
		res.Status = "success"
	}
	return res
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
