// Package progress provides timestamped logging to file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/umputun/nbprobe/pkg/config"
	"github.com/umputun/nbprobe/pkg/status"
)

// DefaultPath is the progress file written when Config.Path is empty.
const DefaultPath = "nbprobe-progress.txt"

// Colors holds the resolved output colors.
type Colors struct {
	phases    map[status.Phase]*color.Color
	warn      *color.Color
	err       *color.Color
	timestamp *color.Color
	info      *color.Color
}

// NewColors builds Colors from the "r,g,b" strings of the config.
// missing or malformed entries fall back to basic terminal colors.
func NewColors(cfg config.ColorConfig) *Colors {
	return &Colors{
		phases: map[status.Phase]*color.Color{
			status.PhaseDiscover: rgb(cfg.Discover, color.FgWhite),
			status.PhaseCheck:    rgb(cfg.Check, color.FgGreen),
			status.PhaseReport:   rgb(cfg.Report, color.FgCyan),
		},
		warn:      rgb(cfg.Warn, color.FgYellow),
		err:       rgb(cfg.Error, color.FgRed),
		timestamp: rgb(cfg.Timestamp, color.FgHiBlack),
		info:      rgb(cfg.Info, color.FgWhite),
	}
}

// rgb parses "r,g,b" into a 24-bit color, using fallback on empty or invalid input.
func rgb(val string, fallback color.Attribute) *color.Color {
	parts := strings.Split(val, ",")
	if len(parts) != 3 {
		return color.New(fallback)
	}
	var c [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return color.New(fallback)
		}
		c[i] = n
	}
	return color.RGB(c[0], c[1], c[2])
}

// Phase returns the color for a phase, info color for unknown phases.
func (c *Colors) Phase(p status.Phase) *color.Color {
	if pc, ok := c.phases[p]; ok {
		return pc
	}
	return c.info
}

// Logger writes timestamped output to both file and stdout.
// safe for concurrent use, parallel checks share one logger.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	stdout    io.Writer
	startTime time.Time
	phase     *status.PhaseHolder
	colors    *Colors
}

// Config holds logger configuration.
type Config struct {
	Path    string   // progress file path, DefaultPath if empty
	Server  string   // server url with the token redacted
	Engine  string   // browser engine name
	Checks  []string // selected checks
	NoColor bool     // disable color output (sets color.NoColor globally)
	Colors  config.ColorConfig
}

// NewLogger creates a logger writing to both a progress file and stdout.
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // path comes from the cli
	if err != nil {
		return nil, fmt.Errorf("create progress file: %w", err)
	}

	l := &Logger{
		file:      f,
		path:      path,
		stdout:    os.Stdout,
		startTime: time.Now(),
		phase:     &status.PhaseHolder{},
		colors:    NewColors(cfg.Colors),
	}
	l.phase.Set(status.PhaseDiscover)

	checks := strings.Join(cfg.Checks, ", ")
	if checks == "" {
		checks = "all"
	}
	l.writeFile("# nbprobe progress log\n")
	l.writeFile("Server: %s\n", orDash(cfg.Server))
	l.writeFile("Engine: %s\n", orDash(cfg.Engine))
	l.writeFile("Checks: %s\n", checks)
	l.writeFile("Started: %s\n", l.startTime.Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Path returns the progress file path.
func (l *Logger) Path() string {
	return l.path
}

// SetPhase sets the current run phase for color coding.
func (l *Logger) SetPhase(phase status.Phase) {
	l.phase.Set(phase)
}

// Phase returns the current run phase.
func (l *Logger) Phase() status.Phase {
	return l.phase.Get()
}

// PhaseTimes returns how long the run spent in each phase so far.
func (l *Logger) PhaseTimes() []status.PhaseTime {
	return l.phase.Spent()
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("[%s] %s\n", timestamp, msg)
	l.writeStdout("%s %s\n", l.colors.timestamp.Sprintf("[%s]", timestamp), l.colors.Phase(l.phase.Get()).Sprint(msg))
}

// ansiEscape matches SGR sequences of pre-rendered terminal text.
var ansiEscape = regexp.MustCompile("\x1b\\[[0-9;]*m")

// PrintRaw writes pre-rendered text, e.g. the markdown report, without timestamp.
// the file copy has terminal escapes stripped.
func (l *Logger) PrintRaw(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("%s", ansiEscape.ReplaceAllString(msg, ""))
	l.writeStdout("%s", msg)
}

// PrintSection writes a section header, e.g. "--- check debug ---".
func (l *Logger) PrintSection(section status.Section) {
	header := fmt.Sprintf("\n--- %s ---\n", section.Label)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("%s", header)
	l.writeStdout("%s", l.colors.Phase(l.phase.Get()).Sprint(header))
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	contentWidth := func(w int) int {
		return max(w-20, minWidth) // leave room for timestamp prefix
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return contentWidth(w)
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return contentWidth(w)
	}

	return 80 - 20
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		wordLen := len(word)
		switch {
		case i == 0:
			lineLen = wordLen
		case lineLen+1+wordLen <= width:
			result.WriteString(" ")
			lineLen += 1 + wordLen
		default:
			result.WriteString("\n")
			lineLen = wordLen
		}
		result.WriteString(word)
	}
	return result.String()
}

// PrintAligned writes text with timestamp, handling multi-line content properly.
// the first line is timestamped, continuation lines are indented under it.
// used for cell output dumps.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	indent := strings.Repeat(" ", 20) // aligns with "[YY-MM-DD HH:MM:SS] "
	width := getTerminalWidth()

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) <= width {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, strings.Split(wrapText(line, width), "\n")...)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	phaseColor := l.colors.Phase(l.phase.Get())
	for i, line := range lines {
		switch {
		case line == "":
			l.writeFile("\n")
			l.writeStdout("\n")
		case i == 0:
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", l.colors.timestamp.Sprintf("[%s]", timestamp), phaseColor.Sprint(line))
		default:
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, phaseColor.Sprint(line))
		}
	}
}

// Error writes an error message in the error color.
func (l *Logger) Error(format string, args ...any) {
	l.tagged("ERROR", l.colors.err, format, args...)
}

// Warn writes a warning message in the warn color.
func (l *Logger) Warn(format string, args ...any) {
	l.tagged("WARN", l.colors.warn, format, args...)
}

func (l *Logger) tagged(tag string, c *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeFile("[%s] %s: %s\n", timestamp, tag, msg)
	l.writeStdout("%s %s\n", l.colors.timestamp.Sprintf("[%s]", timestamp), c.Sprintf("%s: %s", tag, msg))
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes footer and closes the progress file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())
	if times := l.phase.Spent(); len(times) > 0 {
		l.writeFile("Phases: %s\n", formatPhaseTimes(times))
	}

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}
	return nil
}

// formatPhaseTimes renders "discover 12s, check 1m30s".
func formatPhaseTimes(times []status.PhaseTime) string {
	parts := make([]string, 0, len(times))
	for _, pt := range times {
		parts = append(parts, fmt.Sprintf("%s %s", pt.Phase, pt.Duration.Round(time.Millisecond)))
	}
	return strings.Join(parts, ", ")
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}
