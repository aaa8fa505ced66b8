// Package render prints markdown reports on the terminal.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the word wrap width used when Options.Width is not set.
const DefaultWidth = 100

// Options controls markdown rendering.
type Options struct {
	NoColor bool   // return markdown as is
	Width   int    // word wrap width, DefaultWidth if zero
	Style   string // glamour style name (dark, light, notty, ...), auto-detected if empty
}

// Markdown renders markdown content for terminal display.
// with NoColor the content is returned unchanged, suitable for pipes and files.
func Markdown(content string, opts Options) (string, error) {
	if opts.NoColor {
		return content, nil
	}

	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	result, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return result, nil
}
