package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = "# nbprobe report\n\n**server:** http://localhost:8888/\n\n" +
	"| check | status | duration |\n|---|---|---|\n| version | pass | 2s |\n| debug | fail | 61s |\n\n" +
	"## debug\n\n```\nunexpected cell output: fragment 2\n```\n"

func TestMarkdown(t *testing.T) {
	t.Run("renders with color", func(t *testing.T) {
		result, err := Markdown(sampleReport, Options{Style: "dark"})
		require.NoError(t, err)
		assert.NotEqual(t, sampleReport, result)
		assert.Contains(t, result, "nbprobe report")
		assert.Contains(t, result, "version")
		assert.Contains(t, result, "unexpected cell output")
		assert.NotContains(t, result, "|---|", "table is rendered, not printed raw")
	})

	t.Run("no color keeps markdown", func(t *testing.T) {
		result, err := Markdown(sampleReport, Options{NoColor: true})
		require.NoError(t, err)
		assert.Equal(t, sampleReport, result)
	})

	t.Run("auto style", func(t *testing.T) {
		result, err := Markdown("- item 1\n- item 2", Options{})
		require.NoError(t, err)
		assert.Contains(t, result, "item 1")
		assert.Contains(t, result, "item 2")
	})

	t.Run("empty content", func(t *testing.T) {
		result, err := Markdown("", Options{Style: "notty"})
		require.NoError(t, err)
		assert.Empty(t, strings.TrimSpace(result))
	})

	t.Run("wraps to width", func(t *testing.T) {
		long := strings.Repeat("word ", 40)
		result, err := Markdown(long, Options{Style: "notty", Width: 40})
		require.NoError(t, err)
		for line := range strings.SplitSeq(strings.TrimRight(result, "\n"), "\n") {
			// document margins come on top of the wrap width
			assert.LessOrEqual(t, len(strings.TrimSpace(line)), 40, line)
		}
	})
}
