package notebook

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputError(t *testing.T) {
	err := fmt.Errorf("check version: %w", &OutputError{Fragment: 0, Expected: `text containing "iqsharp"`,
		Output: []string{"python 3.11"}})
	require.ErrorIs(t, err, ErrUnexpectedOutput)
	assert.Contains(t, err.Error(), `got "python 3.11"`)

	var oe *OutputError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, 0, oe.Fragment)

	count := &OutputError{Fragment: -1, Expected: "4 fragments", Output: []string{"a", "b"}}
	assert.Equal(t, `unexpected cell output: expected 4 fragments, got 2 fragments ["a" "b"]`, count.Error())
}
