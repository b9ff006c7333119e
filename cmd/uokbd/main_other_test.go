//go:build !windows

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uokeyboard/internal/passthrough"
)

func TestClassify(t *testing.T) {
	res, err := run(t, "", "classify", "a1.{np5}{bs}{space},")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, []string{"KEY", "CODE", "CATEGORY"}, strings.Fields(lines[0]))

	want := [][]string{
		{"a", "A", "CompositeConvertible('a')"},
		{"1", "1", "FreeConvertible('1')"},
		{".", "Period", "FreeConvertible('.')"},
		{"{np5}", "Numpad5", "NumPad('5')"},
		{"{bs}", "Backspace", "Backspace"},
		{"{space}", "Space", "Delimiter"},
		{",", "Comma", "Unprocessed(',')"},
	}
	for i, w := range want {
		assert.Equal(t, w, strings.Fields(lines[i+1]))
	}
}

func TestClassifyIgnoresCapsEscape(t *testing.T) {
	res, err := run(t, "", "classify", "{caps}b")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "CompositeConvertible('b')")
	assert.NotContains(t, res.stdout, "{caps}")
}

func TestSimulateLiveKeyboardUnsupported(t *testing.T) {
	rules := writeRules(t, "stub.toml", stubRules)

	res, err := run(t, "", "--rules", rules, "simulate", "--live-keyboard", "a")
	require.ErrorIs(t, err, passthrough.ErrUnsupported)
	assert.ErrorContains(t, err, "live keyboard")
	assert.Empty(t, res.stdout)
}
