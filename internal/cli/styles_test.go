package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable_AlignsWideRunes(t *testing.T) {
	out := RenderTable(
		[]string{"名称", "市值"},
		[][]string{
			{"沪深300ETF", "1,234.50"},
			{"x", "9"},
		},
	)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	last := lines[len(lines)-1]
	prev := lines[len(lines)-2]
	assert.Equal(t, lipgloss.Width(prev), lipgloss.Width(last))
	assert.Contains(t, out, "沪深300ETF")
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("saved"), "saved")
	assert.Contains(t, FormatError("failed"), ErrorIcon)
	assert.Contains(t, FormatTitle("Report"), ChartIcon)
	assert.Contains(t, FormatPrompt("Continue?"), "Continue?")
}
