package outline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marktime/internal/parser"
)

func TestRender(t *testing.T) {
	ts := parser.Parse(strings.Join([]string{
		"title: Life",
		"2020: Pandemic #covid",
		"group Work",
		"2021-03/2022-06: Job",
		"2024-01-01 every 2 weeks: Standup",
		"endGroup",
		"_-_-_break_-_-_",
		"2024-05-01T09:30Z: Call",
	}, "\n"), parser.WithLocation(time.UTC), parser.WithNow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	out := Render(ts)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)

	require.Contains(t, lines[0], "Life")
	require.Contains(t, lines[1], "2020")
	require.NotContains(t, lines[1], "2021")
	require.Contains(t, lines[1], "Pandemic")
	require.Contains(t, lines[1], "#covid")
	require.Contains(t, lines[2], "▸ Work")
	require.True(t, strings.HasPrefix(lines[3], "  "))
	require.Contains(t, lines[3], "2021-03 → 2022-06")
	require.Contains(t, lines[4], "(every 2 week)")
	require.Contains(t, lines[5], "page 2")
	require.Contains(t, lines[6], "2024-05-01 09:30")
}

func TestTagColor(t *testing.T) {
	require.Equal(t, paletteColors["green"], tagColor("green"))
	require.EqualValues(t, "#ff0000", tagColor("#ff0000"))
	require.EqualValues(t, "#94A3B8", tagColor("chartreuse"))
}
