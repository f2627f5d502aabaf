package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewIndexOffsets(t *testing.T) {
	doc := "abc\n\nhello\nxy"
	idx := NewIndex(strings.Split(doc, "\n"))

	require.Equal(t, 4, idx.Lines())
	require.Equal(t, 0, idx.LineStart(0))
	require.Equal(t, 4, idx.LineStart(1))
	require.Equal(t, 5, idx.LineStart(2))
	require.Equal(t, 11, idx.LineStart(3))
	require.Equal(t, len(doc), idx.End())
	require.Equal(t, len(doc), idx.LineStart(99))

	for i, line := range strings.Split(doc, "\n") {
		start := idx.LineStart(i)
		require.Equal(t, line, doc[start:start+len(line)])
	}
}

func TestIndexPositionRoundTrip(t *testing.T) {
	doc := "2020: one\n  more\n\n2021: two"
	idx := NewIndex(strings.Split(doc, "\n"))

	for offset := 0; offset < len(doc); offset++ {
		pos := idx.Position(offset)
		require.Equal(t, offset, idx.Offset(pos.Line, pos.Column), "offset %d", offset)
	}
	require.Equal(t, Position{Line: 3, Column: 9}, idx.Position(len(doc)))
}

func TestIndexSpanAndBetween(t *testing.T) {
	idx := NewIndex([]string{"title: x", "2020: event"})

	span := idx.Span(1, 0, 5, RangeDateRange)
	require.Equal(t, 9, span.From)
	require.Equal(t, 14, span.To)
	require.Equal(t, Position{Line: 1, Column: 0}, span.LineFrom)
	require.Equal(t, Position{Line: 1, Column: 5}, span.LineTo)

	between := idx.Between(9, idx.End(), RangeEvent)
	require.Equal(t, Position{Line: 1, Column: 0}, between.LineFrom)
	require.Equal(t, Position{Line: 1, Column: 11}, between.LineTo)
}

func TestIndexEmptyDocument(t *testing.T) {
	idx := NewIndex([]string{""})
	require.Equal(t, 1, idx.Lines())
	require.Equal(t, 0, idx.End())
	require.Equal(t, Position{}, idx.Position(0))
}

func TestIndexCountsCharacters(t *testing.T) {
	lines := []string{"título: ñ", "2020: x"}
	idx := NewIndex(lines)

	require.Equal(t, 10, idx.LineStart(1))
	require.Equal(t, 9, idx.LineEnd(0))
	require.Equal(t, 17, idx.End())

	// "ñ" starts at byte 9 but character 8.
	require.Equal(t, 8, idx.Col(0, 9))
	require.Equal(t, 9, idx.Col(0, len(lines[0])))
	require.Equal(t, 8, idx.At(0, 9))

	span := idx.Span(0, 9, len(lines[0]), RangeTitle)
	require.Equal(t, 8, span.From)
	require.Equal(t, 9, span.To)
	require.Equal(t, Position{Line: 0, Column: 9}, span.LineTo)
	require.Equal(t, Position{Line: 1, Column: 2}, idx.Position(12))
}
