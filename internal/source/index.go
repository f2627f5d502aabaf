package source

import (
	"sort"
	"unicode/utf8"
)

// RangeType classifies what a Range covers in the source text.
type RangeType string

const (
	RangeDateRange RangeType = "dateRange"
	RangeEvent     RangeType = "event"
	RangeListItem  RangeType = "listItem"
	RangeSection   RangeType = "section"
	RangeComment   RangeType = "comment"
	RangeTag       RangeType = "tag"
	RangeTitle     RangeType = "title"
	RangePageBreak RangeType = "pageBreak"
)

// Position is a zero-based line and character column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"index"`
}

// Range maps a span of the document to flat character offsets [From, To)
// and to line/column positions at both ends.
type Range struct {
	From     int       `json:"from"`
	To       int       `json:"to"`
	Type     RangeType `json:"type"`
	LineFrom Position  `json:"lineFrom"`
	LineTo   Position  `json:"lineTo"`
}

// Index holds the flat character offset of the first character of every
// line, plus a final entry just past the last character of the document.
// Regexp matches report byte columns; Col converts them.
type Index struct {
	lines  []string
	starts []int
}

// NewIndex builds the offset table for lines that were separated by a
// single-character terminator.
func NewIndex(lines []string) *Index {
	starts := make([]int, 0, len(lines)+1)
	offset := 0
	for i, line := range lines {
		starts = append(starts, offset)
		offset += utf8.RuneCountInString(line)
		if i < len(lines)-1 {
			offset++
		}
	}
	starts = append(starts, offset)
	return &Index{lines: lines, starts: starts}
}

// Col converts a byte column of line i into a character column.
func (x *Index) Col(i, byteCol int) int {
	if i < 0 || i >= len(x.lines) || byteCol <= 0 {
		return 0
	}
	line := x.lines[i]
	if byteCol > len(line) {
		byteCol = len(line)
	}
	return utf8.RuneCountInString(line[:byteCol])
}

// At is the flat offset of byte column byteCol on line i.
func (x *Index) At(i, byteCol int) int {
	return x.LineStart(i) + x.Col(i, byteCol)
}

// LineEnd is the offset just past the last character of line i.
func (x *Index) LineEnd(i int) int {
	if i < 0 || i >= len(x.lines) {
		return x.LineStart(i)
	}
	return x.starts[i] + utf8.RuneCountInString(x.lines[i])
}

// Lines reports how many lines the index covers.
func (x *Index) Lines() int {
	return len(x.starts) - 1
}

// LineStart returns the offset of line i. Indices past the end clamp to the
// end of the document.
func (x *Index) LineStart(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(x.starts) {
		return x.starts[len(x.starts)-1]
	}
	return x.starts[i]
}

// End is the offset just past the last character.
func (x *Index) End() int {
	return x.starts[len(x.starts)-1]
}

// Offset maps a line and character column to a flat offset.
func (x *Index) Offset(line, col int) int {
	return x.LineStart(line) + col
}

// Position maps a flat offset back to its line and column.
func (x *Index) Position(offset int) Position {
	if offset <= 0 || x.Lines() == 0 {
		return Position{}
	}
	last := x.Lines() - 1
	if offset >= x.End() {
		return Position{Line: last, Column: x.End() - x.starts[last]}
	}
	// First line whose start is beyond offset, minus one.
	line := sort.Search(x.Lines(), func(i int) bool { return x.starts[i] > offset }) - 1
	return Position{Line: line, Column: offset - x.starts[line]}
}

// Span builds a Range on a single line between two byte columns, as
// reported by regexp match indices.
func (x *Index) Span(line, start, end int, typ RangeType) Range {
	start, end = x.Col(line, start), x.Col(line, end)
	return Range{
		From:     x.Offset(line, start),
		To:       x.Offset(line, end),
		Type:     typ,
		LineFrom: Position{Line: line, Column: start},
		LineTo:   Position{Line: line, Column: end},
	}
}

// Between builds a Range from two flat offsets.
func (x *Index) Between(from, to int, typ RangeType) Range {
	return Range{
		From:     from,
		To:       to,
		Type:     typ,
		LineFrom: x.Position(from),
		LineTo:   x.Position(to),
	}
}
