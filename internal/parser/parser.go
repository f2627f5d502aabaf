// Package parser walks timeline markup line by line and builds one
// timeline.Timeline per page.
package parser

import (
	"strings"

	"marktime/internal/grammar"
	appLog "marktime/internal/log"
	"marktime/internal/source"
	"marktime/internal/timeline"
)

// Parse parses a whole document. It never fails: unreadable dates degrade to
// now and unrecognized lines are skipped. Pages are separated by page-break
// lines.
func Parse(text string, opts ...Option) timeline.Timelines {
	o := buildOptions(opts)
	if strings.TrimSpace(text) == "" {
		return timeline.Timelines{Timelines: []timeline.Timeline{timeline.Empty(o.now)}}
	}

	lines := strings.Split(text, "\n")
	idx := source.NewIndex(lines)

	var out timeline.Timelines
	for start := 0; ; {
		t, next := parseTimeline(lines, start, idx, o)
		out.Timelines = append(out.Timelines, t)
		if next < 0 || next >= len(lines) {
			break
		}
		start = next
	}
	appLog.Debug("parsed document", "lines", len(lines), "pages", len(out.Timelines))
	return out
}

// parseTimeline parses one page starting at line start. It returns the line
// the next page starts on, or -1 when the document is exhausted. A page that
// ends in a break counts the break line as its last line; its text stops
// just before it.
func parseTimeline(lines []string, start int, idx *source.Index, o options) (timeline.Timeline, int) {
	c := newContext(o)
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if c.classify(line, i, idx) {
			continue
		}
		if grammar.PageBreak.MatchString(line) {
			endIndex := idx.LineStart(i) - 1
			for c.sections.len() > 0 {
				c.closeSection(i-1, endIndex)
			}
			if i == start {
				endIndex = idx.LineStart(i)
			}
			c.ranges = append(c.ranges, idx.Span(i, 0, len(line), source.RangePageBreak))
			return c.toTimeline(idx, start, i, endIndex), i + 1
		}
		if end, ok := c.checkEvent(lines, i, idx); ok {
			i = end
		}
	}

	last := len(lines) - 1
	c.closeComment(len(lines))
	for c.sections.len() > 0 {
		c.closeSection(last, idx.End())
	}
	return c.toTimeline(idx, start, last, idx.End()), -1
}

// ParseDateRange resolves a single date expression outside of a document,
// as an editor does for a live preview. The terminating colon is optional.
func ParseDateRange(text string, opts ...Option) (timeline.DateRangePart, bool) {
	line := strings.TrimSpace(text)
	if !strings.HasSuffix(line, ":") {
		line += ":"
	}
	c := newContext(buildOptions(opts))
	dr, _ := c.matchDateRange(line, 0, source.NewIndex([]string{line}))
	if dr == nil {
		return timeline.DateRangePart{}, false
	}
	return *dr, true
}
