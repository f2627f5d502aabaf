package parser

import (
	"strings"

	"marktime/internal/dates"
	"marktime/internal/grammar"
	"marktime/internal/source"
	"marktime/internal/timeline"
)

// classifier inspects one line. It returns true when it recognized and fully
// handled the line, in which case the walker moves on without looking for a
// date range.
type classifier func(c *parsingContext, line string, i int, idx *source.Index) bool

var classifiers = []classifier{
	checkComments,
	checkTagColors,
	checkDateFormat,
	checkTitle,
	checkViewers,
	checkEditors,
	checkDescription,
	checkTags,
	checkGroupStart,
	checkGroupEnd,
}

func (c *parsingContext) classify(line string, i int, idx *source.Index) bool {
	for _, check := range classifiers {
		if check(c, line, i, idx) {
			return true
		}
	}
	return false
}

// checkComments extends the comment fold on comment lines and closes it on
// anything else.
func checkComments(c *parsingContext, line string, i int, idx *source.Index) bool {
	if !grammar.Comment.MatchString(line) {
		c.closeComment(i)
		return false
	}
	c.ranges = append(c.ranges, idx.Span(i, 0, len(line), source.RangeComment))
	c.comments.extend(i, idx.LineStart(i), idx.LineEnd(i))
	return true
}

func checkTagColors(c *parsingContext, line string, i int, idx *source.Index) bool {
	m := grammar.TagColor.FindStringSubmatchIndex(line)
	if m == nil {
		return false
	}
	c.tags[line[m[2]:m[3]]] = line[m[4]:m[5]]
	c.ranges = append(c.ranges, idx.Span(i, m[2]-1, m[3], source.RangeTag))
	return true
}

func checkDateFormat(c *parsingContext, line string, _ int, _ *source.Index) bool {
	m := grammar.DateFormat.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	if f, ok := dates.ParseDateFormat(m[1]); ok {
		c.dateFormat = f
	}
	return true
}

func checkTitle(c *parsingContext, line string, i int, idx *source.Index) bool {
	m := grammar.Title.FindStringSubmatchIndex(line)
	if m == nil {
		return false
	}
	c.title = line[m[2]:m[3]]
	c.ranges = append(c.ranges, idx.Span(i, m[2], m[3], source.RangeTitle))
	return true
}

func checkViewers(c *parsingContext, line string, _ int, _ *source.Index) bool {
	m := grammar.Viewers.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	c.viewers = append(c.viewers, splitList(m[1])...)
	return true
}

func checkEditors(c *parsingContext, line string, _ int, _ *source.Index) bool {
	m := grammar.Editors.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	c.editors = append(c.editors, splitList(m[1])...)
	return true
}

func checkDescription(c *parsingContext, line string, _ int, _ *source.Index) bool {
	m := grammar.Description.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	c.description = m[1]
	return true
}

// checkTags registers the tags of a line made of nothing but tags.
func checkTags(c *parsingContext, line string, i int, idx *source.Index) bool {
	if !grammar.TagsOnly.MatchString(line) {
		return false
	}
	for _, m := range grammar.Tag.FindAllStringSubmatchIndex(line, -1) {
		c.registerTag(line[m[2]:m[3]])
		c.ranges = append(c.ranges, idx.Span(i, m[2]-1, m[3], source.RangeTag))
	}
	return true
}

func checkGroupStart(c *parsingContext, line string, i int, idx *source.Index) bool {
	m := grammar.GroupStart.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	g := &timeline.Group{
		Style:     timeline.GroupStyle(strings.ToLower(m[2])),
		TextRange: idx.Span(i, len(m[1]), len(line), source.RangeSection),
	}
	for _, t := range grammar.Tag.FindAllStringSubmatch(m[3], -1) {
		g.Tags = append(g.Tags, t[1])
		c.registerTag(t[1])
	}
	g.Title = strings.Join(strings.Fields(grammar.Tag.ReplaceAllString(m[3], "")), " ")

	c.ranges = append(c.ranges, g.TextRange)
	c.enterGroup(g, timeline.Foldable{
		Type:           timeline.FoldSection,
		StartLine:      i,
		StartIndex:     idx.LineStart(i),
		FoldStartIndex: idx.LineEnd(i),
	})
	return true
}

func checkGroupEnd(c *parsingContext, line string, i int, idx *source.Index) bool {
	if !grammar.GroupEnd.MatchString(line) {
		return false
	}
	c.ranges = append(c.ranges, idx.Span(i, 0, len(line), source.RangeSection))
	c.exitGroup(i, idx.LineEnd(i))
	return true
}

// checkListItem reads "- item" and "- [x] item" lines inside event bodies.
func (c *parsingContext) checkListItem(line string, i int, idx *source.Index) (timeline.ListItem, bool) {
	m := grammar.ListItem.FindStringSubmatchIndex(line)
	if m == nil {
		return timeline.ListItem{}, false
	}
	item := timeline.ListItem{
		Text:      line[m[6]:m[7]],
		TextRange: idx.Span(i, m[3], len(line), source.RangeListItem),
	}
	if m[4] >= 0 {
		checked := line[m[4]:m[5]] != " "
		item.Checked = &checked
	}
	c.ranges = append(c.ranges, item.TextRange)
	return item, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range grammar.ListSplit.Split(s, -1) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
