package parser

import (
	"sort"
	"time"

	"marktime/internal/dates"
	"marktime/internal/source"
	"marktime/internal/timeline"
)

// palette is handed out to tags in first-seen order unless a tag color
// directive names one.
var palette = []string{"green", "blue", "red", "yellow", "indigo", "purple", "pink", "teal", "orange"}

// commentFold tracks the run of consecutive comment lines currently open.
type commentFold struct {
	open *timeline.Foldable
}

// extend opens a run at line i or stretches the open one to end.
func (f *commentFold) extend(i, start, end int) {
	if f.open != nil {
		f.open.EndIndex = end
		return
	}
	f.open = &timeline.Foldable{
		Type:           timeline.FoldComment,
		StartLine:      i,
		StartIndex:     start,
		FoldStartIndex: end,
		EndIndex:       end,
	}
}

// close ends the open run at the first non-comment line i. A run of a single
// line is dropped.
func (f *commentFold) close(i int) (timeline.Foldable, bool) {
	open := f.open
	f.open = nil
	if open == nil || open.StartLine >= i-1 {
		return timeline.Foldable{}, false
	}
	return *open, true
}

// sectionFolds is the stack of groups whose fold is still open.
type sectionFolds struct {
	open []timeline.Foldable
}

func (f *sectionFolds) push(fold timeline.Foldable) {
	f.open = append(f.open, fold)
}

func (f *sectionFolds) len() int {
	return len(f.open)
}

// pop closes the innermost section at lastLine. Sections that stayed on one
// line are dropped.
func (f *sectionFolds) pop(lastLine, endIndex int) (timeline.Foldable, bool) {
	if len(f.open) == 0 {
		return timeline.Foldable{}, false
	}
	fold := f.open[len(f.open)-1]
	f.open = f.open[:len(f.open)-1]
	if fold.StartLine >= lastLine {
		return timeline.Foldable{}, false
	}
	fold.EndIndex = endIndex
	return fold, true
}

// parsingContext is the state of one page. It is owned by a single
// parseTimeline call and discarded once turned into a Timeline.
type parsingContext struct {
	now time.Time
	loc *time.Location

	tree   *timeline.Tree
	groups []timeline.NodeID
	tail   *timeline.Event
	ids    map[string]timeline.NodeID

	tags         map[string]string
	paletteIndex int

	title       string
	description string
	dateFormat  dates.DateFormat
	viewers     []string
	editors     []string

	earliest    time.Time
	latest      time.Time
	maxDuration time.Duration
	hasBounds   bool

	comments  commentFold
	sections  sectionFolds
	foldables []timeline.Foldable
	ranges    []source.Range
}

func newContext(o options) *parsingContext {
	return &parsingContext{
		now:        o.now,
		loc:        o.loc,
		tree:       timeline.NewTree(),
		groups:     []timeline.NodeID{timeline.Root},
		ids:        map[string]timeline.NodeID{},
		tags:       map[string]string{},
		dateFormat: o.dateFormat,
		viewers:    []string{},
		editors:    []string{},
		ranges:     []source.Range{},
	}
}

// nested reports whether insertion currently happens inside a group.
func (c *parsingContext) nested() bool {
	return len(c.groups) > 1
}

func (c *parsingContext) current() timeline.NodeID {
	return c.groups[len(c.groups)-1]
}

func (c *parsingContext) event(id string) (*timeline.Event, bool) {
	n, ok := c.ids[id]
	if !ok {
		return nil, false
	}
	return c.tree.Node(n).Event, true
}

func (c *parsingContext) registerTag(tag string) {
	if _, ok := c.tags[tag]; ok {
		return
	}
	c.tags[tag] = palette[c.paletteIndex%len(palette)]
	c.paletteIndex++
}

// enterGroup appends g under the current group and makes it the insertion
// point.
func (c *parsingContext) enterGroup(g *timeline.Group, fold timeline.Foldable) {
	id := c.tree.AddGroup(c.current(), g)
	c.groups = append(c.groups, id)
	c.sections.push(fold)
}

// exitGroup returns insertion to the parent group. A stray end marker at the
// top level is ignored.
func (c *parsingContext) exitGroup(i, endIndex int) {
	if !c.nested() {
		return
	}
	c.groups = c.groups[:len(c.groups)-1]
	c.closeSection(i, endIndex)
}

func (c *parsingContext) closeComment(i int) {
	if fold, ok := c.comments.close(i); ok {
		c.foldables = append(c.foldables, fold)
	}
}

func (c *parsingContext) closeSection(lastLine, endIndex int) {
	if fold, ok := c.sections.pop(lastLine, endIndex); ok {
		c.foldables = append(c.foldables, fold)
	}
}

func (c *parsingContext) toTimeline(idx *source.Index, startLine, endLine, endString int) timeline.Timeline {
	earliest, latest, maxDuration := timeline.DefaultBounds(c.now)
	if c.hasBounds {
		earliest, latest, maxDuration = c.earliest, c.latest, c.maxDuration
	}
	foldables := append([]timeline.Foldable{}, c.foldables...)
	sort.SliceStable(foldables, func(a, b int) bool {
		return foldables[a].StartIndex < foldables[b].StartIndex
	})
	return timeline.Timeline{
		Tree:      c.tree,
		IDs:       c.ids,
		Tags:      c.tags,
		Ranges:    c.ranges,
		Foldables: foldables,
		Metadata: timeline.Metadata{
			Earliest:         earliest,
			Latest:           latest,
			MaxDuration:      maxDuration,
			MaxDurationDays:  maxDuration.Hours() / 24,
			DateFormat:       c.dateFormat,
			Title:            c.title,
			Description:      c.description,
			Viewers:          c.viewers,
			Editors:          c.editors,
			StartLineIndex:   startLine,
			EndLineIndex:     endLine,
			StartStringIndex: idx.LineStart(startLine),
			EndStringIndex:   endString,
		},
	}
}
