package parser

import (
	"strings"

	"marktime/internal/grammar"
	"marktime/internal/source"
	"marktime/internal/timeline"
)

// checkEvent tries to start an event on line i. On success it absorbs the
// body lines that follow, pushes the event and returns the index of the last
// line it consumed.
func (c *parsingContext) checkEvent(lines []string, i int, idx *source.Index) (int, bool) {
	line := lines[i]
	dr, m := c.matchDateRange(line, i, idx)
	if dr == nil {
		return i, false
	}

	var (
		body  = []string{strings.TrimSpace(line[m.Rest:])}
		items []timeline.ListItem
		end   = i + 1
	)
	for ; end < len(lines); end++ {
		next := lines[end]
		if grammar.StartsBlock(next, c.nested()) {
			break
		}
		if checkComments(c, next, end, idx) {
			continue
		}
		if item, ok := c.checkListItem(next, end, idx); ok {
			items = append(items, item)
			continue
		}
		body = append(body, next)
	}
	// A comment run reaching the end of the body is closed by the block
	// marker that ended it, which the walker classifies next.

	e := &timeline.Event{
		FirstLine:   line,
		DateRange:   *dr,
		TextRange:   idx.Between(dr.TextRange.From, trimEnd(idx, end), source.RangeEvent),
		Description: timeline.NewEventDescription(trimTrailingBlank(body), items),
		DateText:    m.DatePart,
	}
	if r := m.Recurrence; r != nil {
		e.Recurrence = &timeline.Recurrence{Unit: r.Unit, Interval: r.Every, Count: r.Count}
	}
	c.push(e)
	return end - 1, true
}

// push inserts e at the current insertion point and updates the running
// aggregates.
func (c *parsingContext) push(e *timeline.Event) {
	id := c.tree.AddEvent(c.current(), e)
	c.tail = e

	if eid := e.ID(); eid != "" {
		if _, taken := c.ids[eid]; !taken {
			c.ids[eid] = id
		}
	}
	for _, tag := range e.Description.Tags {
		c.registerTag(tag)
	}

	from, to := e.DateRange.From, e.DateRange.To
	if !c.hasBounds {
		c.earliest, c.latest, c.maxDuration = from, to, to.Sub(from)
		c.hasBounds = true
		return
	}
	if from.Before(c.earliest) {
		c.earliest = from
	}
	if to.After(c.latest) {
		c.latest = to
	}
	if d := to.Sub(from); d > c.maxDuration {
		c.maxDuration = d
	}
}

// trimEnd is the offset just past the event's last absorbed line.
func trimEnd(idx *source.Index, next int) int {
	if next >= idx.Lines() {
		return idx.End()
	}
	return idx.LineStart(next) - 1
}

func trimTrailingBlank(lines []string) []string {
	n := len(lines)
	for n > 1 && strings.TrimSpace(lines[n-1]) == "" {
		n--
	}
	return lines[:n]
}
