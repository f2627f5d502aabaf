package parser

import (
	"time"

	"marktime/internal/dates"
	"marktime/internal/grammar"
	appLog "marktime/internal/log"
	"marktime/internal/source"
	"marktime/internal/timeline"
)

// matchDateRange tries the EDTF grammar, then the casual one, and resolves
// whichever matched. The date range's text span is recorded on the context
// even when the caller ends up discarding the result.
func (c *parsingContext) matchDateRange(line string, i int, idx *source.Index) (*timeline.DateRangePart, *grammar.Match) {
	m := grammar.MatchEDTF(line)
	if m == nil {
		m = grammar.MatchCasual(line)
	}
	if m == nil {
		return nil, nil
	}
	dr := c.resolve(m, i, idx)
	return &dr, m
}

func (c *parsingContext) resolve(m *grammar.Match, i int, idx *source.Index) timeline.DateRangePart {
	var (
		from, to     time.Time
		fromOK, toOK bool
		granularity  = dates.Instant
		fromDir      = dates.ParseDirection(m.From.Direction)
	)

	switch {
	case m.From.Date != "":
		from, granularity, fromOK = c.absolute(m.Layout, m.From.Date)
	case m.From.Relative != "":
		anchor := c.anchor(m.From, fromDir)
		switch {
		case !m.HasTo:
			// No end given: the amount is the event's duration, measured
			// back from the anchor for "before" and forward otherwise.
			if fromDir == dates.Before {
				to, toOK = anchor, true
				from, fromOK = dates.ApplyRelative(anchor, m.From.Relative, dates.Before)
			} else {
				from, fromOK = anchor, true
				to, toOK = dates.ApplyRelative(anchor, m.From.Relative, dates.After)
			}
		case fromDir == dates.Before && m.To.Relative != "":
			// The event ends the first amount before the anchor and lasts
			// the second amount.
			to, toOK = dates.ApplyRelative(anchor, m.From.Relative, dates.Before)
			if toOK {
				from, fromOK = dates.ApplyRelative(to, m.To.Relative, dates.Before)
			}
		default:
			from, fromOK = dates.ApplyRelative(anchor, m.From.Relative, fromDir)
		}
	case m.From.Now:
		from, fromOK = c.now, true
	}

	if !fromOK {
		from, granularity, fromOK = c.fallbackStart(m)
	}
	if !fromOK {
		appLog.Debug("unreadable start date, using now", "line", i, "date", m.DatePart)
		from, granularity = c.now, dates.Instant
		toOK = false
	}

	if !toOK {
		to, toOK = c.resolveEnd(m, from)
	}
	if !toOK || to.Before(from) {
		to = dates.RoundUp(from, granularity)
	}

	r := idx.Between(idx.At(i, m.Start), idx.At(i, m.Rest), source.RangeDateRange)
	c.ranges = append(c.ranges, r)

	return timeline.DateRangePart{
		From:         from,
		To:           to,
		Granularity:  granularity,
		OriginalText: m.DatePart,
		TextRange:    r,
	}
}

// fallbackStart reads whatever absolute token the start side carries.
func (c *parsingContext) fallbackStart(m *grammar.Match) (time.Time, dates.Granularity, bool) {
	if m.From.Date != "" {
		return c.absolute(m.Layout, m.From.Date)
	}
	if m.From.Anchor != "" {
		return dates.ParseEDTF(m.From.Anchor, c.loc)
	}
	return time.Time{}, "", false
}

func (c *parsingContext) resolveEnd(m *grammar.Match, from time.Time) (time.Time, bool) {
	switch {
	case m.To.Relative != "":
		anchor := from
		if m.To.EventID != "" {
			if e, ok := c.event(m.To.EventID); ok {
				anchor = e.DateRange.To
			} else {
				appLog.Debug("end refers to unknown event, measuring from start", "id", m.To.EventID)
			}
		} else if m.To.Anchor != "" {
			if t, _, ok := dates.ParseEDTF(m.To.Anchor, c.loc); ok {
				anchor = t
			}
		}
		return dates.ApplyRelative(anchor, m.To.Relative, dates.ParseDirection(m.To.Direction))
	case m.To.Now:
		return c.now, true
	case m.To.Date != "":
		t, g, ok := c.absolute(m.Layout, m.To.Date)
		if !ok {
			return time.Time{}, false
		}
		return dates.RoundUp(t, g), true
	}
	return time.Time{}, false
}

// anchor picks what a relative start is measured from: the referenced
// event, a literal date, the prior event, or now. Events contribute their
// end for "after" and their start for "before".
func (c *parsingContext) anchor(s grammar.Side, dir dates.Direction) time.Time {
	pick := func(e *timeline.Event) time.Time {
		if dir == dates.After {
			return e.DateRange.To
		}
		return e.DateRange.From
	}
	if s.EventID != "" {
		if e, ok := c.event(s.EventID); ok {
			return pick(e)
		}
		appLog.Debug("relative date refers to unknown event, using prior event", "id", s.EventID)
	}
	if s.Anchor != "" {
		if t, _, ok := dates.ParseEDTF(s.Anchor, c.loc); ok {
			return t
		}
	}
	if c.tail != nil {
		return pick(c.tail)
	}
	return c.now
}

func (c *parsingContext) absolute(layout grammar.Layout, token string) (time.Time, dates.Granularity, bool) {
	if layout == grammar.LayoutCasual {
		return dates.ParseCasual(token, c.dateFormat, c.loc)
	}
	return dates.ParseEDTF(token, c.loc)
}
