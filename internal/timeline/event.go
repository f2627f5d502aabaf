// Package timeline holds the parsed form of a timeline document: events,
// their date ranges and descriptions, the group tree and per-page metadata.
package timeline

import (
	"strconv"
	"strings"
	"time"

	"marktime/internal/dates"
	"marktime/internal/grammar"
	"marktime/internal/markup"
	"marktime/internal/source"
)

// DateRangePart is a resolved date expression. To is never before From.
type DateRangePart struct {
	From         time.Time         `json:"fromDateTime"`
	To           time.Time         `json:"toDateTime"`
	Granularity  dates.Granularity `json:"granularity"`
	OriginalText string            `json:"originalString"`
	TextRange    source.Range      `json:"dateRangeInText"`
}

// Duration is To minus From.
func (d DateRangePart) Duration() time.Duration {
	return d.To.Sub(d.From)
}

// ISO returns both ends in RFC 3339 form.
func (d DateRangePart) ISO() (string, string) {
	return d.From.Format(time.RFC3339Nano), d.To.Format(time.RFC3339Nano)
}

// Recurrence repeats an event every Interval units, Count times in total
// (zero means unbounded).
type Recurrence struct {
	Unit     string `json:"unit"`
	Interval int    `json:"interval"`
	Count    int    `json:"count,omitempty"`
}

// ListItem is one "- item" or "- [x] item" line in an event body.
type ListItem struct {
	Text      string       `json:"text"`
	Checked   *bool        `json:"checked,omitempty"`
	TextRange source.Range `json:"range"`
}

// EventDescription is an event's body with the date expression removed from
// its first line.
type EventDescription struct {
	Lines      []string   `json:"eventDescription"`
	ListItems  []ListItem `json:"listItems,omitempty"`
	ID         string     `json:"id,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Completion *int       `json:"percent,omitempty"`
	// InnerHTML is the summary rendered for display in a host page.
	InnerHTML  string     `json:"innerHtml"`
}

// NewEventDescription extracts id, tags and completion from the body lines.
// The id is the first "!id" on the first line.
func NewEventDescription(lines []string, items []ListItem) EventDescription {
	d := EventDescription{Lines: lines, ListItems: items}
	if len(lines) == 0 {
		return d
	}
	if m := grammar.EventID.FindStringSubmatch(lines[0]); m != nil {
		d.ID = m[1]
	}
	seen := map[string]bool{}
	for _, line := range lines {
		for _, m := range grammar.Tag.FindAllStringSubmatch(line, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				d.Tags = append(d.Tags, m[1])
			}
		}
	}
	if m := grammar.Completion.FindStringSubmatch(lines[0]); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= 100 {
			d.Completion = &n
		}
	}
	d.InnerHTML = markup.ToInnerHTML(d.Summary())
	return d
}

// Summary is the first line with ids and tags removed.
func (d EventDescription) Summary() string {
	if len(d.Lines) == 0 {
		return ""
	}
	s := grammar.EventID.ReplaceAllString(d.Lines[0], "")
	s = grammar.Tag.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Body is everything after the first line, trimmed.
func (d EventDescription) Body() string {
	if len(d.Lines) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.Join(d.Lines[1:], "\n"))
}

// Event is one dated entry of the timeline.
type Event struct {
	FirstLine   string           `json:"firstLine"`
	DateRange   DateRangePart    `json:"dateRangeIso"`
	TextRange   source.Range     `json:"rangeInText"`
	Description EventDescription `json:"eventDescription"`
	DateText    string           `json:"dateText"`
	Recurrence  *Recurrence      `json:"recurrence,omitempty"`
}

// ID returns the event's cross-reference id, if any.
func (e *Event) ID() string {
	return e.Description.ID
}
