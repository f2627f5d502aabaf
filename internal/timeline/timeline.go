package timeline

import (
	"time"

	"marktime/internal/dates"
	"marktime/internal/source"
)

// FoldType is the kind of a folding hint.
type FoldType string

const (
	FoldComment FoldType = "comment"
	FoldSection FoldType = "section"
)

// Foldable is a folding hint over a line range. It does not own anything in
// the event tree.
type Foldable struct {
	Type           FoldType `json:"type"`
	StartLine      int      `json:"startLine"`
	StartIndex     int      `json:"startIndex"`
	FoldStartIndex int      `json:"foldStartIndex"`
	EndIndex       int      `json:"endIndex"`
}

// Metadata describes one page of the document.
type Metadata struct {
	Earliest        time.Time        `json:"earliestTime"`
	Latest          time.Time        `json:"latestTime"`
	MaxDuration     time.Duration    `json:"maxDuration"`
	MaxDurationDays float64          `json:"maxDurationDays"`
	DateFormat      dates.DateFormat `json:"dateFormat"`
	Title           string           `json:"title,omitempty"`
	Description     string           `json:"description,omitempty"`
	Viewers         []string         `json:"view"`
	Editors         []string         `json:"edit"`

	StartLineIndex   int `json:"startLineIndex"`
	EndLineIndex     int `json:"endLineIndex"`
	StartStringIndex int `json:"startStringIndex"`
	EndStringIndex   int `json:"endStringIndex"`
}

// Timeline is the immutable result of parsing one page.
type Timeline struct {
	Tree      *Tree             `json:"events"`
	IDs       map[string]NodeID `json:"ids"`
	Tags      map[string]string `json:"tags"`
	Ranges    []source.Range    `json:"ranges"`
	Foldables []Foldable        `json:"foldables"`
	Metadata  Metadata          `json:"metadata"`
}

// Timelines is a parsed document, one Timeline per page.
type Timelines struct {
	Timelines []Timeline `json:"timelines"`
}

// Event looks up an event by its id.
func (t *Timeline) Event(id string) (*Event, bool) {
	n, ok := t.IDs[id]
	if !ok {
		return nil, false
	}
	return t.Tree.Node(n).Event, true
}

// Events returns every event of the page in document order.
func (t *Timeline) Events() []*Event {
	return t.Tree.Events()
}

// DefaultBounds is the window used when a page has no events: five years
// either side of now, with a one year maximum duration.
func DefaultBounds(now time.Time) (earliest, latest time.Time, maxDuration time.Duration) {
	return now.AddDate(-5, 0, 0), now.AddDate(5, 0, 0), now.Sub(now.AddDate(-1, 0, 0))
}

// Empty returns a timeline with no events, as produced for empty input.
func Empty(now time.Time) Timeline {
	earliest, latest, maxDuration := DefaultBounds(now)
	return Timeline{
		Tree:      NewTree(),
		IDs:       map[string]NodeID{},
		Tags:      map[string]string{},
		Ranges:    []source.Range{},
		Foldables: []Foldable{},
		Metadata: Metadata{
			Earliest:        earliest,
			Latest:          latest,
			MaxDuration:     maxDuration,
			MaxDurationDays: maxDuration.Hours() / 24,
			DateFormat:      dates.American,
			Viewers:         []string{},
			Editors:         []string{},
		},
	}
}
