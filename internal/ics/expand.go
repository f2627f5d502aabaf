package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "marktime/internal/log"
	"marktime/internal/model"
	"marktime/internal/timeline"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// Document is copied onto every occurrence.
	Document string

	// DisplayLocation is the timezone to which all occurrences will be converted.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the list of expanded occurrences and optionally
// information about truncation.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandOccurrences turns every event of every page into concrete
// occurrences within the configured window. Events without a recurrence
// pass through when they overlap the window; recurring ones are expanded
// with their original duration.
func ExpandOccurrences(ts timeline.Timelines, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	result.Occurrences = make([]model.Occurrence, 0)
	for page, tl := range ts.Timelines {
		tl.Tree.Walk(func(n *timeline.Node, _ timeline.Path) bool {
			if n.Event == nil {
				return true
			}
			uid := UID(page, n.Event)
			occ, hitCap := expandEvent(n.Event, uid, page, cfg)
			result.Occurrences = append(result.Occurrences, occ...)
			if hitCap {
				result.TruncatedEvents = append(result.TruncatedEvents, uid)
				appLog.Error("expand: truncated occurrences due to cap",
					errors.New("max occurrences reached"),
					"uid", uid,
					"cap", cfg.MaxOccurrencesPerEvent,
				)
			}
			return true
		})
	}
	return result, nil
}

func expandEvent(e *timeline.Event, uid string, page int, cfg ExpandConfig) ([]model.Occurrence, bool) {
	dr := e.DateRange
	if e.Recurrence == nil {
		if !timeRangesOverlap(dr.From, dr.To, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		return []model.Occurrence{makeOccurrence(e, uid, page, dr.From, dr.To, cfg)}, false
	}

	r, err := RRule(e.Recurrence, dr.From)
	if err != nil {
		appLog.Error("expand: unusable recurrence", err, "uid", uid, "unit", e.Recurrence.Unit)
		return nil, false
	}

	// Start the window one duration early so occurrences already under way
	// at RangeStart are included.
	dur := dr.Duration()
	loc := dr.From.Location()
	starts := r.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, start := range starts {
		end := start.Add(dur)
		if !timeRangesOverlap(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, makeOccurrence(e, uid, page, start, end, cfg))
	}
	return out, hitCap
}

var frequencies = map[string]rrule.Frequency{
	"year":   rrule.YEARLY,
	"month":  rrule.MONTHLY,
	"week":   rrule.WEEKLY,
	"day":    rrule.DAILY,
	"hour":   rrule.HOURLY,
	"minute": rrule.MINUTELY,
}

// RRule builds the recurrence rule of an event starting at start.
func RRule(rec *timeline.Recurrence, start time.Time) (*rrule.RRule, error) {
	opt, err := rruleOption(rec, start)
	if err != nil {
		return nil, err
	}
	return rrule.NewRRule(opt)
}

// makeOccurrence converts an event and a specific start/end into a
// model.Occurrence normalized into the display location.
func makeOccurrence(e *timeline.Event, uid string, page int, start, end time.Time, cfg ExpandConfig) model.Occurrence {
	startLocal := start.In(cfg.DisplayLocation)
	return model.Occurrence{
		Document:    cfg.Document,
		Page:        page,
		UID:         uid,
		InstanceKey: startLocal.Format(time.RFC3339Nano),
		Summary:     e.Description.Summary(),
		Description: e.Description.Body(),
		Tags:        e.Description.Tags,
		AllDay:      e.DateRange.Granularity.AllDay(),
		Start:       startLocal,
		End:         end.In(cfg.DisplayLocation),
	}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
