// Package ics converts parsed timelines to and from iCalendar and expands
// recurring events into concrete occurrences.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "marktime/internal/log"
	"marktime/internal/timeline"
)

const (
	productID = "-//marktime//timeline export//EN"
	uidDomain = "marktime"
)

var uidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte(uidDomain))

// ExportOptions tune the generated calendar.
type ExportOptions struct {
	// Name becomes X-WR-CALNAME. Defaults to the first page's title.
	Name string
	// Stamp is written as DTSTAMP on every event. Defaults to now.
	Stamp time.Time
}

// UID identifies an event across exports. Events with an id keep it;
// others get a name-based UUID of their position and date text so that
// re-exporting an unchanged document yields the same UIDs.
func UID(page int, e *timeline.Event) string {
	if id := e.ID(); id != "" {
		return id + "@" + uidDomain
	}
	key := fmt.Sprintf("%d:%d:%s:%s", page, e.TextRange.LineFrom.Line, e.DateText, e.FirstLine)
	return uuid.NewSHA1(uidNamespace, []byte(key)).String()
}

// Export renders every event of every page as a VEVENT.
func Export(ts timeline.Timelines, opts ExportOptions) (string, error) {
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}
	name := opts.Name
	if name == "" && len(ts.Timelines) > 0 {
		name = ts.Timelines[0].Metadata.Title
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	count := 0
	for page, tl := range ts.Timelines {
		for _, e := range tl.Events() {
			if err := addEvent(cal, page, e, opts.Stamp); err != nil {
				return "", err
			}
			count++
		}
	}

	appLog.Debug("ics export completed", "pages", len(ts.Timelines), "event_count", count)
	return cal.Serialize(), nil
}

func addEvent(cal *ical.Calendar, page int, e *timeline.Event, stamp time.Time) error {
	dr := e.DateRange
	ev := cal.AddEvent(UID(page, e))
	ev.SetDtStampTime(stamp)
	ev.SetSummary(e.Description.Summary())
	if body := e.Description.Body(); body != "" {
		ev.SetDescription(body)
	}

	if dr.Granularity.AllDay() {
		ev.SetAllDayStartAt(dr.From)
		ev.SetAllDayEndAt(dr.To)
	} else {
		ev.SetStartAt(dr.From)
		ev.SetEndAt(dr.To)
	}

	if len(e.Description.Tags) > 0 {
		ev.SetProperty(ical.ComponentPropertyCategories, strings.Join(e.Description.Tags, ","))
	}

	if e.Recurrence != nil {
		opt, err := rruleOption(e.Recurrence, dr.From)
		if err != nil {
			return fmt.Errorf("ics: event %q: %w", e.FirstLine, err)
		}
		ev.AddRrule(opt.RRuleString())
	}
	return nil
}

func rruleOption(rec *timeline.Recurrence, start time.Time) (rrule.ROption, error) {
	freq, ok := frequencies[rec.Unit]
	if !ok {
		return rrule.ROption{}, fmt.Errorf("rrule: unsupported unit %q", rec.Unit)
	}
	interval := rec.Interval
	if interval <= 0 {
		interval = 1
	}
	return rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Count:    rec.Count,
		Dtstart:  start,
	}, nil
}
