package ics

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "marktime/internal/log"
)

// importedEvent is the normalized form of a VEVENT before it is written
// back out as markup.
type importedEvent struct {
	UID string

	Summary     string
	Description string
	Categories  []string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
}

var nonIDChars = regexp.MustCompile(`[^\w-]+`)

// Import converts a VCALENDAR payload into timeline markup, one event per
// VEVENT in start order. Timed events are written in loc. Recurrence rules
// are carried over when they only use a frequency, an interval and a count.
func Import(r io.Reader, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return "", fmt.Errorf("ics: parse calendar: %w", err)
	}

	events := make([]importedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })

	var b strings.Builder
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == string(ical.PropertyXWRCalName) && p.Value != "" {
			fmt.Fprintf(&b, "title: %s\n\n", p.Value)
		}
	}
	for _, ev := range events {
		writeEvent(&b, ev, loc)
	}

	appLog.Info("ics import completed", "event_count", len(events))
	return b.String(), nil
}

func parseVEvent(ve *ical.VEvent) (importedEvent, error) {
	var out importedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = nonIDChars.ReplaceAllString(strings.TrimSpace(c), "-"); c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("uid %q: %w", out.UID, err)
	}
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	out.Start, out.End = start, end

	// VALUE=DATE or no 'T' in the value -> all-day
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
		if !strings.Contains(p.Value, "T") {
			out.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	if out.Summary == "" && out.UID == "" {
		return out, errors.New("event has neither summary nor UID")
	}
	return out, nil
}

func writeEvent(b *strings.Builder, ev importedEvent, loc *time.Location) {
	b.WriteString(dateExpression(ev, loc))
	b.WriteString(recurrenceSuffix(ev.RawRRule))
	b.WriteString(": ")

	first := strings.TrimSpace(ev.Summary)
	for _, c := range ev.Categories {
		first += " #" + c
	}
	if id, ok := strings.CutSuffix(ev.UID, "@"+uidDomain); ok && id != "" {
		first += " !" + nonIDChars.ReplaceAllString(id, "-")
	}
	b.WriteString(strings.TrimSpace(first))
	b.WriteString("\n")

	for _, line := range strings.Split(strings.TrimSpace(ev.Description), "\n") {
		if line = strings.TrimRight(line, "\r "); line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

// dateExpression writes an EDTF range. All-day ends are exclusive in
// iCalendar and inclusive in markup.
func dateExpression(ev importedEvent, loc *time.Location) string {
	if ev.AllDay {
		const layout = "2006-01-02"
		start := ev.Start.Format(layout)
		last := ev.End.AddDate(0, 0, -1)
		if !last.After(ev.Start) {
			return start
		}
		return start + "/" + last.Format(layout)
	}
	const layout = "2006-01-02T15:04:05Z07:00"
	start := ev.Start.In(loc)
	end := ev.End.In(loc)
	if end.Equal(start) {
		return start.Format(layout)
	}
	return start.Format(layout) + "/" + end.Format(layout)
}

var unitNames = map[rrule.Frequency]string{
	rrule.YEARLY:   "year",
	rrule.MONTHLY:  "month",
	rrule.WEEKLY:   "week",
	rrule.DAILY:    "day",
	rrule.HOURLY:   "hour",
	rrule.MINUTELY: "minute",
}

// recurrenceSuffix maps a simple RRULE back onto "every n units for c
// times". Rules the markup cannot express are dropped.
func recurrenceSuffix(raw string) string {
	if raw == "" {
		return ""
	}
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		appLog.Debug("ics rrule not readable, dropping", "rrule", raw, "error", err.Error())
		return ""
	}
	unit, ok := unitNames[opt.Freq]
	if !ok || !simpleRule(opt) {
		appLog.Debug("ics rrule not representable, dropping", "rrule", raw)
		return ""
	}

	var b strings.Builder
	b.WriteString(" every ")
	if opt.Interval > 1 {
		b.WriteString(strconv.Itoa(opt.Interval))
		b.WriteString(" ")
		unit += "s"
	}
	b.WriteString(unit)
	if opt.Count > 0 {
		fmt.Fprintf(&b, " for %d times", opt.Count)
	}
	return b.String()
}

func simpleRule(opt *rrule.ROption) bool {
	return opt.Until.IsZero() &&
		len(opt.Bysetpos) == 0 && len(opt.Bymonth) == 0 && len(opt.Bymonthday) == 0 &&
		len(opt.Byyearday) == 0 && len(opt.Byweekno) == 0 && len(opt.Byweekday) == 0 &&
		len(opt.Byhour) == 0 && len(opt.Byminute) == 0 && len(opt.Bysecond) == 0 &&
		len(opt.Byeaster) == 0
}
