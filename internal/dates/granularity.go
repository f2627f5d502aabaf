// Package dates evaluates the date tokens of the timeline markup: absolute
// EDTF and casual dates, relative amounts, and granularity rounding.
package dates

import "time"

// Granularity is the precision a date token was written with.
type Granularity string

const (
	Year    Granularity = "year"
	Month   Granularity = "month"
	Day     Granularity = "day"
	Instant Granularity = "instant"
)

// AllDay reports whether g covers at least a whole day.
func (g Granularity) AllDay() bool {
	return g == Year || g == Month || g == Day
}

// RoundUp moves t to the start of the unit following the one it falls in.
// An instant is returned unchanged. This is how an event with only a start
// gets its implicit end.
func RoundUp(t time.Time, g Granularity) time.Time {
	loc := t.Location()
	switch g {
	case Year:
		return time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}

// DateFormat decides how ambiguous numeric dates like 1/2/2020 are read.
type DateFormat string

const (
	American DateFormat = "M/d/y"
	European DateFormat = "d/M/y"
)

// ParseDateFormat maps a dateFormat directive value onto a DateFormat.
// Unknown values report false.
func ParseDateFormat(s string) (DateFormat, bool) {
	switch s {
	case "d/M/y", "d/M/yyyy", "dd/MM/yyyy", "european", "European":
		return European, true
	case "M/d/y", "M/d/yyyy", "MM/dd/yyyy", "american", "American":
		return American, true
	default:
		return "", false
	}
}
