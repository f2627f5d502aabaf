package dates

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Direction says which way a relative amount is applied to its anchor.
type Direction int

const (
	After Direction = iota
	Before
)

// ParseDirection maps a before/after qualifier. "before" and "by" count as
// Before, everything else (including an absent qualifier) as After.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before", "by":
		return Before
	default:
		return After
	}
}

func (d Direction) String() string {
	if d == Before {
		return "before"
	}
	return "after"
}

const unitAlternatives = `week ?days?|work ?days?|business ?days?|years?|yrs?|months?|mos?|weeks?|wks?|days?|hours?|hrs?|milliseconds?|ms|minutes?|mins?|seconds?|secs?|y|w|d|h|m|s`

// UnitPattern matches one relative unit word. It has no capture groups so
// it can be embedded in larger expressions.
const UnitPattern = `(?:` + unitAlternatives + `)`

// AmountPattern matches a list of amount terms such as "1 year, 2 days".
const AmountPattern = `(?:\d+\s*` + UnitPattern + `\b(?:\s*,?\s*(?:and\s+)?\d+\s*` + UnitPattern + `\b)*)`

var (
	termRegex      = regexp.MustCompile(`(?i)(\d+)\s*(` + unitAlternatives + `)\b`)
	separatorRegex = regexp.MustCompile(`(?i)^[\s,]*(?:and)?[\s,]*$`)
)

// Amounts past these caps cannot be applied. They keep calendar arithmetic
// far inside what time.Time can represent.
const (
	maxYears  = 1_000_000
	maxMonths = 12 * maxYears
	maxDays   = 366 * maxYears
)

var unitMillis = map[string]int64{
	"h":  int64(time.Hour / time.Millisecond),
	"m":  int64(time.Minute / time.Millisecond),
	"s":  int64(time.Second / time.Millisecond),
	"ms": 1,
}

// amount is the decoded form of an amount text.
type amount struct {
	years, months, days int
	businessDays        int
	millis              int64
}

func (a *amount) add(unit string, n int) bool {
	switch {
	case strings.HasPrefix(unit, "weekday"), strings.HasPrefix(unit, "workday"), strings.HasPrefix(unit, "businessday"):
		return addCapped(&a.businessDays, n, 1, maxDays)
	case strings.HasPrefix(unit, "y"):
		return addCapped(&a.years, n, 1, maxYears)
	case strings.HasPrefix(unit, "mo"):
		return addCapped(&a.months, n, 1, maxMonths)
	case strings.HasPrefix(unit, "w"):
		return addCapped(&a.days, n, 7, maxDays)
	case strings.HasPrefix(unit, "d"):
		return addCapped(&a.days, n, 1, maxDays)
	case strings.HasPrefix(unit, "h"):
		return a.addMillis(n, unitMillis["h"])
	case unit == "ms" || strings.HasPrefix(unit, "milli"):
		return a.addMillis(n, unitMillis["ms"])
	case strings.HasPrefix(unit, "m"):
		return a.addMillis(n, unitMillis["m"])
	case strings.HasPrefix(unit, "s"):
		return a.addMillis(n, unitMillis["s"])
	}
	return false
}

// addCapped adds n*mul to *dst unless the sum would pass limit.
func addCapped(dst *int, n, mul, limit int) bool {
	if n > (limit-*dst)/mul {
		return false
	}
	*dst += n * mul
	return true
}

func (a *amount) addMillis(n int, unit int64) bool {
	if int64(n) > (math.MaxInt64-a.millis)/unit {
		return false
	}
	a.millis += int64(n) * unit
	return true
}

func parseAmount(text string) (amount, bool) {
	var a amount
	matches := termRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return a, false
	}
	prev := 0
	for _, m := range matches {
		if !separatorRegex.MatchString(text[prev:m[0]]) {
			return a, false
		}
		prev = m[1]

		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			return a, false
		}
		unit := strings.ToLower(strings.ReplaceAll(text[m[4]:m[5]], " ", ""))
		if !a.add(unit, n) {
			return a, false
		}
	}
	if !separatorRegex.MatchString(text[prev:]) {
		return a, false
	}
	return a, true
}

// ApplyRelative moves anchor by the amount written in text ("3 days",
// "1 year, 2 months") in the given direction. It reports false when the
// amount cannot be read or applied; the returned time must not be used in
// that case.
func ApplyRelative(anchor time.Time, text string, dir Direction) (time.Time, bool) {
	a, ok := parseAmount(text)
	if !ok {
		return time.Time{}, false
	}
	sign := 1
	if dir == Before {
		sign = -1
	}
	t := anchor.AddDate(sign*a.years, sign*a.months, sign*a.days)
	if t, ok = addMillis(t, int64(sign)*a.millis); !ok {
		return time.Time{}, false
	}
	return addBusinessDays(t, sign*a.businessDays), true
}

// addMillis moves t by an absolute number of milliseconds. It goes through
// Unix seconds since time.Duration stops at about 292 years.
func addMillis(t time.Time, ms int64) (time.Time, bool) {
	if ms == 0 {
		return t, true
	}
	sec, rem := ms/1000, ms%1000
	base := t.Unix()
	if (sec > 0 && base > math.MaxInt64-sec) || (sec < 0 && base < math.MinInt64-sec) {
		return time.Time{}, false
	}
	nsec := int64(t.Nanosecond()) + rem*int64(time.Millisecond)
	return time.Unix(base+sec, nsec).In(t.Location()), true
}

// addBusinessDays skips n weekdays. Any seven consecutive days hold exactly
// five weekdays, so all but the last partial week is a plain date shift.
func addBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	if n > 5 {
		weeks := (n - 1) / 5
		t = t.AddDate(0, 0, 7*weeks*step)
		n -= 5 * weeks
	}
	for n > 0 {
		t = t.AddDate(0, 0, step)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}
