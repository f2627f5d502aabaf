package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EDTFPattern matches a year, year-month, full date or full date-time.
// It has no capture groups.
const EDTFPattern = `(?:\d{4}(?:-\d{2}(?:-\d{2}(?:T\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+-]\d{2}:?\d{2})?)?)?)?)`

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

// CasualPattern matches the looser written forms: "March 3, 2021",
// "3 March 2021", "Jan 2020", "1/2/2020", "5/2020" and a bare year.
// It has no capture groups.
const CasualPattern = `(?:` +
	monthPattern + `\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}` +
	`|\d{1,2}(?:st|nd|rd|th)?\s+` + monthPattern + `,?\s+\d{4}` +
	`|` + monthPattern + `,?\s+\d{4}` +
	`|\d{1,2}/\d{1,2}/\d{4}` +
	`|\d{1,2}/\d{4}` +
	`|\d{4})`

var (
	edtfRegex = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2})(?:T(\d{2}):(\d{2})(?::(\d{2})(?:\.(\d+))?)?(Z|[+-]\d{2}:?\d{2})?)?)?)?$`)

	casualMonthDayYear = regexp.MustCompile(`(?i)^(` + monthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})$`)
	casualDayMonthYear = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthPattern + `),?\s+(\d{4})$`)
	casualMonthYear    = regexp.MustCompile(`(?i)^(` + monthPattern + `),?\s+(\d{4})$`)
	casualNumericDay   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	casualNumericMonth = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	casualYear         = regexp.MustCompile(`^(\d{4})$`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseEDTF reads an EDTF-style token in loc. Tokens carrying an explicit
// offset keep that offset. Granularity follows the components present.
func ParseEDTF(token string, loc *time.Location) (time.Time, Granularity, bool) {
	m := edtfRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(token)))
	if m == nil {
		return time.Time{}, "", false
	}
	year, _ := strconv.Atoi(m[1])
	month, day := 1, 1
	granularity := Year
	if m[2] != "" {
		month, _ = strconv.Atoi(m[2])
		granularity = Month
	}
	if m[3] != "" {
		day, _ = strconv.Atoi(m[3])
		granularity = Day
	}

	var hour, minute, sec, nsec int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			sec, _ = strconv.Atoi(m[6])
		}
		if m[7] != "" {
			frac := (m[7] + "000000000")[:9]
			nsec, _ = strconv.Atoi(frac)
		}
		granularity = Instant
		if hour > 23 || minute > 59 || sec > 59 {
			return time.Time{}, "", false
		}
		if m[8] != "" {
			z, ok := parseZone(m[8])
			if !ok {
				return time.Time{}, "", false
			}
			loc = z
		}
	}
	t, ok := date(year, month, day, loc)
	if !ok {
		return time.Time{}, "", false
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, nsec, t.Location()), granularity, true
}

// ParseCasual reads one of the forms matched by CasualPattern. Numeric
// day/month order follows format.
func ParseCasual(token string, format DateFormat, loc *time.Location) (time.Time, Granularity, bool) {
	token = strings.TrimSpace(token)
	if m := casualMonthDayYear.FindStringSubmatch(token); m != nil {
		return casualDate(m[3], monthOf(m[1]), m[2], loc, Day)
	}
	if m := casualDayMonthYear.FindStringSubmatch(token); m != nil {
		return casualDate(m[3], monthOf(m[2]), m[1], loc, Day)
	}
	if m := casualMonthYear.FindStringSubmatch(token); m != nil {
		return casualDate(m[2], monthOf(m[1]), "1", loc, Month)
	}
	if m := casualNumericDay.FindStringSubmatch(token); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		month, day := first, second
		if format == European {
			month, day = second, first
		}
		return casualDate(m[3], month, strconv.Itoa(day), loc, Day)
	}
	if m := casualNumericMonth.FindStringSubmatch(token); m != nil {
		month, _ := strconv.Atoi(m[1])
		return casualDate(m[2], month, "1", loc, Month)
	}
	if m := casualYear.FindStringSubmatch(token); m != nil {
		return casualDate(m[1], 1, "1", loc, Year)
	}
	return time.Time{}, "", false
}

func casualDate(yearText string, month int, dayText string, loc *time.Location, g Granularity) (time.Time, Granularity, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, "", false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, "", false
	}
	t, ok := date(year, month, day, loc)
	if !ok {
		return time.Time{}, "", false
	}
	return t, g, true
}

func monthOf(name string) int {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	if len(name) < 3 {
		return 0
	}
	return int(monthsByPrefix[name[:3]])
}

// date builds midnight of the given day, rejecting out-of-range components
// instead of letting time.Date normalize them.
func date(year, month, day int, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func parseZone(z string) (*time.Location, bool) {
	if z == "Z" {
		return time.UTC, true
	}
	sign := 1
	if z[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(z[1:], ":", "")
	if len(digits) != 4 {
		return nil, false
	}
	h, err := strconv.Atoi(digits[:2])
	if err != nil {
		return nil, false
	}
	m, err := strconv.Atoi(digits[2:])
	if err != nil || h > 14 || m > 59 {
		return nil, false
	}
	return time.FixedZone("", sign*(h*3600+m*60)), true
}
