package grammar

import (
	"regexp"
	"strconv"
	"strings"

	"marktime/internal/dates"
)

// Layout tells which grammar produced a Match and therefore how its date
// tokens are read.
type Layout int

const (
	LayoutEDTF Layout = iota
	LayoutCasual
)

// Side holds the captures for one end of a date range.
type Side struct {
	// Date is an absolute token in the grammar's layout.
	Date string
	// Relative is an amount such as "3 days".
	Relative string
	// Direction is the raw before/after/by/from qualifier.
	Direction string
	// EventID is the referenced event for a relative amount (without "!").
	EventID string
	// Anchor is a literal EDTF date a relative amount is measured from.
	Anchor string
	// Now is set for the literal "now".
	Now bool
}

// Empty reports whether nothing was captured for this side.
func (s Side) Empty() bool {
	return s.Date == "" && s.Relative == "" && !s.Now
}

// Recurrence is the raw "every 2 weeks for 10 times" suffix.
type Recurrence struct {
	Every int
	Unit  string
	Count int
}

// Match is the result of matching an event-start line.
type Match struct {
	Layout Layout
	// DatePart is the date expression, without the terminating colon.
	DatePart string
	// Start and End are the byte columns of DatePart in the line.
	Start, End int
	// Rest is the column just past the terminating colon.
	Rest int

	From  Side
	To    Side
	HasTo bool

	Recurrence *Recurrence
}

const (
	directionPattern  = `before|after|by|from`
	recurrencePattern = `(?:\s+every\s+(?:(?P<recurEvery>\d+)\s*)?(?P<recurUnit>days?|weeks?|months?|years?|hours?|minutes?)(?:\s+(?:for\s+(?P<recurFor>\d+)\s+times?|x\s*(?P<recurX>\d+)))?)?`
	casualSeparator   = `(?:\s*(?:-|–|—)\s*|\s+(?:to|until|through)\s+)`
)

func edtfSide(p string) string {
	return `(?:(?P<` + p + `Now>now)` +
		`|(?P<` + p + `Rel>` + dates.AmountPattern + `)(?:\s+(?P<` + p + `Dir>` + directionPattern + `)` +
		`(?:\s+(?:!(?P<` + p + `ID>[\w-]+)|(?P<` + p + `Anchor>` + dates.EDTFPattern + `)))?)?` +
		`|(?P<` + p + `Date>` + dates.EDTFPattern + `))`
}

func casualSide(p string) string {
	return `(?:(?P<` + p + `Now>now)|(?P<` + p + `Date>` + dates.CasualPattern + `))`
}

var (
	edtfStart = regexp.MustCompile(`(?i)^\s*(?P<datePart>(?P<from>` + edtfSide("from") + `)` +
		`(?:\s*/\s*(?P<to>` + edtfSide("to") + `))?` + recurrencePattern + `)\s*:`)

	// EventStart is the casual event-start grammar.
	EventStart = regexp.MustCompile(`(?i)^\s*(?P<datePart>(?P<from>` + casualSide("from") + `)` +
		`(?:` + casualSeparator + `(?P<to>` + casualSide("to") + `))?` + recurrencePattern + `)\s*:`)
)

// MatchEDTF matches line against the structured EDTF grammar.
func MatchEDTF(line string) *Match {
	return extract(edtfStart, line, LayoutEDTF)
}

// MatchCasual matches line against the casual grammar.
func MatchCasual(line string) *Match {
	return extract(EventStart, line, LayoutCasual)
}

func extract(re *regexp.Regexp, line string, layout Layout) *Match {
	loc := re.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil
	}
	group := func(name string) (string, int, int) {
		i := re.SubexpIndex(name)
		if i < 0 || loc[2*i] < 0 {
			return "", -1, -1
		}
		return line[loc[2*i]:loc[2*i+1]], loc[2*i], loc[2*i+1]
	}
	side := func(p string) Side {
		var s Side
		now, _, _ := group(p + "Now")
		s.Now = now != ""
		s.Date, _, _ = group(p + "Date")
		s.Relative, _, _ = group(p + "Rel")
		s.Direction, _, _ = group(p + "Dir")
		s.EventID, _, _ = group(p + "ID")
		s.Anchor, _, _ = group(p + "Anchor")
		s.Direction = strings.ToLower(s.Direction)
		return s
	}

	m := &Match{Layout: layout, Rest: loc[1]}
	m.DatePart, m.Start, m.End = group("datePart")
	m.From = side("from")
	if to, _, _ := group("to"); to != "" {
		m.HasTo = true
		m.To = side("to")
	}
	if unit, _, _ := group("recurUnit"); unit != "" {
		r := &Recurrence{Every: 1, Unit: strings.TrimSuffix(strings.ToLower(unit), "s")}
		if every, _, _ := group("recurEvery"); every != "" {
			r.Every, _ = strconv.Atoi(every)
		}
		if count, _, _ := group("recurFor"); count != "" {
			r.Count, _ = strconv.Atoi(count)
		} else if count, _, _ := group("recurX"); count != "" {
			r.Count, _ = strconv.Atoi(count)
		}
		m.Recurrence = r
	}
	return m
}
