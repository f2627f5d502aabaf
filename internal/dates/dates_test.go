package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundUp(t *testing.T) {
	base := time.Date(2021, time.March, 14, 15, 9, 26, 0, time.UTC)
	tests := []struct {
		name string
		g    Granularity
		want time.Time
	}{
		{name: "year", g: Year, want: time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{name: "month", g: Month, want: time.Date(2021, time.April, 1, 0, 0, 0, 0, time.UTC)},
		{name: "day", g: Day, want: time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC)},
		{name: "instant", g: Instant, want: base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.want.Equal(RoundUp(base, tt.g)))
		})
	}

	// December rolls over into the next year.
	dec := time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), RoundUp(dec, Month))
	require.Equal(t, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), RoundUp(dec, Day))
}

func TestApplyRelative(t *testing.T) {
	anchor := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		amount string
		dir    Direction
		want   time.Time
	}{
		{name: "days before", amount: "3 days", dir: Before, want: time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)},
		{name: "days after", amount: "3 days", dir: After, want: time.Date(2024, time.January, 13, 0, 0, 0, 0, time.UTC)},
		{name: "months", amount: "2 months", dir: After, want: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)},
		{name: "compound", amount: "1 year, 2 weeks and 3 hours", dir: After, want: time.Date(2025, time.January, 24, 3, 0, 0, 0, time.UTC)},
		{name: "abbreviated", amount: "1y 1mo 1d", dir: After, want: time.Date(2025, time.February, 11, 0, 0, 0, 0, time.UTC)},
		{name: "minutes", amount: "90 minutes", dir: After, want: time.Date(2024, time.January, 10, 1, 30, 0, 0, time.UTC)},
		{name: "milliseconds", amount: "5 ms", dir: After, want: anchor.Add(5 * time.Millisecond)},
		// 2024-01-10 is a Wednesday; three business days later is Monday.
		{name: "week days", amount: "3 week days", dir: After, want: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{name: "week days before", amount: "3 weekdays", dir: Before, want: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ApplyRelative(anchor, tt.amount, tt.dir)
			require.True(t, ok)
			require.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestApplyRelativeRejectsGarbage(t *testing.T) {
	anchor := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	for _, amount := range []string{"", "days", "3 fortnights", "3 days banana", "soon"} {
		_, ok := ApplyRelative(anchor, amount, After)
		require.False(t, ok, amount)
	}
}

func TestApplyRelativeLargeAmounts(t *testing.T) {
	// 2020-01-01 is a Wednesday.
	anchor := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	got, ok := ApplyRelative(anchor, "3000000 hours", After)
	require.True(t, ok)
	require.True(t, anchor.AddDate(0, 0, 125000).Equal(got), "got %s", got)
	require.Equal(t, 2362, got.Year())

	got, ok = ApplyRelative(anchor, "3000000 hours", Before)
	require.True(t, ok)
	require.True(t, anchor.AddDate(0, 0, -125000).Equal(got), "got %s", got)

	start := time.Now()
	got, ok = ApplyRelative(anchor, "300000000 weekdays", After)
	require.True(t, ok)
	require.Less(t, time.Since(start), time.Second)
	require.True(t, anchor.AddDate(0, 0, 420000000).Equal(got), "got %s", got)
}

func TestApplyRelativeRejectsOverflow(t *testing.T) {
	anchor := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	for _, amount := range []string{
		"99999999999999999 hours",
		"2000 hours and 9223372036854775 seconds",
		"2000000 years",
		"999999 years and 2 years",
		"99999999999 days",
		"99999999999 weekdays",
		"99999999999999999999 days",
	} {
		_, ok := ApplyRelative(anchor, amount, After)
		require.False(t, ok, amount)
	}
}

// Skipping weekdays in whole weeks lands where stepping day by day does.
func TestBusinessDaysMatchDayByDay(t *testing.T) {
	stepwise := func(t0 time.Time, n int) time.Time {
		step := 1
		if n < 0 {
			step, n = -1, -n
		}
		for n > 0 {
			t0 = t0.AddDate(0, 0, step)
			if wd := t0.Weekday(); wd != time.Saturday && wd != time.Sunday {
				n--
			}
		}
		return t0
	}
	base := time.Date(2024, time.March, 2, 9, 0, 0, 0, time.UTC) // Saturday
	for day := 0; day < 7; day++ {
		from := base.AddDate(0, 0, day)
		for n := -23; n <= 23; n++ {
			require.Equal(t, stepwise(from, n), addBusinessDays(from, n), "from %s n %d", from.Weekday(), n)
		}
	}
}

func TestParseDirection(t *testing.T) {
	require.Equal(t, Before, ParseDirection("before"))
	require.Equal(t, Before, ParseDirection("By"))
	require.Equal(t, After, ParseDirection("after"))
	require.Equal(t, After, ParseDirection("from"))
	require.Equal(t, After, ParseDirection(""))
}

func TestParseEDTF(t *testing.T) {
	tests := []struct {
		token string
		want  time.Time
		g     Granularity
	}{
		{"2020", time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), Year},
		{"2020-05", time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC), Month},
		{"2020-05-17", time.Date(2020, time.May, 17, 0, 0, 0, 0, time.UTC), Day},
		{"2020-05-17T08:30", time.Date(2020, time.May, 17, 8, 30, 0, 0, time.UTC), Instant},
		{"2020-05-17T08:30:15.5Z", time.Date(2020, time.May, 17, 8, 30, 15, 500000000, time.UTC), Instant},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, g, ok := ParseEDTF(tt.token, time.UTC)
			require.True(t, ok)
			require.Equal(t, tt.g, g)
			require.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	withOffset, _, ok := ParseEDTF("2020-05-17T08:30+02:00", time.UTC)
	require.True(t, ok)
	require.True(t, time.Date(2020, time.May, 17, 6, 30, 0, 0, time.UTC).Equal(withOffset))

	for _, bad := range []string{"2020-13", "2021-02-29", "2020-01-01T25:00", "20", "May 2020"} {
		_, _, ok := ParseEDTF(bad, time.UTC)
		require.False(t, ok, bad)
	}
}

func TestParseCasual(t *testing.T) {
	tests := []struct {
		token  string
		format DateFormat
		want   time.Time
		g      Granularity
	}{
		{"March 3, 2021", American, time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC), Day},
		{"3rd March 2021", American, time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC), Day},
		{"Sept. 2019", American, time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC), Month},
		{"1/2/2020", American, time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC), Day},
		{"1/2/2020", European, time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC), Day},
		{"5/2020", American, time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC), Month},
		{"1999", American, time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC), Year},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, g, ok := ParseCasual(tt.token, tt.format, time.UTC)
			require.True(t, ok)
			require.Equal(t, tt.g, g)
			require.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, _, ok := ParseCasual("13/13/2020", American, time.UTC)
	require.False(t, ok)
	_, _, ok = ParseCasual("Smarch 2020", American, time.UTC)
	require.False(t, ok)
}

func TestParseDateFormat(t *testing.T) {
	f, ok := ParseDateFormat("d/M/y")
	require.True(t, ok)
	require.Equal(t, European, f)
	_, ok = ParseDateFormat("y/d/M")
	require.False(t, ok)
}
