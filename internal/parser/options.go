package parser

import (
	"time"

	"marktime/internal/dates"
)

type options struct {
	now        time.Time
	loc        *time.Location
	dateFormat dates.DateFormat
}

// Option adjusts a parse.
type Option func(*options)

// WithNow fixes the instant used for "now" and for every fallback that
// degrades to it.
func WithNow(now time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the zone absolute dates without an offset are read in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithDateFormat sets the numeric date order used until a dateFormat
// directive says otherwise.
func WithDateFormat(f dates.DateFormat) Option {
	return func(o *options) { o.dateFormat = f }
}

func buildOptions(opts []Option) options {
	o := options{loc: time.Local, dateFormat: dates.American}
	for _, opt := range opts {
		opt(&o)
	}
	if o.now.IsZero() {
		o.now = time.Now()
	}
	o.now = o.now.In(o.loc)
	return o
}
