package utils

import (
	"fmt"
	"time"
)

// Timestamp is a go-arg flag type accepting "YYYY-MM-DD", "yyyymmdd" or
// "now" (today at midnight).
type Timestamp struct {
	t time.Time
}

func (ts *Timestamp) UnmarshalText(b []byte) error {
	raw := string(b)
	if raw == "now" {
		now := time.Now().UTC()
		ts.t = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	}

	for _, layout := range []string{time.DateOnly, "20060102"} {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.t = t
			return nil
		}
	}
	return fmt.Errorf("only \"YYYY-MM-DD\" or \"yyyymmdd\" dates are allowed, got %s", raw)
}

func (ts *Timestamp) Time() time.Time { return ts.t }

// TimeSpan is an optional [From, To] selection window.
type TimeSpan struct {
	From *time.Time
	To   *time.Time
}

func NewTimespan(from, to *Timestamp) TimeSpan {
	var span TimeSpan
	if from != nil {
		f := from.t
		span.From = &f
	}
	if to != nil {
		t := to.t
		span.To = &t
	}
	return span
}
