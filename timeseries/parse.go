package timeseries

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DateFormat     = "20060102"
	DateTimeFormat = "20060102150405"
)

// Spreadsheet day counts are relative to 1899-12-30 (day 1 = 1900-01-01 in
// the 1900 date system, which carries the historical Lotus leap-year bug).
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ValueParser maps textual sentinels (dry, missing, below detection limit)
// to their numeric codes before falling back to plain float parsing.
type ValueParser struct {
	Sentinels map[string]float64
}

// Parse converts a raw field to a float. Unparseable content becomes NaN;
// this never fails, callers detect bad values by checking for NaN.
func (p ValueParser) Parse(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN()
	}
	if code, ok := p.Sentinels[strings.ToLower(raw)]; ok {
		return code
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseDate accepts yyyymmdd, yyyymmddhhmmss, or a spreadsheet-style numeric
// day count with fractional days for the time of day. Both encodings may
// occur within the same column, so all are tried on every field.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	switch len(raw) {
	case len(DateFormat):
		if t, err := time.Parse(DateFormat, raw); err == nil {
			return t, nil
		}
	case len(DateTimeFormat):
		if t, err := time.Parse(DateTimeFormat, raw); err == nil {
			return t, nil
		}
	}

	days, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
	}
	sec := days * 24 * 3600
	return serialEpoch.Add(time.Duration(math.Round(sec)) * time.Second), nil
}

// FormatDate writes a stamp back in the shortest form that preserves it.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(DateFormat)
	}
	return t.Format(DateTimeFormat)
}
