package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rickb777/period"
)

// Sample is one observation row: a timestamp and one value per value column.
// Missing values are NaN.
type Sample struct {
	Time   time.Time
	Values []float64
}

// Series is an ordered list of samples. Timestamps are non-decreasing;
// duplicate timestamps are tolerated and kept in input order.
type Series struct {
	ColumnNames []string
	Samples     []Sample
}

func New(columnNames []string) *Series {
	return &Series{ColumnNames: columnNames}
}

func (s *Series) Len() int { return len(s.Samples) }

// Append adds a sample, keeping the non-decreasing timestamp invariant.
func (s *Series) Append(sample Sample) error {
	if n := len(s.Samples); n > 0 && sample.Time.Before(s.Samples[n-1].Time) {
		return fmt.Errorf("timestamp %v before previous sample %v",
			sample.Time, s.Samples[n-1].Time)
	}
	s.Samples = append(s.Samples, sample)
	return nil
}

// Select returns a new series with the samples whose timestamp lies in
// [start, end]. An empty window yields an empty series, never nil.
func (s *Series) Select(start, end time.Time) *Series {
	out := New(s.ColumnNames)

	// Samples are sorted, so the window is a contiguous run.
	lo := sort.Search(len(s.Samples), func(i int) bool {
		return !s.Samples[i].Time.Before(start)
	})
	hi := sort.Search(len(s.Samples), func(i int) bool {
		return s.Samples[i].Time.After(end)
	})
	if lo < hi {
		out.Samples = append(out.Samples, s.Samples[lo:hi]...)
	}
	return out
}

// Interpolate resamples the series onto count equally spaced stamps starting
// at start, separated by the given ISO-8601 period. Values are linearly
// interpolated between the bracketing samples of the first matching column
// pair; stamps outside the observed range, or bracketed by a missing value,
// come out as NaN.
func (s *Series) Interpolate(start time.Time, step period.Period, count int) (*Series, error) {
	if step.IsZero() || count < 0 {
		return nil, fmt.Errorf("invalid resampling request: step %v, count %v", step, count)
	}

	out := New(s.ColumnNames)
	stamp := start
	for i := 0; i < count; i++ {
		values := make([]float64, s.columnCount())
		for col := range values {
			values[col] = s.valueAt(stamp, col)
		}
		out.Samples = append(out.Samples, Sample{Time: stamp, Values: values})

		next, ok := step.AddTo(stamp)
		if !ok {
			return nil, fmt.Errorf("could not add period %v to %v", step, stamp)
		}
		stamp = next
	}
	return out, nil
}

func (s *Series) columnCount() int {
	if len(s.ColumnNames) > 0 {
		return len(s.ColumnNames)
	}
	if len(s.Samples) > 0 {
		return len(s.Samples[0].Values)
	}
	return 0
}

// valueAt linearly interpolates column col at the given stamp.
func (s *Series) valueAt(stamp time.Time, col int) float64 {
	n := len(s.Samples)
	if n == 0 {
		return math.NaN()
	}

	// First sample at or after the stamp
	i := sort.Search(n, func(i int) bool {
		return !s.Samples[i].Time.Before(stamp)
	})
	if i < n && s.Samples[i].Time.Equal(stamp) {
		return s.sampleValue(i, col)
	}
	if i == 0 || i == n {
		// Before the first or after the last observation
		return math.NaN()
	}

	before, after := s.Samples[i-1], s.Samples[i]
	v0, v1 := s.sampleValue(i-1, col), s.sampleValue(i, col)
	if math.IsNaN(v0) || math.IsNaN(v1) {
		return math.NaN()
	}

	span := after.Time.Sub(before.Time).Seconds()
	if span == 0 {
		return v0
	}
	frac := stamp.Sub(before.Time).Seconds() / span
	return v0 + frac*(v1-v0)
}

func (s *Series) sampleValue(i, col int) float64 {
	if col >= len(s.Samples[i].Values) {
		return math.NaN()
	}
	return s.Samples[i].Values[col]
}
