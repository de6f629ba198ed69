package export

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sif/timeseries"
	"sif/utils"
)

// getTimeseriesID finds or creates the timeseries row for a point,
// returning its ID.
func getTimeseriesID(pool *pgxpool.Pool, name string, x, y float64) (tsid int32, err error) {
	err = pool.QueryRow(context.TODO(),
		`SELECT id FROM public.timeseries WHERE name = $1 AND x = $2 AND y = $3`,
		name, x, y,
	).Scan(&tsid)
	if err == nil {
		return tsid, nil
	}

	err = pool.QueryRow(context.TODO(),
		`INSERT INTO public.timeseries (name, x, y) VALUES ($1, $2, $3) RETURNING id`,
		name, x, y,
	).Scan(&tsid)
	return tsid, err
}

// insertSamples bulk-inserts the first value column. Missing values (NaN)
// are stored as NULL.
func insertSamples(pool *pgxpool.Pool, tsid int32, series *timeseries.Series, logStr string) (int64, error) {
	size := series.Len()
	count, err := pool.CopyFrom(
		context.TODO(),
		pgx.Identifier{"public", "data"},
		[]string{"timeseries", "obstime", "obsvalue"},
		pgx.CopyFromSlice(size, func(i int) ([]any, error) {
			sample := series.Samples[i]

			var value *float64
			if len(sample.Values) > 0 && !math.IsNaN(sample.Values[0]) {
				value = &sample.Values[0]
			}
			return []any{tsid, sample.Time, value}, nil
		}),
	)
	if err != nil {
		return count, err
	}

	logStr += fmt.Sprintf("%v/%v samples inserted", count, size)
	if int(count) != size {
		slog.Warn(logStr)
	}
	return count, nil
}

// applySpan narrows the series to the [From, To] window, substituting open
// bounds with the series' own range.
func applySpan(series *timeseries.Series, span utils.TimeSpan) *timeseries.Series {
	if series.Len() == 0 {
		return series
	}

	start := series.Samples[0].Time
	end := series.Samples[series.Len()-1].Time
	if span.From != nil {
		start = *span.From
	}
	if span.To != nil {
		end = *span.To
	}
	return series.Select(start, end)
}
