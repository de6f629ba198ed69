// Package export implements the `sif export` subcommand: push the associated
// timeseries of an IPF file into a Postgres observation database.
package export

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"sif/ipf"
	"sif/utils"
)

// Connection string environment variable, loaded from .env by the root command
const EnvVar = "SIF_DB_CONN_STRING"

type Config struct {
	File     string           `arg:"positional,required" help:"IPF file whose associated timeseries are exported"`
	IDColumn string           `arg:"--id-column" default:"ID" help:"column identifying each point"`
	From     *utils.Timestamp `arg:"--from" help:"export samples from this date"`
	To       *utils.Timestamp `arg:"--to" help:"export samples up to this date"`
}

func (c *Config) Execute() error {
	utils.SetLogFile("export")

	conn := os.Getenv(EnvVar)
	if conn == "" {
		return fmt.Errorf("%s is not set", EnvVar)
	}
	pool, err := pgxpool.New(context.TODO(), conn)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer pool.Close()

	file, err := ipf.ReadFile(c.File, false)
	if err != nil {
		return err
	}
	if _, ok := file.ColumnIndex(c.IDColumn); !ok {
		return fmt.Errorf("%s has no %q column", c.File, c.IDColumn)
	}

	points, err := file.Points()
	if err != nil {
		return err
	}
	span := utils.NewTimespan(c.From, c.To)

	logger := &utils.Logger{}
	bar := utils.NewBar(len(points), "exporting")
	bar.RenderBlank()

	var exported int64
	for _, p := range points {
		count, err := exportPoint(file, p, c.IDColumn, span, pool, logger)
		if err != nil {
			// Per-point failures do not abort the batch
			logger.Warn(fmt.Sprintf("Skipping point (%v, %v): %v", p.X, p.Y, err))
		}
		exported += count
		bar.Add(1)
	}

	logger.Info(fmt.Sprintf("Exported %v samples from %s", exported, c.File))
	return nil
}

func exportPoint(file *ipf.PointFile, p *ipf.Point, idColumn string,
	span utils.TimeSpan, pool *pgxpool.Pool, logger *utils.Logger) (int64, error) {

	if !file.HasAssociatedFile(p) {
		return 0, nil
	}
	series, err := file.LoadTimeseries(p)
	if err != nil {
		return 0, err
	}

	if span.From != nil || span.To != nil {
		series = applySpan(series, span)
	}
	if series.Len() == 0 {
		return 0, nil
	}

	name, _ := file.Value(p, idColumn)
	tsid, err := getTimeseriesID(pool, name, p.X, p.Y)
	if err != nil {
		return 0, err
	}

	logger.Indent()
	defer logger.Outdent()
	return insertSamples(pool, tsid, series, fmt.Sprintf("%s: ", name))
}
