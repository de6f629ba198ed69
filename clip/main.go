// Package clip implements the `sif clip` subcommand: crop an IDF raster to
// a rectangular extent.
package clip

import (
	"fmt"
	"log/slog"

	"sif/gis"
	"sif/idf"
	"sif/utils"
)

type Config struct {
	Input  string    `arg:"positional,required" help:"source IDF file"`
	Output string    `arg:"positional,required" help:"clipped IDF file"`
	Extent []float64 `arg:"-e,--extent,required" help:"clip window as xmin ymin xmax ymax"`
}

func (c *Config) Execute() error {
	utils.SetLogFile("clip")

	if len(c.Extent) != 4 {
		return fmt.Errorf("extent needs 4 values (xmin ymin xmax ymax), got %d", len(c.Extent))
	}
	extent, err := gis.NewExtent(c.Extent[0], c.Extent[1], c.Extent[2], c.Extent[3])
	if err != nil {
		return err
	}

	grid, err := idf.ReadFile(c.Input, false)
	if err != nil {
		return err
	}

	clipped, err := grid.Clip(extent)
	if err != nil {
		return err
	}
	if clipped.NRows == 0 || clipped.NCols == 0 {
		slog.Warn(fmt.Sprintf("%s does not overlap %v, writing an empty grid", c.Input, extent))
	}

	if err := clipped.WriteFile(c.Output); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("Clipped %s to %s (%dx%d cells)", c.Input, clipped.Extent, clipped.NRows, clipped.NCols))
	return nil
}
