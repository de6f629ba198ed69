// Package merge implements the `sif merge` subcommand: combine batches of
// IPF point files, optionally split into prefix groups by a filename marker.
package merge

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"sif/config"
	"sif/ipf"
	"sif/timeseries"
	"sif/utils"
)

type Config struct {
	Files      []string `arg:"positional,required" help:"IPF files to merge"`
	Output     string   `arg:"-o,--output" help:"output filename (defaults to the configured merge output)"`
	Marker     string   `arg:"-m,--marker" help:"substring splitting inputs into prefix groups, each merged separately"`
	Associated bool     `arg:"--associated" help:"rewrite associated timeseries files next to the output"`
	ConfigFile string   `arg:"-c,--config" help:"YAML run configuration"`
}

func (c *Config) Execute() error {
	utils.SetLogFile("merge")

	cfg := config.Default()
	if c.ConfigFile != "" {
		loaded, err := config.Load(c.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.Output == "" {
		c.Output = cfg.MergeOutput
	}

	logger := &utils.Logger{}
	parser := timeseries.ValueParser{Sentinels: cfg.Sentinels}

	for group, files := range groupByMarker(c.Files, c.Marker) {
		output := c.groupOutput(group)
		logger.Info(fmt.Sprintf("Merging %d files into %s", len(files), output))

		logger.Indent()
		target, err := mergeGroup(files, parser, logger)
		logger.Outdent()
		if err != nil {
			return err
		}

		if err := target.WriteFile(output, c.Associated); err != nil {
			return err
		}
	}
	return nil
}

// groupByMarker splits the inputs into prefix groups. The group key is the
// base name up to the marker; files without the marker (or when no marker is
// given) fall into the implicit ungrouped bucket keyed by the empty string.
func groupByMarker(files []string, marker string) map[string][]string {
	groups := map[string][]string{}
	for _, path := range files {
		key := ""
		if marker != "" {
			base := filepath.Base(path)
			if i := strings.Index(base, marker); i >= 0 {
				key = base[:i]
			}
		}
		groups[key] = append(groups[key], path)
	}
	return groups
}

func (c *Config) groupOutput(group string) string {
	if group == "" {
		return c.Output
	}
	return filepath.Join(filepath.Dir(c.Output), group+"_"+filepath.Base(c.Output))
}

// mergeGroup reads the group's files in order. A failure on the first,
// defining file is fatal; later files that cannot be read or have a
// different column count are skipped with a warning so the batch can still
// produce a best-effort result.
func mergeGroup(files []string, parser timeseries.ValueParser, logger *utils.Logger) (*ipf.PointFile, error) {
	target, err := ipf.ReadFile(files[0], false)
	if err != nil {
		return nil, fmt.Errorf("could not read defining file: %w", err)
	}
	target.Parser = parser

	bar := utils.NewBar(len(files), "merging")
	bar.Add(1)

	for _, path := range files[1:] {
		source, err := ipf.ReadFile(path, false)
		if err != nil {
			logger.Warn(fmt.Sprintf("Skipping %s: %v", path, err))
			bar.Add(1)
			continue
		}

		var mismatch *ipf.ErrColumnMismatch
		if err := ipf.Merge(target, source); errors.As(err, &mismatch) {
			logger.Warn(fmt.Sprintf("Skipping %s: %v", path, err))
		} else if err != nil {
			return nil, err
		}
		bar.Add(1)
	}
	return target, nil
}
