// Package config loads the optional YAML run configuration shared by the
// command line tools.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Textual value sentinels mapped to their numeric codes,
	// e.g. "dry: -99001". Keys are matched case-insensitively.
	Sentinels map[string]float64 `yaml:"sentinels"`
	// Default output name for ungrouped merge results
	MergeOutput string `yaml:"merge_output"`
}

func Default() *Config {
	return &Config{
		Sentinels: map[string]float64{
			"dry":     -99001,
			"missing": -99002,
			"<dl":     -99003,
		},
		MergeOutput: "merged.ipf",
	}
}

// Load reads the configuration at path, filling in defaults for anything
// left unset.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}

	defaults := Default()
	if c.Sentinels == nil {
		c.Sentinels = defaults.Sentinels
	}
	if c.MergeOutput == "" {
		c.MergeOutput = defaults.MergeOutput
	}

	// The value parser matches sentinels on the lowercased field
	sentinels := make(map[string]float64, len(c.Sentinels))
	for k, v := range c.Sentinels {
		sentinels[strings.ToLower(k)] = v
	}
	c.Sentinels = sentinels
	return &c, nil
}
