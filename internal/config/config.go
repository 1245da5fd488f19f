// Package config holds the CLI's YAML-sourced defaults: unit id, output
// directory, and similar ambient settings. It never touches the wire
// format's fixed modem/crypto constants (spec.md §6) — those are compiled
// into pkg/modem and pkg/crypto and are not configurable.
//
// Grounded on cmd/project3/config/config.go's Config struct + yaml tag +
// LoadConfig shape.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the CLI's defaults file.
type Config struct {
	DefaultUnitID int    `yaml:"default_unit_id"`
	OutputDir     string `yaml:"output_dir"`
}

// Default returns the built-in defaults used when no config file is given.
func Default() Config {
	return Config{
		DefaultUnitID: 1,
		OutputDir:     ".",
	}
}

// Load reads a YAML config file, falling back to Default for any field
// the file omits.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
