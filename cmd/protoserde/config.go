package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config holds the settings that can come from a YAML file. Command-line flags
// override them.
type config struct {
	ImportPaths []string `yaml:"import_paths"`
	Format      string   `yaml:"format"`
	Engine      string   `yaml:"engine"`
	MaxDepth    int      `yaml:"max_depth"`
	Indent      string   `yaml:"indent"`
}

func defaultConfig() config {
	return config{Format: "json", Engine: "lite"}
}

func loadConfig(path string, cfg *config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c config) validate() error {
	switch c.Format {
	case "json", "yaml", "msgpack":
	default:
		return fmt.Errorf("unknown format %q (want json, yaml or msgpack)", c.Format)
	}
	switch c.Engine {
	case "lite", "reflect":
	default:
		return fmt.Errorf("unknown engine %q (want lite or reflect)", c.Engine)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	return nil
}
