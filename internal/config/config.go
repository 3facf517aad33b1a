// Package config loads the toolchain's run configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DumpStage names an intermediate tree the driver can be asked to print.
type DumpStage string

const (
	DumpTyped      DumpStage = "typed"
	DumpHIR        DumpStage = "hir"
	DumpFlatLet    DumpStage = "flatlet"
	DumpFlatExpr   DumpStage = "flatexpr"
	DumpUnnested   DumpStage = "unnested"
	DumpClosed     DumpStage = "closed"
)

// Config is the run configuration threaded through the pipeline, REPL, and
// CLI: which intermediate trees to dump, whether output is
// colorized, and where source input comes from.
type Config struct {
	Dump        []DumpStage `yaml:"dump"`
	Color       bool        `yaml:"color"`
	SourcePath  string      `yaml:"source"`
	Interactive bool        `yaml:"-"` // REPL-only, never loaded from file
}

// Default returns the zero-value-safe configuration the CLI starts from
// before applying flags or a config file.
func Default() Config {
	return Config{Color: true}
}

// Load reads a YAML configuration file. A missing
// Dump list is left empty rather than defaulted, since "dump nothing" is a
// legitimate choice distinct from an unset field.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ShouldDump reports whether stage is named in cfg.Dump.
func (c Config) ShouldDump(stage DumpStage) bool {
	for _, s := range c.Dump {
		if s == stage {
			return true
		}
	}
	return false
}
