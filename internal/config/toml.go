// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Fit    FitConfig    `toml:"fit"`
	Report ReportConfig `toml:"report"`
}

// FitConfig maps fitting settings. Unset values stay nil so that the
// caller can tell them apart from explicit zeros.
type FitConfig struct {
	Method         *string    `toml:"method"`
	Region         *string    `toml:"region"`
	Candidates     *[]string  `toml:"candidates"`
	Mandatory      *[]string  `toml:"mandatory"`
	SlopeBounds    *[]float64 `toml:"slope_bounds"`
	Workers        *int       `toml:"workers"`
	MaxIterations  *int       `toml:"max_iterations"`
	MaxEvaluations *int       `toml:"max_evaluations"`
	Restarts       *int       `toml:"restarts"`
}

// ReportConfig maps PDF report settings.
type ReportConfig struct {
	Title *string `toml:"title"`
	Top   *int    `toml:"top"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Fit.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FitConfig) validate() error {
	if c.SlopeBounds != nil {
		b := *c.SlopeBounds
		if len(b) != 2 || !(b[0] < b[1]) {
			return fmt.Errorf("fit.slope_bounds must be [low, high] with low < high, got %v", b)
		}
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("fit.workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}
