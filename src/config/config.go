// Package config loads the sandpile configuration from YAML files.
// The command line flags are applied on top of the loaded values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sandpile/src/sandbox"
)

// Config contains all sandpile settings.
type Config struct {
	// Simulation contains the sand box settings.
	Simulation SimulationConfig `yaml:"simulation"`

	// Output contains the snapshot destinations.
	Output OutputConfig `yaml:"output"`

	// Logging contains the operational logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// SimulationConfig configures the grid and the driving loop.
type SimulationConfig struct {
	// Size is the grid dimension N, fixed for the run.
	Size int `yaml:"size"`

	// Iterations is the number of grains dropped.
	Iterations int `yaml:"iterations"`

	// Row and Col address the injection cell for the fixed placement.
	Row int `yaml:"row"`
	Col int `yaml:"col"`

	// Placement is "fixed", "random" or "center".
	Placement string `yaml:"placement"`

	// Seed seeds the random placement.
	Seed uint64 `yaml:"seed"`

	// Engine is the stabilizer name: "scan" or "queue".
	Engine string `yaml:"engine"`
}

// OutputConfig configures the exporters.
type OutputConfig struct {
	// Log is the text log path, snapshots are appended. Empty disables it.
	Log string `yaml:"log"`

	// DB is the optional sqlite database path.
	DB string `yaml:"db"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is "error", "warn", "info", "debug" or "trace".
	Level string `yaml:"level"`

	// Quiet disables the console progress output.
	Quiet bool `yaml:"quiet"`
}

// Default returns the reference configuration.
func Default() *Config {
	o := sandbox.DefaultOptions()
	return &Config{
		Simulation: SimulationConfig{
			Size:       o.Size,
			Iterations: o.Iterations,
			Row:        o.Injection.I,
			Col:        o.Injection.J,
			Placement:  string(o.Placement),
			Engine:     o.Engine,
		},
		Output: OutputConfig{
			Log: "sandbox.log",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the simulation settings to sandbox.Options.
// The result is not validated, see sandbox.Options.Validate.
func (c *Config) Options() sandbox.Options {
	s := c.Simulation
	return sandbox.Options{
		Size:       s.Size,
		Iterations: s.Iterations,
		Injection:  sandbox.Point{I: s.Row, J: s.Col},
		Placement:  sandbox.Placement(s.Placement),
		Seed:       s.Seed,
		Engine:     s.Engine,
	}
}
