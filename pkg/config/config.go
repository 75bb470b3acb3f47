// Package config provides configuration loading and management.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents a memstab configuration file.
type Config struct {
	// Stores
	Original   string `yaml:"original"`
	Processed  string `yaml:"processed"`
	Stabilized string `yaml:"stabilized"`

	// Geometry
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	FrameCount int `yaml:"frame_count"`

	// Pipeline
	OpticalFlowDir string `yaml:"optical_flow_dir"`
	Warmup         int    `yaml:"warmup"`
	BatchSize      int    `yaml:"batch_size"`
	ReportAfter    int    `yaml:"report_after"`

	Engine EngineConfig `yaml:"engine"`

	// Pack and unpack
	Workers int `yaml:"workers"`

	// Output
	Summary string `yaml:"summary"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// EngineConfig selects the bundled host engine behavior.
type EngineConfig struct {
	Mode        string  `yaml:"mode"`
	BlendWeight float64 `yaml:"blend_weight"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Warmup:      3,
		BatchSize:   1,
		ReportAfter: 100,

		Engine: EngineConfig{
			Mode:        "passthrough",
			BlendWeight: 0.5,
		},

		DebugDir: "./debug",

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
