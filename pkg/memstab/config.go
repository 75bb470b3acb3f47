// Package memstab provides a high-level API for configuring stabilization runs.
package memstab

import (
	"github.com/user/memstab/pkg/config"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/orchestrator"
)

// Config represents the pipeline settings of a run.
type Config struct {
	Width      int
	Height     int
	FrameCount int // 0 = derive from the original store

	Warmup      int // Frames k on each side of the cursor (min: 0)
	BatchSize   int // Lookahead frames per step (min: 1)
	ReportAfter int // Timed steps before the report (min: 1)

	OpticalFlowDir string // Empty selects engine-computed flow

	EngineMode  string
	BlendWeight float64

	Workers int // Pack/unpack workers (0 = all CPUs)
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with default settings.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: defaults()}
}

func defaults() Config {
	return Config{
		Warmup:      3,
		BatchSize:   1,
		ReportAfter: 100,
		EngineMode:  "passthrough",
		BlendWeight: 0.5,
	}
}

// FromFile applies every setting of a loaded configuration file.
func (b *ConfigBuilder) FromFile(cfg config.Config) *ConfigBuilder {
	b.config.Width = cfg.Width
	b.config.Height = cfg.Height
	b.config.FrameCount = cfg.FrameCount
	b.config.Warmup = cfg.Warmup
	b.config.BatchSize = cfg.BatchSize
	b.config.ReportAfter = cfg.ReportAfter
	b.config.OpticalFlowDir = cfg.OpticalFlowDir
	if cfg.Engine.Mode != "" {
		b.config.EngineMode = cfg.Engine.Mode
	}
	b.config.BlendWeight = cfg.Engine.BlendWeight
	b.config.Workers = cfg.Workers
	return b
}

// Build returns the final Config, applying constraints.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	if cfg.Warmup < 0 {
		cfg.Warmup = 0
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.ReportAfter < 1 {
		cfg.ReportAfter = 1
	}
	if cfg.FrameCount < 0 {
		cfg.FrameCount = 0
	}
	if cfg.Workers < 0 {
		cfg.Workers = 0
	}

	return cfg
}

func (b *ConfigBuilder) WithSize(width, height int) *ConfigBuilder {
	b.config.Width = width
	b.config.Height = height
	return b
}

// WithFrameCount sets the number of records. 0 derives it from file size.
func (b *ConfigBuilder) WithFrameCount(n int) *ConfigBuilder {
	b.config.FrameCount = n
	return b
}

// WithWarmup sets k. Negative values are forced to 0.
func (b *ConfigBuilder) WithWarmup(k int) *ConfigBuilder {
	b.config.Warmup = k
	return b
}

// WithBatchSize sets the lookahead batch. Values below 1 are forced to 1.
func (b *ConfigBuilder) WithBatchSize(n int) *ConfigBuilder {
	b.config.BatchSize = n
	return b
}

func (b *ConfigBuilder) WithReportAfter(n int) *ConfigBuilder {
	b.config.ReportAfter = n
	return b
}

// WithOpticalFlowDir selects precomputed .flo files from dir.
func (b *ConfigBuilder) WithOpticalFlowDir(dir string) *ConfigBuilder {
	b.config.OpticalFlowDir = dir
	return b
}

func (b *ConfigBuilder) WithEngine(mode string, blendWeight float64) *ConfigBuilder {
	b.config.EngineMode = mode
	b.config.BlendWeight = blendWeight
	return b
}

func (b *ConfigBuilder) WithWorkers(n int) *ConfigBuilder {
	b.config.Workers = n
	return b
}

// ToOrchestratorConfig converts Config to orchestrator.Config for the given stores.
func (c Config) ToOrchestratorConfig(paths framestore.Paths, summaryPath string) orchestrator.Config {
	return orchestrator.Config{
		OriginalPath:   paths.Original,
		ProcessedPath:  paths.Processed,
		StabilizedPath: paths.Stabilized,

		Width:      c.Width,
		Height:     c.Height,
		FrameCount: c.FrameCount,

		OpticalFlowDir: c.OpticalFlowDir,

		Warmup:      c.Warmup,
		BatchSize:   c.BatchSize,
		ReportAfter: c.ReportAfter,

		SummaryPath: summaryPath,
		EngineName:  c.EngineMode,
	}
}
