// Package orchestrator coordinates the pipeline stages over a set of
// mapped frame stores.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/memstab/pkg/flowsource"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/pipeline"
	"github.com/user/memstab/pkg/ports"
	"github.com/user/memstab/pkg/summarizer"
)

// ErrFlowDir is returned when the optical flow directory does not exist.
var ErrFlowDir = errors.New("optical flow directory not found")

// Config contains all configuration for a stabilization run.
type Config struct {
	// Stores
	OriginalPath   string
	ProcessedPath  string
	StabilizedPath string

	Width      int
	Height     int
	FrameCount int // 0 = derive from the size of the original store

	// Optical flow directory; empty means the engine computes flow
	OpticalFlowDir string

	Warmup      int
	BatchSize   int
	ReportAfter int

	// Optional Markdown summary
	SummaryPath string
	EngineName  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	d := pipeline.DefaultStabilizeInput()
	return Config{
		Warmup:      d.Warmup,
		BatchSize:   d.BatchSize,
		ReportAfter: d.ReportAfter,
	}
}

// Paths returns the store paths of the config.
func (c Config) Paths() framestore.Paths {
	return framestore.Paths{
		Original:   c.OriginalPath,
		Processed:  c.ProcessedPath,
		Stabilized: c.StabilizedPath,
	}
}

// Geometry returns the frame geometry of the config.
func (c Config) Geometry() framestore.Geometry {
	return framestore.Geometry{Width: c.Width, Height: c.Height}
}

// RunResult contains the results of a stabilization run.
type RunResult struct {
	FrameCount  int
	Geometry    framestore.Geometry
	FlowSource  flowsource.Kind
	Stabilize   pipeline.StabilizeResult
	Elapsed     time.Duration
	SummaryPath string
}

type storeOpener func(paths framestore.Paths, geometry framestore.Geometry, frameCount int) (*framestore.StoreSet, error)

// Orchestrator coordinates the execution of the pipeline stages.
type Orchestrator struct {
	stabilizeStage pipeline.Stage[pipeline.StabilizeInput, pipeline.StabilizeResult]
	packStage      pipeline.Stage[pipeline.PackInput, pipeline.PackResult]
	unpackStage    pipeline.Stage[pipeline.UnpackInput, pipeline.UnpackResult]
	engine         ports.Engine
	fs             ports.FileSystem
	logger         ports.Logger

	openStores storeOpener
}

// New creates a new Orchestrator. packStage and unpackStage may be nil
// when only Run is used.
func New(
	stabilizeStage pipeline.Stage[pipeline.StabilizeInput, pipeline.StabilizeResult],
	packStage pipeline.Stage[pipeline.PackInput, pipeline.PackResult],
	unpackStage pipeline.Stage[pipeline.UnpackInput, pipeline.UnpackResult],
	engine ports.Engine,
	fs ports.FileSystem,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		stabilizeStage: stabilizeStage,
		packStage:      packStage,
		unpackStage:    unpackStage,
		engine:         engine,
		fs:             fs,
		logger:         logger,
		openStores:     framestore.OpenStoreSet,
	}
}

// Run maps the stores, runs the stabilize stage and writes the optional
// summary. The stores are closed on every return path; a close failure
// is returned when the run itself succeeded.
func (o *Orchestrator) Run(ctx context.Context, config Config) (result RunResult, err error) {
	start := time.Now()

	geometry := config.Geometry()
	if err := geometry.Validate(); err != nil {
		return result, err
	}

	if dir := config.OpticalFlowDir; dir != "" {
		ok, err := o.fs.Exists(dir)
		if err != nil {
			return result, fmt.Errorf("check optical flow directory: %w", err)
		}
		if !ok {
			return result, fmt.Errorf("%w: %s", ErrFlowDir, dir)
		}
	}

	frameCount := config.FrameCount
	if frameCount <= 0 {
		frameCount, err = framestore.FrameCountOf(config.OriginalPath, geometry)
		if err != nil {
			return result, err
		}
		o.logger.Debug("Derived frame count %d from %s", frameCount, config.OriginalPath)
	}

	stores, err := o.openStores(config.Paths(), geometry, frameCount)
	if err != nil {
		o.logger.Error("Failed to stabilize: %s", err)
		return result, fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if cerr := stores.Close(); cerr != nil {
			o.logger.Error("Failed to close stores: %s", cerr)
			if err == nil {
				err = fmt.Errorf("close stores: %w", cerr)
			}
		}
	}()

	src := flowsource.New(config.OpticalFlowDir, o.fs, o.engine, geometry)

	o.logger.Info("Starting stabilization of %d frames (%s)", frameCount, geometry)
	o.logger.Info("Using %s optical flow", src.Kind())

	stab, err := o.stabilizeStage.Execute(ctx, pipeline.StabilizeInput{
		Stores:      stores,
		Flow:        src,
		Warmup:      config.Warmup,
		BatchSize:   config.BatchSize,
		ReportAfter: config.ReportAfter,
	})
	result = RunResult{
		FrameCount: frameCount,
		Geometry:   geometry,
		FlowSource: src.Kind(),
		Stabilize:  stab,
	}
	if err != nil {
		o.logger.Error("Failed to stabilize: %s", err)
		return result, fmt.Errorf("stabilize stage: %w", err)
	}
	result.Elapsed = time.Since(start)

	if config.SummaryPath != "" {
		if err := o.writeSummary(config, result); err != nil {
			return result, err
		}
		result.SummaryPath = config.SummaryPath
		o.logger.Info("Summary written to %s", config.SummaryPath)
	}

	o.logger.Info("Output written to %s", config.StabilizedPath)
	o.logger.Info("Pipeline completed successfully")
	return result, nil
}

func (o *Orchestrator) writeSummary(config Config, result RunResult) error {
	b := summarizer.NewBuilder().
		WithInput(summarizer.InputInfo{
			OriginalPath:   config.OriginalPath,
			ProcessedPath:  config.ProcessedPath,
			StabilizedPath: config.StabilizedPath,
			Width:          result.Geometry.Width,
			Height:         result.Geometry.Height,
			FrameCount:     result.FrameCount,
		}).
		WithSettings(summarizer.Settings{
			Warmup:      config.Warmup,
			BatchSize:   config.BatchSize,
			ReportAfter: config.ReportAfter,
			FlowSource:  result.FlowSource.String(),
			FlowDir:     config.OpticalFlowDir,
			Engine:      config.EngineName,
		}).
		WithFrames(result.Stabilize.FramesWritten, result.Stabilize.PassthroughFrames, result.Stabilize.StabilizedFrames).
		WithElapsed(result.Elapsed)

	if rep := result.Stabilize.Report; rep != nil {
		b.WithTiming(summarizer.TimingInfo{
			Frames:      rep.Frames,
			LoadMs:      rep.LoadMs,
			FlowMs:      rep.FlowMs,
			StabilizeMs: rep.StabilizeMs,
			SaveMs:      rep.SaveMs,
			OverallMs:   rep.OverallMs,
		})
	}

	w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), o.fs)
	return w.Write(config.SummaryPath, b.Build())
}

// Pack converts image directories into stores.
func (o *Orchestrator) Pack(ctx context.Context, input pipeline.PackInput) (pipeline.PackResult, error) {
	if o.packStage == nil {
		return pipeline.PackResult{}, fmt.Errorf("pack stage not configured")
	}
	result, err := o.packStage.Execute(ctx, input)
	if err != nil {
		o.logger.Error("Failed to pack frames: %s", err)
		return result, fmt.Errorf("pack stage: %w", err)
	}
	o.logger.Info("Packed %d frames into %s", result.FrameCount, input.OriginalPath)
	return result, nil
}

// Unpack exports a store as PNG files.
func (o *Orchestrator) Unpack(ctx context.Context, input pipeline.UnpackInput) (pipeline.UnpackResult, error) {
	if o.unpackStage == nil {
		return pipeline.UnpackResult{}, fmt.Errorf("unpack stage not configured")
	}
	result, err := o.unpackStage.Execute(ctx, input)
	if err != nil {
		o.logger.Error("Failed to unpack frames: %s", err)
		return result, fmt.Errorf("unpack stage: %w", err)
	}
	o.logger.Info("Unpacked %d frames", result.FrameCount)
	return result, nil
}
