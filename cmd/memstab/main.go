// Package main provides the CLI entry point for memstab.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/memstab/pkg/adapters/filesink"
	"github.com/user/memstab/pkg/adapters/ggrenderer"
	"github.com/user/memstab/pkg/adapters/hostengine"
	"github.com/user/memstab/pkg/adapters/logger"
	"github.com/user/memstab/pkg/adapters/nullsink"
	"github.com/user/memstab/pkg/adapters/osfilesystem"
	"github.com/user/memstab/pkg/config"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/memstab"
	"github.com/user/memstab/pkg/orchestrator"
	"github.com/user/memstab/pkg/pipeline"
	"github.com/user/memstab/pkg/ports"
	"github.com/user/memstab/pkg/stages/pack"
	"github.com/user/memstab/pkg/stages/stabilize"
	"github.com/user/memstab/pkg/stages/unpack"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("memstab version %s", c.App.Version))
	}

	return &cli.App{
		Name:            "memstab",
		Usage:           l10n.T("Stabilize video frames stored in memory-mapped frame files"),
		Description:     l10n.T("memstab feeds fixed-layout RGB frame stores through a sliding-window stabilization engine."),
		Version:         version,
		HideHelpCommand: true,
		Commands: []*cli.Command{
			stabilizeCommand(),
			packCommand(),
			unpackCommand(),
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T("Logging"), Usage: l10n.T("Log level: debug, info, warn, error (default: info)")},
		&cli.StringFlag{Name: "log-format", Category: l10n.T("Logging"), Usage: l10n.T("Log format: console, tint (default: console)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Category: l10n.T("Logging"), Usage: l10n.T("Suppress all log output")},
	}
}

func geometryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Category: l10n.T("Frames"), Usage: l10n.T("Frame width in pixels")},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Category: l10n.T("Frames"), Usage: l10n.T("Frame height in pixels")},
	}
}

func stabilizeCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T("Input"), Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "original", Category: l10n.T("Input"), Usage: l10n.T("Original frame store (.dat)")},
		&cli.StringFlag{Name: "processed", Category: l10n.T("Input"), Usage: l10n.T("Processed frame store (.dat)")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T("Output"), Usage: l10n.T("Stabilized frame store (.dat), must exist with the input size")},
		&cli.StringFlag{Name: "summary", Category: l10n.T("Output"), Usage: l10n.T("Output execution summary to file (Markdown format)")},
		&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Category: l10n.T("Frames"), Usage: l10n.T("Number of frames (0 = derive from file size)")},
		&cli.StringFlag{Name: "optical-flow-dir", Category: l10n.T("Pipeline"), Usage: l10n.T("Directory of precomputed .flo files")},
		&cli.IntFlag{Name: "warmup", Aliases: []string{"k"}, Category: l10n.T("Pipeline"), Usage: l10n.T("Frames of context on each side of the cursor")},
		&cli.IntFlag{Name: "batch-size", Aliases: []string{"b"}, Category: l10n.T("Pipeline"), Usage: l10n.T("Lookahead frames per step (min: 1)")},
		&cli.IntFlag{Name: "report-after", Category: l10n.T("Pipeline"), Usage: l10n.T("Timed steps before the performance report")},
		&cli.StringFlag{Name: "engine", Category: l10n.T("Engine"), Usage: l10n.T("Host engine mode (passthrough, blend)")},
		&cli.Float64Flag{Name: "blend-weight", Category: l10n.T("Engine"), Usage: l10n.T("Share of the previous output in blend mode (0-1)")},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T("Debug"), Usage: l10n.T("Enable debug output")},
		&cli.StringFlag{Name: "debug-dir", Category: l10n.T("Debug"), Usage: l10n.T("Directory for debug output")},
	}
	flags = append(flags, geometryFlags()...)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:   "stabilize",
		Usage:  l10n.T("Stabilize a processed frame store into the output store"),
		Flags:  flags,
		Action: runStabilize,
	}
}

func packCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T("Input"), Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "original-dir", Required: true, Category: l10n.T("Input"), Usage: l10n.T("Directory of original frame images")},
		&cli.StringFlag{Name: "processed-dir", Required: true, Category: l10n.T("Input"), Usage: l10n.T("Directory of processed frame images")},
		&cli.StringFlag{Name: "original", Required: true, Category: l10n.T("Output"), Usage: l10n.T("Original frame store to create")},
		&cli.StringFlag{Name: "processed", Required: true, Category: l10n.T("Output"), Usage: l10n.T("Processed frame store to create")},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T("Output"), Usage: l10n.T("Empty stabilized frame store to create")},
		&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Category: l10n.T("Pipeline"), Usage: l10n.T("Parallel workers (0 = all CPUs)")},
	}
	flags = append(flags, geometryFlags()...)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:   "pack",
		Usage:  l10n.T("Pack image directories into frame stores"),
		Flags:  flags,
		Action: runPack,
	}
}

func unpackCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T("Input"), Usage: l10n.T("YAML configuration file")},
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Category: l10n.T("Input"), Usage: l10n.T("Frame store to export")},
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Required: true, Category: l10n.T("Output"), Usage: l10n.T("Directory for PNG frames")},
		&cli.IntFlag{Name: "frames", Aliases: []string{"n"}, Category: l10n.T("Frames"), Usage: l10n.T("Number of frames (0 = derive from file size)")},
		&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Category: l10n.T("Pipeline"), Usage: l10n.T("Parallel workers (0 = all CPUs)")},
	}
	flags = append(flags, geometryFlags()...)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:   "unpack",
		Usage:  l10n.T("Export a frame store as PNG images"),
		Flags:  flags,
		Action: runUnpack,
	}
}

// newLogger builds the logger from the flags, falling back to the
// configuration file values.
func newLogger(c *cli.Context, file config.Config) (ports.Logger, error) {
	if c.Bool("quiet") {
		return logger.NewNoop(), nil
	}
	level, err := ports.ParseLogLevel(override(c, "log-level", file.LogLevel))
	if err != nil {
		return nil, err
	}
	format := override(c, "log-format", file.LogFormat)
	switch format {
	case "", "console":
		return logger.NewConsole(level), nil
	case "tint":
		return logger.NewTint(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// loadConfig reads the --config file, or returns the defaults.
func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Defaults(), nil
	}
	file, err := config.LoadFromFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return file, nil
}

// workerCount returns the --workers flag, falling back to the file value.
func workerCount(c *cli.Context, file config.Config) int {
	b := memstab.NewConfigBuilder().FromFile(file)
	if c.IsSet("workers") {
		b.WithWorkers(c.Int("workers"))
	}
	return b.Build().Workers
}

func runStabilize(c *cli.Context) error {
	file, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := newLogger(c, file)
	if err != nil {
		return err
	}
	cfg := buildConfig(c, file)

	paths := framestore.Paths{
		Original:   override(c, "original", file.Original),
		Processed:  override(c, "processed", file.Processed),
		Stabilized: override(c, "output", file.Stabilized),
	}
	if paths.Original == "" || paths.Processed == "" || paths.Stabilized == "" {
		return errors.New(l10n.T("original, processed and output stores are required"))
	}

	mode, err := hostengine.ParseMode(cfg.EngineMode)
	if err != nil {
		return err
	}
	engine := hostengine.New(mode, cfg.BlendWeight)

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	var sink ports.DebugSink = nullsink.New()
	if c.Bool("debug") || file.Debug {
		dir := override(c, "debug-dir", file.DebugDir)
		if err := fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(dir, fs, renderer)
	}

	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	orch := orchestrator.New(stabilize.NewStage(engine, sink, log), nil, nil, engine, fs, log)
	_, err = orch.Run(ctx, cfg.ToOrchestratorConfig(paths, override(c, "summary", file.Summary)))
	return err
}

// buildConfig applies CLI overrides on top of the configuration file.
func buildConfig(c *cli.Context, file config.Config) memstab.Config {
	b := memstab.NewConfigBuilder().FromFile(file)

	if c.IsSet("width") || c.IsSet("height") {
		w, h := file.Width, file.Height
		if c.IsSet("width") {
			w = c.Int("width")
		}
		if c.IsSet("height") {
			h = c.Int("height")
		}
		b.WithSize(w, h)
	}
	if c.IsSet("frames") {
		b.WithFrameCount(c.Int("frames"))
	}
	if c.IsSet("optical-flow-dir") {
		b.WithOpticalFlowDir(c.String("optical-flow-dir"))
	}
	if c.IsSet("warmup") {
		b.WithWarmup(c.Int("warmup"))
	}
	if c.IsSet("batch-size") {
		b.WithBatchSize(c.Int("batch-size"))
	}
	if c.IsSet("report-after") {
		b.WithReportAfter(c.Int("report-after"))
	}
	if c.IsSet("engine") || c.IsSet("blend-weight") {
		mode, weight := file.Engine.Mode, file.Engine.BlendWeight
		if c.IsSet("engine") {
			mode = c.String("engine")
		}
		if c.IsSet("blend-weight") {
			weight = c.Float64("blend-weight")
		}
		b.WithEngine(mode, weight)
	}

	return b.Build()
}

func override(c *cli.Context, name, fallback string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return fallback
}

func newOrchestrator(log ports.Logger, workers int) *orchestrator.Orchestrator {
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	return orchestrator.New(
		nil,
		pack.NewStage(fs, renderer, log, workers),
		unpack.NewStage(fs, renderer, log, workers),
		nil,
		fs,
		log,
	)
}

func runPack(c *cli.Context) error {
	file, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := newLogger(c, file)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	_, err = newOrchestrator(log, workerCount(c, file)).Pack(ctx, pipeline.PackInput{
		OriginalDir:    c.String("original-dir"),
		ProcessedDir:   c.String("processed-dir"),
		OriginalPath:   c.String("original"),
		ProcessedPath:  c.String("processed"),
		StabilizedPath: c.String("output"),
		Width:          c.Int("width"),
		Height:         c.Int("height"),
	})
	return err
}

func runUnpack(c *cli.Context) error {
	file, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := newLogger(c, file)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	_, err = newOrchestrator(log, workerCount(c, file)).Unpack(ctx, pipeline.UnpackInput{
		StorePath:  c.String("input"),
		Width:      c.Int("width"),
		Height:     c.Int("height"),
		FrameCount: c.Int("frames"),
		OutputDir:  c.String("output-dir"),
	})
	return err
}
