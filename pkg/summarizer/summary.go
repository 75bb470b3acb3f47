// Package summarizer provides summary generation for stabilization runs.
package summarizer

import "time"

// Summary contains all data collected during one run.
type Summary struct {
	GeneratedAt time.Time

	Input    InputInfo
	Settings Settings
	Frames   FrameInfo

	// Timing is nil when the run was too short to produce a report.
	Timing *TimingInfo

	Elapsed time.Duration
}

// InputInfo describes the stores of the run.
type InputInfo struct {
	OriginalPath   string
	ProcessedPath  string
	StabilizedPath string
	Width          int
	Height         int
	FrameCount     int
}

// Settings contains the pipeline configuration.
type Settings struct {
	Warmup      int
	BatchSize   int
	ReportAfter int
	FlowSource  string // "file" or "computed"
	FlowDir     string
	Engine      string
}

// FrameInfo counts the frames written to the output store.
type FrameInfo struct {
	Written     int
	Passthrough int
	Stabilized  int
}

// TimingInfo holds per-frame phase averages in milliseconds.
type TimingInfo struct {
	Frames      int
	LoadMs      float64
	FlowMs      float64
	StabilizeMs float64
	SaveMs      float64
	OverallMs   float64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

func (b *Builder) WithInput(input InputInfo) *Builder {
	b.summary.Input = input
	return b
}

func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithFrames sets the output frame counts.
func (b *Builder) WithFrames(written, passthrough, stabilized int) *Builder {
	b.summary.Frames = FrameInfo{
		Written:     written,
		Passthrough: passthrough,
		Stabilized:  stabilized,
	}
	return b
}

// WithTiming sets the phase averages.
func (b *Builder) WithTiming(timing TimingInfo) *Builder {
	b.summary.Timing = &timing
	return b
}

func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
