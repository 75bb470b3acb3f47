package pipeline

import (
	"time"

	"github.com/user/memstab/pkg/flowsource"
	"github.com/user/memstab/pkg/framestore"
)

// =============================================================================
// Stabilize Stage Types
// =============================================================================

// StabilizeInput contains parameters for a sliding-window stabilization run.
type StabilizeInput struct {
	Stores *framestore.StoreSet
	Flow   flowsource.Source

	Warmup      int // Context window radius k (frames 0..k pass through)
	BatchSize   int // Extra lookahead frames kept resident
	ReportAfter int // Steps averaged in the performance report (default: 100)
}

// DefaultStabilizeInput returns StabilizeInput with default values.
func DefaultStabilizeInput() StabilizeInput {
	return StabilizeInput{
		Warmup:      3,
		BatchSize:   1,
		ReportAfter: 100,
	}
}

// MinFrames is the number of frames preload requires.
func (in StabilizeInput) MinFrames() int {
	return 2*in.Warmup + in.BatchSize
}

// ReportOffset is the number of leading steps excluded from timing.
func (in StabilizeInput) ReportOffset() int {
	return in.Warmup + 5
}

// StabilizeResult contains the outcome of a stabilization run.
type StabilizeResult struct {
	FramesWritten     int
	PassthroughFrames int
	StabilizedFrames  int

	// Totals accumulates phase times for the steps after ReportOffset.
	Totals PhaseTimes
	// Report is set once ReportAfter timed steps have run.
	Report *PhaseReport
}

// PhaseTimes holds time spent in each phase of a pipeline step.
type PhaseTimes struct {
	Load      time.Duration // wait + upload of the next frame
	Flow      time.Duration
	Stabilize time.Duration
	Save      time.Duration
}

// Overall returns the sum of all phases.
func (p PhaseTimes) Overall() time.Duration {
	return p.Load + p.Flow + p.Stabilize + p.Save
}

// Add accumulates other into p.
func (p *PhaseTimes) Add(other PhaseTimes) {
	p.Load += other.Load
	p.Flow += other.Flow
	p.Stabilize += other.Stabilize
	p.Save += other.Save
}

// PhaseReport is the per-frame average of each phase.
type PhaseReport struct {
	Frames      int     `json:"frames"`
	LoadMs      float64 `json:"load_ms"`
	FlowMs      float64 `json:"optflow_ms"`
	StabilizeMs float64 `json:"stabilize_ms"`
	SaveMs      float64 `json:"save_ms"`
	OverallMs   float64 `json:"overall_ms"`
}

// NewPhaseReport averages totals over frames steps.
func NewPhaseReport(totals PhaseTimes, frames int) PhaseReport {
	avg := func(d time.Duration) float64 {
		if frames <= 0 {
			return 0
		}
		return float64(d) / float64(time.Millisecond) / float64(frames)
	}
	return PhaseReport{
		Frames:      frames,
		LoadMs:      avg(totals.Load),
		FlowMs:      avg(totals.Flow),
		StabilizeMs: avg(totals.Stabilize),
		SaveMs:      avg(totals.Save),
		OverallMs:   avg(totals.Overall()),
	}
}

// =============================================================================
// Pack Stage Types
// =============================================================================

// PackInput contains parameters for converting image directories to stores.
type PackInput struct {
	OriginalDir  string
	ProcessedDir string

	OriginalPath   string
	ProcessedPath  string
	StabilizedPath string // Pre-created zero-filled when set

	Width  int // 0 = take from the first original image
	Height int // 0 = take from the first original image
}

// PackResult describes the written stores.
type PackResult struct {
	Geometry   framestore.Geometry
	FrameCount int
	Resized    int // Images scaled to fit the geometry
}

// =============================================================================
// Unpack Stage Types
// =============================================================================

// UnpackInput contains parameters for exporting a store as PNG files.
type UnpackInput struct {
	StorePath  string
	Width      int
	Height     int
	FrameCount int // 0 = derive from file size
	OutputDir  string
}

// UnpackResult describes the exported frames.
type UnpackResult struct {
	FrameCount int
	Files      []string
}
