package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveComparison saves the original, processed and stabilized frame side by side.
	SaveComparison(index int, original, processed, stabilized image.Image) error

	// SaveFlow saves a visualization of the flow pair used at a step.
	SaveFlow(index int, flow FlowPair) error

	// SaveReportJSON saves the performance report as JSON.
	SaveReportJSON(data []byte) error
}
