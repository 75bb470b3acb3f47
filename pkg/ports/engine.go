package ports

import (
	"context"
	"image"
)

// DeviceBuffer is a frame uploaded to the stabilization engine.
// For GPU engines it wraps device memory. The holder owns the buffer
// until it calls Release; Release must be safe to call more than once.
type DeviceBuffer interface {
	Bounds() image.Rectangle
	Release()
}

// FlowField is a dense per-pixel displacement map.
// Vectors holds interleaved (dx, dy) pairs in row-major order.
type FlowField struct {
	Width   int
	Height  int
	Vectors []float32
}

// At returns the displacement at (x, y).
func (f FlowField) At(x, y int) (dx, dy float32) {
	i := 2 * (y*f.Width + x)
	return f.Vectors[i], f.Vectors[i+1]
}

// Empty reports whether the field carries no vectors.
func (f FlowField) Empty() bool {
	return len(f.Vectors) == 0
}

// FlowPair holds both directed flow fields for one pipeline step.
type FlowPair struct {
	// Forward is the flow from the previous frame to the current one.
	Forward FlowField
	// Backward is the flow from the current frame to the previous one.
	Backward FlowField
}

// FrameWindow is a read-only view of the frames resident in the sliding window.
type FrameWindow interface {
	// Original returns the uploaded original frame at index, if resident.
	Original(index int) (DeviceBuffer, bool)
	// Processed returns the uploaded processed frame at index, if resident.
	Processed(index int) (DeviceBuffer, bool)
	// First is the lowest resident index, or -1 when empty.
	First() int
	// Last is the highest resident index, or -1 when empty.
	Last() int
}

// StepRequest carries everything the engine needs for one stabilization step.
type StepRequest struct {
	// Index is the pipeline cursor.
	Index int
	// Target is the frame index the produced output is written to.
	Target int

	Window         FrameWindow
	Flow           FlowPair
	LastStabilized DeviceBuffer
}

// Engine abstracts the stabilization engine the pipeline feeds.
type Engine interface {
	// ImageToGPU uploads a frame in the 4-channel working format.
	ImageToGPU(img *image.RGBA) (DeviceBuffer, error)

	// GPUToImage downloads a buffer back to host memory.
	GPUToImage(buf DeviceBuffer) (*image.RGBA, error)

	// RetrieveOpticalFlow runs the engine's own flow estimation for the
	// transition at index. Used when no flow directory is configured.
	RetrieveOpticalFlow(ctx context.Context, index int, window FrameWindow) (FlowPair, error)

	// Stabilize performs one stabilization iteration and returns a newly
	// owned buffer for req.Target.
	Stabilize(ctx context.Context, req StepRequest) (DeviceBuffer, error)
}
