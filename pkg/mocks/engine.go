package mocks

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/user/memstab/pkg/ports"
)

// Buffer is the DeviceBuffer handed out by Engine.
type Buffer struct {
	Img      *image.RGBA
	released bool
	engine   *Engine
}

func (b *Buffer) Bounds() image.Rectangle { return b.Img.Bounds() }

func (b *Buffer) Release() {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.engine.live--
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()
	return b.released
}

// StepCall records a call to Stabilize.
type StepCall struct {
	Index  int
	Target int
	Flow   ports.FlowPair
	// Resident is the [First, Last] window range seen by the step.
	First, Last int
}

// Engine is a host-memory mock of ports.Engine.
//
// By default Stabilize returns a frame filled with StabilizedColor(target).
type Engine struct {
	mu   sync.Mutex
	live int

	Uploads    int
	FlowCalls  []int
	StepCalls  []StepCall
	Downloaded int

	ImageToGPUFunc func(img *image.RGBA) (ports.DeviceBuffer, error)
	FlowFunc       func(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error)
	StabilizeFunc  func(ctx context.Context, req ports.StepRequest) (ports.DeviceBuffer, error)
}

// StabilizedColor is the fill color of the default Stabilize output for target.
func StabilizedColor(target int) color.RGBA {
	return color.RGBA{R: 0xC8, G: uint8(target), B: 0x5A, A: 0xFF}
}

// Live returns the number of buffers handed out and not yet released.
func (m *Engine) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// NewBuffer wraps a copy of img in a tracked buffer.
func (m *Engine) NewBuffer(img *image.RGBA) *Buffer {
	cp := image.NewRGBA(img.Bounds())
	copy(cp.Pix, img.Pix)
	m.mu.Lock()
	m.live++
	m.mu.Unlock()
	return &Buffer{Img: cp, engine: m}
}

func (m *Engine) ImageToGPU(img *image.RGBA) (ports.DeviceBuffer, error) {
	m.mu.Lock()
	m.Uploads++
	m.mu.Unlock()
	if m.ImageToGPUFunc != nil {
		return m.ImageToGPUFunc(img)
	}
	return m.NewBuffer(img), nil
}

func (m *Engine) GPUToImage(buf ports.DeviceBuffer) (*image.RGBA, error) {
	m.mu.Lock()
	m.Downloaded++
	m.mu.Unlock()
	src := buf.(*Buffer).Img
	cp := image.NewRGBA(src.Bounds())
	copy(cp.Pix, src.Pix)
	return cp, nil
}

func (m *Engine) RetrieveOpticalFlow(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error) {
	m.mu.Lock()
	m.FlowCalls = append(m.FlowCalls, index)
	m.mu.Unlock()
	if m.FlowFunc != nil {
		return m.FlowFunc(ctx, index, window)
	}
	return ports.FlowPair{}, nil
}

func (m *Engine) Stabilize(ctx context.Context, req ports.StepRequest) (ports.DeviceBuffer, error) {
	m.mu.Lock()
	m.StepCalls = append(m.StepCalls, StepCall{
		Index:  req.Index,
		Target: req.Target,
		Flow:   req.Flow,
		First:  req.Window.First(),
		Last:   req.Window.Last(),
	})
	m.mu.Unlock()
	if m.StabilizeFunc != nil {
		return m.StabilizeFunc(ctx, req)
	}

	img := image.NewRGBA(req.LastStabilized.Bounds())
	c := StabilizedColor(req.Target)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return m.NewBuffer(img), nil
}

var _ ports.Engine = (*Engine)(nil)
