// Package hostengine provides a ports.Engine that keeps frames in host
// memory. It does not estimate motion; it either passes the processed frame
// through or blends it with the previous output warped along the supplied
// forward flow.
package hostengine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/user/memstab/pkg/ports"
)

// ErrReleased is returned when a released buffer is used.
var ErrReleased = errors.New("hostengine: buffer released")

// Mode selects what Stabilize produces.
type Mode int

const (
	// ModePassthrough returns the processed target frame unchanged.
	ModePassthrough Mode = iota
	// ModeBlend mixes the flow-warped previous output into the target frame.
	ModeBlend
)

func (m Mode) String() string {
	switch m {
	case ModePassthrough:
		return "passthrough"
	case ModeBlend:
		return "blend"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name. An empty string selects ModePassthrough.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "passthrough":
		return ModePassthrough, nil
	case "blend":
		return ModeBlend, nil
	default:
		return ModePassthrough, fmt.Errorf("unknown engine mode %q", s)
	}
}

// Buffer is the host-memory device buffer.
type Buffer struct {
	img      *image.RGBA
	rect     image.Rectangle
	owner    *Engine
	released bool
}

func (b *Buffer) Bounds() image.Rectangle { return b.rect }

// Release is idempotent.
func (b *Buffer) Release() {
	b.owner.mu.Lock()
	defer b.owner.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.img = nil
	b.owner.live--
}

// Engine implements ports.Engine on host memory.
type Engine struct {
	mode   Mode
	weight float64

	mu   sync.Mutex
	live int
}

// New creates an engine. weight is the share of the warped previous output
// in ModeBlend and is clamped to [0, 1].
func New(mode Mode, weight float64) *Engine {
	return &Engine{mode: mode, weight: math.Min(math.Max(weight, 0), 1)}
}

// Mode returns the configured mode.
func (e *Engine) Mode() Mode { return e.mode }

// Live returns the number of buffers not yet released.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live
}

func (e *Engine) ImageToGPU(img *image.RGBA) (ports.DeviceBuffer, error) {
	if img == nil {
		return nil, errors.New("hostengine: nil image")
	}
	return e.wrap(clone(img)), nil
}

func (e *Engine) GPUToImage(buf ports.DeviceBuffer) (*image.RGBA, error) {
	img, err := e.pixels(buf)
	if err != nil {
		return nil, err
	}
	return clone(img), nil
}

// RetrieveOpticalFlow returns zero motion sized to the frame at index.
func (e *Engine) RetrieveOpticalFlow(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error) {
	buf, ok := window.Processed(index)
	if !ok {
		return ports.FlowPair{}, fmt.Errorf("hostengine: frame %d not resident", index)
	}
	b := buf.Bounds()
	zero := func() ports.FlowField {
		return ports.FlowField{Width: b.Dx(), Height: b.Dy(), Vectors: make([]float32, 2*b.Dx()*b.Dy())}
	}
	return ports.FlowPair{Forward: zero(), Backward: zero()}, nil
}

func (e *Engine) Stabilize(ctx context.Context, req ports.StepRequest) (ports.DeviceBuffer, error) {
	buf, ok := req.Window.Processed(req.Target)
	if !ok {
		return nil, fmt.Errorf("hostengine: target frame %d not resident", req.Target)
	}
	target, err := e.pixels(buf)
	if err != nil {
		return nil, err
	}
	if e.mode == ModePassthrough || e.weight == 0 || req.LastStabilized == nil {
		return e.wrap(clone(target)), nil
	}

	last, err := e.pixels(req.LastStabilized)
	if err != nil {
		return nil, fmt.Errorf("last stabilized: %w", err)
	}
	if last.Bounds() != target.Bounds() {
		return nil, fmt.Errorf("hostengine: last stabilized %v does not match target %v", last.Bounds(), target.Bounds())
	}
	return e.wrap(blend(target, warp(last, req.Flow.Forward), e.weight)), nil
}

func (e *Engine) wrap(img *image.RGBA) *Buffer {
	e.mu.Lock()
	e.live++
	e.mu.Unlock()
	return &Buffer{img: img, rect: img.Rect, owner: e}
}

func (e *Engine) pixels(buf ports.DeviceBuffer) (*image.RGBA, error) {
	b, ok := buf.(*Buffer)
	if !ok || b.owner != e {
		return nil, fmt.Errorf("hostengine: foreign buffer %T", buf)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if b.released {
		return nil, ErrReleased
	}
	return b.img, nil
}

func clone(img *image.RGBA) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	for y := 0; y < out.Rect.Dy(); y++ {
		src := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src)
	}
	return out
}

// warp samples src at p - flow(p), nearest neighbour, clamped to the
// frame. An empty or mismatched field returns src unchanged.
func warp(src *image.RGBA, flow ports.FlowField) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if flow.Empty() || flow.Width != w || flow.Height != h {
		return src
	}
	out := image.NewRGBA(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := flow.At(x, y)
			sx := clamp(int(math.Round(float64(x)-float64(dx))), w)
			sy := clamp(int(math.Round(float64(y)-float64(dy))), h)
			copy(out.Pix[y*out.Stride+x*4:y*out.Stride+x*4+4], src.Pix[sy*src.Stride+sx*4:])
		}
	}
	return out
}

func blend(target, prev *image.RGBA, weight float64) *image.RGBA {
	out := image.NewRGBA(target.Rect)
	for i := range out.Pix {
		v := weight*float64(prev.Pix[i]) + (1-weight)*float64(target.Pix[i])
		out.Pix[i] = uint8(math.Round(v))
	}
	return out
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

var _ ports.Engine = (*Engine)(nil)
