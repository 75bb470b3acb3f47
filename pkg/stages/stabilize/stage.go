// Package stabilize implements the sliding-window stabilization stage.
//
// The stage keeps frames [i-k, i+k+batch) of the original and processed
// stores uploaded to the engine, passes frames 0..k through unchanged and
// then asks the engine for one stabilized frame per step, writing each
// result back into the mapped output store.
package stabilize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/user/memstab/pkg/framecodec"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/pipeline"
	"github.com/user/memstab/pkg/ports"
)

// ErrPreload is returned when the stores hold fewer frames than the
// initial window needs.
var ErrPreload = errors.New("stabilize: failed to preload initial frames")

// Stage runs the stabilization loop over a store set.
type Stage struct {
	engine ports.Engine
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new stabilize stage.
func NewStage(engine ports.Engine, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		engine: engine,
		sink:   sink,
		logger: logger.WithComponent("stabilize"),
	}
}

// Execute preloads the window, writes the warm-up frames and steps until
// the input is exhausted.
func (s *Stage) Execute(ctx context.Context, input pipeline.StabilizeInput) (pipeline.StabilizeResult, error) {
	if err := validate(&input); err != nil {
		return pipeline.StabilizeResult{}, err
	}

	r := &run{
		Stage:  s,
		in:     input,
		stores: input.Stores,
		win:    &window{},
	}
	defer r.close()

	if err := r.preload(); err != nil {
		return r.result, err
	}

	s.logger.Debug("Starting stabilization at frame %d", input.Warmup)
	offset := input.ReportOffset()
	for i := input.Warmup; ; i++ {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		ok, err := r.step(ctx, i)
		if err != nil {
			return r.result, fmt.Errorf("step %d: %w", i, err)
		}
		if !ok {
			break
		}
		if i == offset+input.ReportAfter {
			r.report(i - offset)
		}
	}

	s.logger.Debug("Stabilized %d frames", r.result.StabilizedFrames)
	return r.result, nil
}

func validate(in *pipeline.StabilizeInput) error {
	if in.Stores == nil {
		return errors.New("stabilize: no stores")
	}
	if err := in.Stores.Validate(); err != nil {
		return err
	}
	if in.Flow == nil {
		return errors.New("stabilize: no flow source")
	}
	if in.Warmup < 0 {
		return fmt.Errorf("stabilize: negative warmup %d", in.Warmup)
	}
	if in.BatchSize < 1 {
		return fmt.Errorf("stabilize: batch size %d must be at least 1", in.BatchSize)
	}
	if in.ReportAfter <= 0 {
		in.ReportAfter = pipeline.DefaultStabilizeInput().ReportAfter
	}
	return nil
}

// run is the state of one Execute call.
type run struct {
	*Stage
	in     pipeline.StabilizeInput
	stores *framestore.StoreSet
	win    *window
	last   ports.DeviceBuffer
	result pipeline.StabilizeResult
}

// preload fills the window with frames 0..2k+batch-1 and writes frames
// 0..k through unchanged.
func (r *run) preload() error {
	need := r.in.MinFrames()
	if n := r.stores.FrameCount(); n < need {
		return fmt.Errorf("%w: need %d frames, store has %d", ErrPreload, need, n)
	}

	for j := 0; j < need; j++ {
		r.logger.Debug("Preloading frame %d", j)
		if err := r.load(j); err != nil {
			if errors.Is(err, framestore.ErrIndexOutOfRange) {
				return fmt.Errorf("%w: %w", ErrPreload, err)
			}
			return err
		}
		if j <= r.in.Warmup {
			if err := r.passthrough(j); err != nil {
				return err
			}
		}
	}

	// Seed temporal state with an independent copy of the last processed frame.
	proc, _ := r.win.Processed(r.win.Last())
	img, err := r.engine.GPUToImage(proc)
	if err != nil {
		return fmt.Errorf("seed last stabilized frame: %w", err)
	}
	if r.last, err = r.engine.ImageToGPU(img); err != nil {
		return fmt.Errorf("seed last stabilized frame: %w", err)
	}
	return nil
}

// load decodes frame index from both input stores and appends it to the window.
func (r *run) load(index int) error {
	orig, err := framecodec.Decode(r.stores.Original, index)
	if err != nil {
		return fmt.Errorf("original: %w", err)
	}
	proc, err := framecodec.Decode(r.stores.Processed, index)
	if err != nil {
		return fmt.Errorf("processed: %w", err)
	}

	ob, err := r.engine.ImageToGPU(orig.Image)
	if err != nil {
		return fmt.Errorf("upload original frame %d: %w", index, err)
	}
	pb, err := r.engine.ImageToGPU(proc.Image)
	if err != nil {
		ob.Release()
		return fmt.Errorf("upload processed frame %d: %w", index, err)
	}
	if err := r.win.push(slot{index: index, original: ob, processed: pb}); err != nil {
		ob.Release()
		pb.Release()
		return err
	}
	return nil
}

// passthrough writes the resident processed frame index to the output unchanged.
func (r *run) passthrough(index int) error {
	buf, ok := r.win.Processed(index)
	if !ok {
		return fmt.Errorf("passthrough: frame %d not resident", index)
	}
	img, err := r.engine.GPUToImage(buf)
	if err != nil {
		return fmt.Errorf("passthrough frame %d: %w", index, err)
	}
	if err := framecodec.Encode(img, r.stores.Stabilized, index); err != nil {
		return fmt.Errorf("passthrough: %w", err)
	}
	r.result.PassthroughFrames++
	r.result.FramesWritten++
	return nil
}

// step produces output frame i+1. It returns false once no frame is left.
func (r *run) step(ctx context.Context, i int) (bool, error) {
	target := i + 1
	frameCount := r.stores.FrameCount()
	if target >= frameCount {
		return false, nil
	}

	var t pipeline.PhaseTimes

	start := time.Now()
	r.win.evictBefore(i - r.in.Warmup)
	next := i + r.in.Warmup + r.in.BatchSize - 1
	if next < target {
		next = target
	}
	for n := r.win.Last() + 1; n <= next && n < frameCount; n++ {
		if err := r.load(n); err != nil {
			return false, err
		}
	}
	t.Load = time.Since(start)

	start = time.Now()
	flow, err := r.in.Flow.Retrieve(ctx, i, r.win)
	if err != nil {
		return false, err
	}
	t.Flow = time.Since(start)

	start = time.Now()
	out, err := r.engine.Stabilize(ctx, ports.StepRequest{
		Index:          i,
		Target:         target,
		Window:         r.win,
		Flow:           flow,
		LastStabilized: r.last,
	})
	if err != nil {
		return false, fmt.Errorf("stabilize frame %d: %w", target, err)
	}
	t.Stabilize = time.Since(start)

	start = time.Now()
	img, err := r.save(out, target)
	if err != nil {
		return false, err
	}
	t.Save = time.Since(start)

	r.result.FramesWritten++
	r.result.StabilizedFrames++
	if i > r.in.ReportOffset() {
		r.result.Totals.Add(t)
	}

	if r.sink.Enabled() {
		r.saveDebug(i, target, flow, img)
	}
	return true, nil
}

// save downloads out, writes it at target and makes it the new temporal seed.
func (r *run) save(out ports.DeviceBuffer, target int) (*image.RGBA, error) {
	img, err := r.engine.GPUToImage(out)
	if err == nil {
		err = framecodec.Encode(img, r.stores.Stabilized, target)
	}
	if err != nil {
		if out != r.last {
			out.Release()
		}
		return nil, fmt.Errorf("save frame %d: %w", target, err)
	}
	if out != r.last {
		r.last.Release()
		r.last = out
	}
	return img, nil
}

func (r *run) saveDebug(i, target int, flow ports.FlowPair, stabilized *image.RGBA) {
	orig, _ := r.win.Original(target)
	proc, _ := r.win.Processed(target)
	origImg, err := r.engine.GPUToImage(orig)
	if err != nil {
		r.logger.Warn("Debug output skipped for frame %d: %s", target, err)
		return
	}
	procImg, err := r.engine.GPUToImage(proc)
	if err != nil {
		r.logger.Warn("Debug output skipped for frame %d: %s", target, err)
		return
	}
	if err := r.sink.SaveComparison(target, origImg, procImg, stabilized); err != nil {
		r.logger.Warn("Failed to save debug comparison for frame %d: %s", target, err)
	}
	if !flow.Forward.Empty() || !flow.Backward.Empty() {
		if err := r.sink.SaveFlow(i, flow); err != nil {
			r.logger.Warn("Failed to save debug flow for step %d: %s", i, err)
		}
	}
}

// report emits the per-frame phase averages over count timed steps.
func (r *run) report(count int) {
	rep := pipeline.NewPhaseReport(r.result.Totals, count)
	r.result.Report = &rep

	r.logger.Info("Per-frame time in ms averaged over %d frames: load %.2f, optflow %.2f, stabilize %.2f, save %.2f, overall %.2f",
		rep.Frames, rep.LoadMs, rep.FlowMs, rep.StabilizeMs, rep.SaveMs, rep.OverallMs)

	if r.sink.Enabled() {
		if data, err := json.MarshalIndent(rep, "", "  "); err == nil {
			r.sink.SaveReportJSON(data)
		}
	}
}

// close releases every device buffer the run still owns.
func (r *run) close() {
	r.win.release()
	if r.last != nil {
		r.last.Release()
		r.last = nil
	}
}
