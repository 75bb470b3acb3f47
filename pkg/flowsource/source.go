// Package flowsource selects where per-step optical flow comes from:
// precomputed .flo files or the engine's own estimator.
package flowsource

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/user/memstab/pkg/flowfile"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/ports"
)

// Kind identifies the flow source variant.
type Kind int

const (
	FileBacked Kind = iota
	Computed
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case FileBacked:
		return "file"
	case Computed:
		return "computed"
	default:
		return "unknown"
	}
}

// Source produces the flow pair for the transition at a pipeline index.
type Source interface {
	Retrieve(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error)
	Kind() Kind
}

// New returns a file-backed source when dir is set, otherwise a source that
// delegates to engine. The choice is fixed for the life of the source.
func New(dir string, fs ports.FileSystem, engine ports.Engine, geometry framestore.Geometry) Source {
	if dir != "" {
		return NewFiles(dir, fs, geometry)
	}
	return NewComputed(engine)
}

// Files reads flow from a directory of .flo files.
type Files struct {
	dir      string
	fs       ports.FileSystem
	geometry framestore.Geometry
}

// NewFiles creates a file-backed source rooted at dir.
func NewFiles(dir string, fs ports.FileSystem, geometry framestore.Geometry) *Files {
	return &Files{dir: dir, fs: fs, geometry: geometry}
}

// Kind returns FileBacked.
func (s *Files) Kind() Kind { return FileBacked }

// Retrieve loads the forward flow from the file keyed index+1 and the
// backward flow from the file keyed index, both placed into frame geometry.
func (s *Files) Retrieve(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error) {
	fwd, err := flowfile.ReadFile(s.fs, filepath.Join(s.dir, flowfile.ForwardName(index)))
	if err != nil {
		return ports.FlowPair{}, fmt.Errorf("forward flow: %w", err)
	}
	bwd, err := flowfile.ReadFile(s.fs, filepath.Join(s.dir, flowfile.BackwardName(index)))
	if err != nil {
		return ports.FlowPair{}, fmt.Errorf("backward flow: %w", err)
	}
	return ports.FlowPair{
		Forward:  flowfile.PlaceInto(fwd, s.geometry.Width, s.geometry.Height),
		Backward: flowfile.PlaceInto(bwd, s.geometry.Width, s.geometry.Height),
	}, nil
}

// EngineFlow delegates flow to the engine's estimator.
type EngineFlow struct {
	engine ports.Engine
}

// NewComputed creates a source backed by engine.RetrieveOpticalFlow.
func NewComputed(engine ports.Engine) *EngineFlow {
	return &EngineFlow{engine: engine}
}

// Kind returns Computed.
func (s *EngineFlow) Kind() Kind { return Computed }

// Retrieve asks the engine for the flow at index.
func (s *EngineFlow) Retrieve(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error) {
	flow, err := s.engine.RetrieveOpticalFlow(ctx, index, window)
	if err != nil {
		return ports.FlowPair{}, fmt.Errorf("computed flow: %w", err)
	}
	return flow, nil
}
