// Package unpack exports a frame store as numbered PNG files.
package unpack

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/user/memstab/pkg/flowfile"
	"github.com/user/memstab/pkg/framecodec"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/pipeline"
	"github.com/user/memstab/pkg/ports"
)

// Stage writes every frame of a store to OutputDir/NNNNNN.png.
type Stage struct {
	fs         ports.FileSystem
	renderer   ports.Renderer
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new unpack stage. numWorkers <= 0 uses every CPU.
func NewStage(fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		fs:         fs,
		renderer:   renderer,
		logger:     logger.WithComponent("unpack"),
		numWorkers: numWorkers,
	}
}

func (s *Stage) Execute(ctx context.Context, input pipeline.UnpackInput) (pipeline.UnpackResult, error) {
	geometry := framestore.Geometry{Width: input.Width, Height: input.Height}
	frameCount := input.FrameCount
	if frameCount <= 0 {
		n, err := framestore.FrameCountOf(input.StorePath, geometry)
		if err != nil {
			return pipeline.UnpackResult{}, err
		}
		frameCount = n
	}

	store, err := framestore.OpenStore(input.StorePath, framestore.ReadOnly, geometry, frameCount)
	if err != nil {
		return pipeline.UnpackResult{}, err
	}
	defer store.Close()

	if err := s.fs.MkdirAll(input.OutputDir); err != nil {
		return pipeline.UnpackResult{}, err
	}

	s.logger.Info("Unpacking %d frames to %s", frameCount, input.OutputDir)

	files := make([]string, frameCount)
	err = pipeline.ForEach(ctx, frameCount, s.numWorkers, func(i int) error {
		frame, err := framecodec.Decode(store, i)
		if err != nil {
			return err
		}
		data, err := s.renderer.EncodeImage(frame.Image, ports.FormatPNG, 0)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		path := filepath.Join(input.OutputDir, flowfile.FormatIndex(i)+".png")
		if err := s.fs.WriteFile(path, data); err != nil {
			return fmt.Errorf("write frame %d: %w", i, err)
		}
		files[i] = path
		return nil
	})
	if err != nil {
		return pipeline.UnpackResult{}, err
	}

	s.logger.Debug("Unpacked %d frames", frameCount)
	return pipeline.UnpackResult{FrameCount: frameCount, Files: files}, nil
}
