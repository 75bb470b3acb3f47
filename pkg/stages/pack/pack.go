// Package pack converts directories of images into frame stores.
package pack

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/user/memstab/pkg/framecodec"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/pipeline"
	"github.com/user/memstab/pkg/ports"
)

// ErrFrameMismatch is returned when the two directories hold different
// numbers of images.
var ErrFrameMismatch = errors.New("pack: original and processed frame counts differ")

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Stage packs original and processed image sequences into .dat stores.
type Stage struct {
	fs         ports.FileSystem
	renderer   ports.Renderer
	logger     ports.Logger
	numWorkers int
}

// NewStage creates a new pack stage. numWorkers <= 0 uses every CPU.
func NewStage(fs ports.FileSystem, renderer ports.Renderer, logger ports.Logger, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Stage{
		fs:         fs,
		renderer:   renderer,
		logger:     logger.WithComponent("pack"),
		numWorkers: numWorkers,
	}
}

// ListImages returns the image files in dir, sorted by name.
func ListImages(fs ports.FileSystem, dir string) ([]string, error) {
	files, err := fs.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var images []string
	for _, f := range files {
		if imageExts[strings.ToLower(filepath.Ext(f))] {
			images = append(images, f)
		}
	}
	return images, nil
}

func (s *Stage) Execute(ctx context.Context, input pipeline.PackInput) (result pipeline.PackResult, err error) {
	origFiles, err := ListImages(s.fs, input.OriginalDir)
	if err != nil {
		return result, err
	}
	procFiles, err := ListImages(s.fs, input.ProcessedDir)
	if err != nil {
		return result, err
	}
	if len(origFiles) == 0 {
		return result, fmt.Errorf("pack: no images in %s", input.OriginalDir)
	}
	if len(origFiles) != len(procFiles) {
		return result, fmt.Errorf("%w: %d in %s, %d in %s", ErrFrameMismatch,
			len(origFiles), input.OriginalDir, len(procFiles), input.ProcessedDir)
	}

	geometry := framestore.Geometry{Width: input.Width, Height: input.Height}
	if geometry.Width <= 0 || geometry.Height <= 0 {
		first, err := s.decode(origFiles[0])
		if err != nil {
			return result, err
		}
		geometry = framestore.Geometry{Width: first.Bounds().Dx(), Height: first.Bounds().Dy()}
	}
	if err := geometry.Validate(); err != nil {
		return result, err
	}

	frameCount := len(origFiles)
	orig, err := s.create(input.OriginalPath, geometry, frameCount)
	if err != nil {
		return result, err
	}
	defer closeStore(orig, &err)
	proc, err := s.create(input.ProcessedPath, geometry, frameCount)
	if err != nil {
		return result, err
	}
	defer closeStore(proc, &err)
	if input.StabilizedPath != "" {
		stab, err := s.create(input.StabilizedPath, geometry, frameCount)
		if err != nil {
			return result, err
		}
		if err := stab.Close(); err != nil {
			return result, err
		}
	}

	s.logger.Info("Packing %d frames of %s with %d workers", frameCount, geometry, s.numWorkers)

	var resized atomic.Int64
	err = pipeline.ForEach(ctx, frameCount, s.numWorkers, func(i int) error {
		for _, job := range []struct {
			path  string
			store *framestore.Store
		}{{origFiles[i], orig}, {procFiles[i], proc}} {
			img, err := s.decode(job.path)
			if err != nil {
				return err
			}
			if b := img.Bounds(); b.Dx() != geometry.Width || b.Dy() != geometry.Height {
				img = s.renderer.ResizeImage(img, geometry.Width, geometry.Height)
				resized.Add(1)
			}
			if err := framecodec.Encode(img, job.store, i); err != nil {
				return fmt.Errorf("frame %d (%s): %w", i, job.path, err)
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	result = pipeline.PackResult{Geometry: geometry, FrameCount: frameCount, Resized: int(resized.Load())}
	if result.Resized > 0 {
		s.logger.Warn("Resized %d frames to %s", result.Resized, geometry)
	}
	s.logger.Debug("Packed %d frames into %s", frameCount, input.OriginalPath)
	return result, nil
}

func (s *Stage) decode(path string) (image.Image, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	img, err := s.renderer.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func (s *Stage) create(path string, geometry framestore.Geometry, frameCount int) (*framestore.Store, error) {
	if path == "" {
		return nil, errors.New("pack: missing store path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir); err != nil {
			return nil, err
		}
	}
	return framestore.CreateStore(path, geometry, frameCount)
}

// closeStore closes store and records the first error in errp.
func closeStore(store *framestore.Store, errp *error) {
	if err := store.Close(); err != nil && *errp == nil {
		*errp = err
	}
}
