// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/memstab/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new null sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers can skip building debug images.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveComparison(index int, original, processed, stabilized image.Image) error {
	return nil
}

func (s *Sink) SaveFlow(index int, flow ports.FlowPair) error {
	return nil
}

func (s *Sink) SaveReportJSON(data []byte) error {
	return nil
}

var _ ports.DebugSink = (*Sink)(nil)
