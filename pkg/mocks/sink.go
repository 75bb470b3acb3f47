package mocks

import (
	"image"
	"sync"

	"github.com/user/memstab/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Comparisons map[int][3]image.Image
	Flows       map[int]ports.FlowPair
	ReportJSON  []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:     enabled,
		Comparisons: make(map[int][3]image.Image),
		Flows:       make(map[int]ports.FlowPair),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveComparison(index int, original, processed, stabilized image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Comparisons[index] = [3]image.Image{original, processed, stabilized}
	return nil
}

func (m *DebugSink) SaveFlow(index int, flow ports.FlowPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flows[index] = flow
	return nil
}

func (m *DebugSink) SaveReportJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReportJSON = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
