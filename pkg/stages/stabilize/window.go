package stabilize

import (
	"fmt"

	"github.com/user/memstab/pkg/ports"
)

// slot holds both uploaded frames of one index.
type slot struct {
	index     int
	original  ports.DeviceBuffer
	processed ports.DeviceBuffer
}

// window is the FIFO of resident frames. Indices are contiguous and
// strictly increasing from front to back.
type window struct {
	slots []slot
}

var _ ports.FrameWindow = (*window)(nil)

// push appends the next index. Anything but Last()+1 is rejected.
func (w *window) push(s slot) error {
	if n := len(w.slots); n > 0 && s.index != w.slots[n-1].index+1 {
		return fmt.Errorf("window push: index %d after %d", s.index, w.slots[n-1].index)
	}
	w.slots = append(w.slots, s)
	return nil
}

// evictBefore drops and releases every slot with index < index.
func (w *window) evictBefore(index int) int {
	n := 0
	for n < len(w.slots) && w.slots[n].index < index {
		w.slots[n].original.Release()
		w.slots[n].processed.Release()
		w.slots[n] = slot{}
		n++
	}
	w.slots = w.slots[n:]
	return n
}

func (w *window) lookup(index int) (slot, bool) {
	if len(w.slots) == 0 {
		return slot{}, false
	}
	i := index - w.slots[0].index
	if i < 0 || i >= len(w.slots) {
		return slot{}, false
	}
	return w.slots[i], true
}

func (w *window) Original(index int) (ports.DeviceBuffer, bool) {
	s, ok := w.lookup(index)
	return s.original, ok
}

func (w *window) Processed(index int) (ports.DeviceBuffer, bool) {
	s, ok := w.lookup(index)
	return s.processed, ok
}

func (w *window) First() int {
	if len(w.slots) == 0 {
		return -1
	}
	return w.slots[0].index
}

func (w *window) Last() int {
	if len(w.slots) == 0 {
		return -1
	}
	return w.slots[len(w.slots)-1].index
}

func (w *window) Len() int {
	return len(w.slots)
}

func (w *window) indices() []int {
	out := make([]int, len(w.slots))
	for i, s := range w.slots {
		out[i] = s.index
	}
	return out
}

// release frees every resident buffer.
func (w *window) release() {
	if len(w.slots) == 0 {
		return
	}
	w.evictBefore(w.Last() + 1)
}
