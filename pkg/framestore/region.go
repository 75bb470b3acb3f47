// Package framestore maps fixed-layout frame store files into memory and
// exposes individual frame records without copying.
//
// A store file is a flat concatenation of packed RGB records, each
// Width*Height*3 bytes, indexed 0..FrameCount-1.
package framestore

import (
	"fmt"
	"sync"
)

// Protection selects how a region is mapped.
type Protection int

const (
	ReadOnly Protection = iota
	ReadWrite
)

// String returns the string representation of the protection.
func (p Protection) String() string {
	if p == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// Region owns one shared memory mapping of a file.
// The file descriptor is released as soon as the mapping exists; the
// mapping itself lives until Close.
type Region struct {
	path       string
	length     int
	protection Protection

	mu     sync.RWMutex
	data   []byte
	closed bool
}

// OpenRegion maps the file at path. The file size must equal length exactly.
func OpenRegion(path string, protection Protection, length int) (*Region, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid length %d", ErrIO, path, length)
	}
	data, err := mapFile(path, protection, length)
	if err != nil {
		return nil, err
	}
	return &Region{
		path:       path,
		length:     length,
		protection: protection,
		data:       data,
	}, nil
}

// Path returns the mapped file path.
func (r *Region) Path() string { return r.path }

// Len returns the mapping length in bytes.
func (r *Region) Len() int { return r.length }

// Protection returns how the region was mapped.
func (r *Region) Protection() Protection { return r.protection }

// Closed reports whether Close has run.
func (r *Region) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Bytes returns a read view of [offset, offset+length) without copying.
// The slice must not be written to and must not be used after Close.
func (r *Region) Bytes(offset, length int) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	if err := r.checkRange(offset, length); err != nil {
		return nil, err
	}
	return r.data[offset : offset+length : offset+length], nil
}

// WritableSpan returns a writable view of [offset, offset+length).
// Writes go straight to the shared mapping.
func (r *Region) WritableSpan(offset, length int) ([]byte, error) {
	if r.protection != ReadWrite {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, r.path)
	}
	return r.Bytes(offset, length)
}

// Sync flushes a read-write mapping to the underlying file.
func (r *Region) Sync() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	if r.protection != ReadWrite {
		return nil
	}
	if err := syncMapping(r.data); err != nil {
		return fmt.Errorf("%w: sync %s: %v", ErrIO, r.path, err)
	}
	return nil
}

// Close releases the mapping. It is idempotent.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var syncErr error
	if r.protection == ReadWrite {
		syncErr = syncMapping(r.data)
	}
	data := r.data
	r.data = nil
	if err := unmapFile(data); err != nil {
		return fmt.Errorf("%w: unmap %s: %v", ErrIO, r.path, err)
	}
	if syncErr != nil {
		return fmt.Errorf("%w: sync %s: %v", ErrIO, r.path, syncErr)
	}
	return nil
}

func (r *Region) checkRange(offset, length int) error {
	if offset < 0 || length < 0 || offset > r.length-length {
		return fmt.Errorf("%w: bytes [%d, %d) of %d", ErrIndexOutOfRange, offset, offset+length, r.length)
	}
	return nil
}
