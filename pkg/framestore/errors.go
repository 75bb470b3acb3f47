package framestore

import "errors"

var (
	// ErrIO is returned when a store file cannot be opened, sized or mapped.
	ErrIO = errors.New("framestore: mapping failed")

	// ErrIndexOutOfRange is returned for a frame index outside [0, FrameCount)
	// or a byte range outside the mapping.
	ErrIndexOutOfRange = errors.New("framestore: index out of range")

	// ErrReadOnly is returned when a writable span is requested from a read-only region.
	ErrReadOnly = errors.New("framestore: region is read-only")

	// ErrClosed is returned when a region is accessed after Close.
	ErrClosed = errors.New("framestore: region is closed")

	// ErrFrameCount is returned when the stores of a set disagree on frame count.
	ErrFrameCount = errors.New("framestore: frame count mismatch")

	// ErrPlatformNotSupported is returned where memory mapping is unavailable.
	ErrPlatformNotSupported = errors.New("framestore: platform not supported")
)
