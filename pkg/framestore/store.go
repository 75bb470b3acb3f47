package framestore

import (
	"errors"
	"fmt"
	"os"
)

// Channels is the number of bytes per pixel in a frame record.
const Channels = 3

// Geometry describes the frame dimensions shared by all stores of a run.
type Geometry struct {
	Width  int
	Height int
}

// FrameSize returns the byte length of one frame record.
func (g Geometry) FrameSize() int {
	return g.Width * g.Height * Channels
}

// Validate checks that both dimensions are positive.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid frame geometry %dx%d", g.Width, g.Height)
	}
	return nil
}

// String returns the geometry as WxH.
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// RecordView is a borrowed view over one frame record inside a mapping.
// It owns nothing and is valid only while its Store stays open.
type RecordView struct {
	Pix    []byte
	Stride int
	Width  int
	Height int
}

// Store is a mapped frame store of FrameCount fixed-size records.
type Store struct {
	region     *Region
	geometry   Geometry
	frameCount int
}

// OpenStore maps an existing store file holding frameCount records.
func OpenStore(path string, protection Protection, geometry Geometry, frameCount int) (*Store, error) {
	if err := geometry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	if frameCount <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid frame count %d", ErrIO, path, frameCount)
	}
	region, err := OpenRegion(path, protection, geometry.FrameSize()*frameCount)
	if err != nil {
		return nil, err
	}
	return &Store{region: region, geometry: geometry, frameCount: frameCount}, nil
}

// CreateStore creates or truncates a zero-filled store file of the exact
// size and maps it read-write.
func CreateStore(path string, geometry Geometry, frameCount int) (*Store, error) {
	if err := geometry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	if frameCount <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid frame count %d", ErrIO, path, frameCount)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}
	size := int64(geometry.FrameSize()) * int64(frameCount)
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: truncate %s: %v", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	return OpenStore(path, ReadWrite, geometry, frameCount)
}

// FrameCountOf derives the number of records in a store file from its size.
func FrameCountOf(path string, geometry Geometry) (int, error) {
	if err := geometry.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}
	frameSize := int64(geometry.FrameSize())
	if info.Size() == 0 || info.Size()%frameSize != 0 {
		return 0, fmt.Errorf("%w: %s: size %d is not a multiple of frame size %d", ErrIO, path, info.Size(), frameSize)
	}
	return int(info.Size() / frameSize), nil
}

// Geometry returns the frame dimensions.
func (s *Store) Geometry() Geometry { return s.geometry }

// FrameCount returns the number of records.
func (s *Store) FrameCount() int { return s.frameCount }

// FrameSize returns the byte length of one record.
func (s *Store) FrameSize() int { return s.geometry.FrameSize() }

// Path returns the store file path.
func (s *Store) Path() string { return s.region.Path() }

// Writable reports whether records can be written.
func (s *Store) Writable() bool { return s.region.Protection() == ReadWrite }

// Closed reports whether the underlying mapping has been released.
func (s *Store) Closed() bool { return s.region.Closed() }

// Offset returns the byte offset of record i.
func (s *Store) Offset(i int) (int, error) {
	if i < 0 || i >= s.frameCount {
		return 0, fmt.Errorf("%w: frame %d not in [0, %d)", ErrIndexOutOfRange, i, s.frameCount)
	}
	return i * s.geometry.FrameSize(), nil
}

// View returns a borrowed read view over record i.
func (s *Store) View(i int) (RecordView, error) {
	offset, err := s.Offset(i)
	if err != nil {
		return RecordView{}, err
	}
	pix, err := s.region.Bytes(offset, s.geometry.FrameSize())
	if err != nil {
		return RecordView{}, err
	}
	return s.view(pix), nil
}

// WritableView returns a borrowed writable view over record i.
func (s *Store) WritableView(i int) (RecordView, error) {
	offset, err := s.Offset(i)
	if err != nil {
		return RecordView{}, err
	}
	pix, err := s.region.WritableSpan(offset, s.geometry.FrameSize())
	if err != nil {
		return RecordView{}, err
	}
	return s.view(pix), nil
}

func (s *Store) view(pix []byte) RecordView {
	return RecordView{
		Pix:    pix,
		Stride: s.geometry.Width * Channels,
		Width:  s.geometry.Width,
		Height: s.geometry.Height,
	}
}

// Sync flushes pending writes of a writable store.
func (s *Store) Sync() error { return s.region.Sync() }

// Close releases the mapping. It is idempotent.
func (s *Store) Close() error { return s.region.Close() }

// Paths names the three store files of a run.
type Paths struct {
	Original   string
	Processed  string
	Stabilized string
}

// StoreSet groups the three stores of a run.
type StoreSet struct {
	Original   *Store
	Processed  *Store
	Stabilized *Store
}

// OpenStoreSet maps original and processed read-only and stabilized
// read-write, all with frameCount records. On failure every store opened
// so far is closed again.
func OpenStoreSet(paths Paths, geometry Geometry, frameCount int) (*StoreSet, error) {
	set := &StoreSet{}
	var err error
	if set.Original, err = OpenStore(paths.Original, ReadOnly, geometry, frameCount); err != nil {
		return nil, fmt.Errorf("original store: %w", err)
	}
	if set.Processed, err = OpenStore(paths.Processed, ReadOnly, geometry, frameCount); err != nil {
		set.Close()
		return nil, fmt.Errorf("processed store: %w", err)
	}
	if set.Stabilized, err = OpenStore(paths.Stabilized, ReadWrite, geometry, frameCount); err != nil {
		set.Close()
		return nil, fmt.Errorf("stabilized store: %w", err)
	}
	return set, nil
}

// FrameCount returns the shared record count.
func (s *StoreSet) FrameCount() int {
	return s.Original.FrameCount()
}

// Geometry returns the shared frame geometry.
func (s *StoreSet) Geometry() Geometry {
	return s.Original.Geometry()
}

// Validate checks that all three stores are present and agree on layout.
func (s *StoreSet) Validate() error {
	if s.Original == nil || s.Processed == nil || s.Stabilized == nil {
		return errors.New("framestore: incomplete store set")
	}
	n, g := s.Original.FrameCount(), s.Original.Geometry()
	for _, st := range []*Store{s.Processed, s.Stabilized} {
		if st.FrameCount() != n || st.Geometry() != g {
			return fmt.Errorf("%w: %s has %d frames of %s, expected %d of %s",
				ErrFrameCount, st.Path(), st.FrameCount(), st.Geometry(), n, g)
		}
	}
	if !s.Stabilized.Writable() {
		return fmt.Errorf("%w: %s", ErrReadOnly, s.Stabilized.Path())
	}
	return nil
}

// Closed reports whether every opened store has been released.
func (s *StoreSet) Closed() bool {
	for _, st := range []*Store{s.Original, s.Processed, s.Stabilized} {
		if st != nil && !st.Closed() {
			return false
		}
	}
	return true
}

// Close releases all opened stores. It is idempotent.
func (s *StoreSet) Close() error {
	var errs []error
	for _, st := range []*Store{s.Original, s.Processed, s.Stabilized} {
		if st == nil {
			continue
		}
		if err := st.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
