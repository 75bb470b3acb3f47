// Package flowfile reads and writes dense optical flow files in the
// Middlebury .flo layout:
//
//	float32 magic 202021.25 ("PIEH")
//	int32   width
//	int32   height
//	float32 (dx, dy) * width * height, row-major
//
// All values are little-endian.
package flowfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/user/memstab/pkg/ports"
)

// Magic is the float32 tag at the start of every flow file.
const Magic float32 = 202021.25

// MaxDimension bounds width and height to reject corrupt headers
// before allocating.
const MaxDimension = 1 << 15

const headerSize = 12

// ErrFormat is returned for a malformed header or a truncated body.
var ErrFormat = errors.New("flowfile: invalid flow file")

// Read parses one flow field from r. The body is buffered as it arrives,
// so a header claiming more vectors than r holds fails with ErrFormat
// without allocating the declared size.
func Read(r io.Reader) (ports.FlowField, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return ports.FlowField{}, fmt.Errorf("%w: short header: %v", ErrFormat, err)
	}
	width, height, err := parseHeader(header[:])
	if err != nil {
		return ports.FlowField{}, err
	}

	size := bodySize(width, height)
	var body bytes.Buffer
	if read, err := io.CopyN(&body, r, int64(size)); err != nil {
		return ports.FlowField{}, fmt.Errorf("%w: body has %d of %d vectors", ErrFormat, read/8, size/8)
	}
	return decodeBody(width, height, body.Bytes()), nil
}

// Decode parses a flow field held entirely in memory.
func Decode(data []byte) (ports.FlowField, error) {
	if len(data) < headerSize {
		return ports.FlowField{}, fmt.Errorf("%w: short header: %d bytes", ErrFormat, len(data))
	}
	width, height, err := parseHeader(data[:headerSize])
	if err != nil {
		return ports.FlowField{}, err
	}
	size := bodySize(width, height)
	if body := len(data) - headerSize; body < size {
		return ports.FlowField{}, fmt.Errorf("%w: body has %d of %d vectors", ErrFormat, body/8, size/8)
	}
	return decodeBody(width, height, data[headerSize:headerSize+size]), nil
}

func parseHeader(header []byte) (width, height int, err error) {
	magic := math.Float32frombits(binary.LittleEndian.Uint32(header[0:4]))
	if magic != Magic {
		return 0, 0, fmt.Errorf("%w: bad magic %v", ErrFormat, magic)
	}
	w := int32(binary.LittleEndian.Uint32(header[4:8]))
	h := int32(binary.LittleEndian.Uint32(header[8:12]))
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return 0, 0, fmt.Errorf("%w: bad dimensions %dx%d", ErrFormat, w, h)
	}
	return int(w), int(h), nil
}

// bodySize is the byte length of width*height (dx, dy) float32 pairs.
func bodySize(width, height int) int {
	return 8 * width * height
}

func decodeBody(width, height int, body []byte) ports.FlowField {
	vectors := make([]float32, 2*width*height)
	for i := range vectors {
		vectors[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
	}
	return ports.FlowField{Width: width, Height: height, Vectors: vectors}
}

// ReadFile loads and parses the flow file at path through fs.
func ReadFile(fs ports.FileSystem, path string) (ports.FlowField, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return ports.FlowField{}, fmt.Errorf("read flow %s: %w", path, err)
	}
	field, err := Decode(data)
	if err != nil {
		return ports.FlowField{}, fmt.Errorf("%s: %w", path, err)
	}
	return field, nil
}

// Write serializes field to w.
func Write(w io.Writer, field ports.FlowField) error {
	if field.Width <= 0 || field.Height <= 0 || len(field.Vectors) != 2*field.Width*field.Height {
		return fmt.Errorf("%w: %dx%d with %d components", ErrFormat, field.Width, field.Height, len(field.Vectors))
	}
	buf := make([]byte, headerSize+4*len(field.Vectors))
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(Magic))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(field.Width))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(field.Height))
	for i, v := range field.Vectors {
		binary.LittleEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(v))
	}
	_, err := w.Write(buf)
	return err
}

// Encode serializes field into a new byte slice.
func Encode(field ports.FlowField) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, field); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
