package flowfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/user/memstab/pkg/ports"
)

func testField(w, h int) ports.FlowField {
	f := ports.FlowField{Width: w, Height: h, Vectors: make([]float32, 2*w*h)}
	for i := range f.Vectors {
		f.Vectors[i] = float32(i) * 0.5
	}
	return f
}

func TestFormatIndex(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "000000"},
		{42, "000042"},
		{123456, "123456"},
	}
	for _, tt := range tests {
		if got := FormatIndex(tt.index); got != tt.want {
			t.Errorf("FormatIndex(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	if got := ForwardName(7); got != "frame_000008.flo" {
		t.Errorf("ForwardName(7) = %q", got)
	}
	if got := BackwardName(7); got != "frame_000007_bwd.flo" {
		t.Errorf("BackwardName(7) = %q", got)
	}
}

func TestEncodeDecode(t *testing.T) {
	field := testField(3, 2)
	data, err := Encode(field)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) != 12+3*2*8 {
		t.Errorf("unexpected encoded size %d", len(data))
	}
	if !bytes.Equal(data[:4], []byte("PIEH")) {
		t.Errorf("expected PIEH tag, got %q", data[:4])
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Width != 3 || got.Height != 2 {
		t.Errorf("expected 3x2, got %dx%d", got.Width, got.Height)
	}
	dx, dy := got.At(2, 1)
	if dx != 5 || dy != 5.5 {
		t.Errorf("At(2,1) = (%v, %v), want (5, 5.5)", dx, dy)
	}
}

func header(magic float32, w, h int32) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(magic))
	binary.LittleEndian.PutUint32(buf[4:], uint32(w))
	binary.LittleEndian.PutUint32(buf[8:], uint32(h))
	return buf
}

func TestDecode_FormatErrors(t *testing.T) {
	valid, err := Encode(testField(4, 4))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", valid[:7]},
		{"bad magic", append(header(1.0, 4, 4), valid[12:]...)},
		{"zero width", header(Magic, 0, 4)},
		{"negative height", header(Magic, 4, -1)},
		{"huge dimensions", header(Magic, MaxDimension+1, 2)},
		{"truncated body", valid[:len(valid)-8]},
		{"declared larger than present", append(header(Magic, 100, 100), valid[12:]...)},
		{"maximum dimensions with one vector", append(header(Magic, MaxDimension, MaxDimension), make([]byte, 8)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, ErrFormat) {
				t.Errorf("Decode: expected ErrFormat, got %v", err)
			}
			if _, err := Read(bytes.NewReader(tt.data)); !errors.Is(err, ErrFormat) {
				t.Errorf("Read: expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestPlaceInto_SameSize(t *testing.T) {
	field := testField(4, 3)
	got := PlaceInto(field, 4, 3)
	if len(got.Vectors) != len(field.Vectors) {
		t.Fatalf("unexpected vector count %d", len(got.Vectors))
	}
	for i := range field.Vectors {
		if got.Vectors[i] != field.Vectors[i] {
			t.Fatalf("vector %d differs", i)
		}
	}
	got.Vectors[0] = 99
	if field.Vectors[0] == 99 {
		t.Error("expected PlaceInto to copy, not alias")
	}
}

func TestPlaceInto_Upsample(t *testing.T) {
	field := ports.FlowField{Width: 2, Height: 1, Vectors: []float32{1, 2, 3, 4}}
	got := PlaceInto(field, 4, 2)

	if got.Width != 4 || got.Height != 2 {
		t.Fatalf("expected 4x2, got %dx%d", got.Width, got.Height)
	}
	// Left half samples (1,2), right half (3,4); dx scaled by 2, dy by 2.
	want := []struct{ dx, dy float32 }{{2, 4}, {2, 4}, {6, 8}, {6, 8}}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			dx, dy := got.At(x, y)
			if dx != want[x].dx || dy != want[x].dy {
				t.Errorf("At(%d,%d) = (%v,%v), want (%v,%v)", x, y, dx, dy, want[x].dx, want[x].dy)
			}
		}
	}
}

func TestPlaceInto_Downsample(t *testing.T) {
	field := testField(4, 4)
	got := PlaceInto(field, 2, 2)
	// Target (1,1) samples source (3,3) and halves both components.
	sdx, sdy := field.At(3, 3)
	dx, dy := got.At(1, 1)
	if dx != sdx/2 || dy != sdy/2 {
		t.Errorf("At(1,1) = (%v,%v), want (%v,%v)", dx, dy, sdx/2, sdy/2)
	}
}
