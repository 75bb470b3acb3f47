package framecodec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/memstab/pkg/framestore"
)

var geometry = framestore.Geometry{Width: 4, Height: 4}

// patternStore writes a store whose bytes differ across pixels, channels and frames.
func patternStore(t *testing.T, path string, frameCount int) []byte {
	t.Helper()
	data := make([]byte, geometry.FrameSize()*frameCount)
	for i := range data {
		data[i] = byte(i*7 + i/48)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write store: %v", err)
	}
	return data
}

func TestDecodeEncode_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := patternStore(t, filepath.Join(dir, "in.dat"), 10)

	in, err := framestore.OpenStore(filepath.Join(dir, "in.dat"), framestore.ReadOnly, geometry, 10)
	if err != nil {
		t.Fatalf("open input: %v", err)
	}
	defer in.Close()
	out, err := framestore.CreateStore(filepath.Join(dir, "out.dat"), geometry, 10)
	if err != nil {
		t.Fatalf("create output: %v", err)
	}

	for i := 0; i < 10; i++ {
		frame, err := Decode(in, i)
		if err != nil {
			t.Fatalf("Decode(%d) failed: %v", i, err)
		}
		if frame.Index != i {
			t.Errorf("expected index %d, got %d", i, frame.Index)
		}
		if err := Encode(frame.Image, out, i); err != nil {
			t.Fatalf("Encode(%d) failed: %v", i, err)
		}
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close output: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "out.dat"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("round trip did not reproduce the input bytes")
	}
}

func TestDecode_SynthesizesAlpha(t *testing.T) {
	dir := t.TempDir()
	data := patternStore(t, filepath.Join(dir, "in.dat"), 1)
	store, err := framestore.OpenStore(filepath.Join(dir, "in.dat"), framestore.ReadOnly, geometry, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	frame, err := Decode(store, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	c := frame.Image.RGBAAt(1, 2)
	off := (2*4 + 1) * 3
	want := color.RGBA{R: data[off], G: data[off+1], B: data[off+2], A: 0xFF}
	if c != want {
		t.Errorf("pixel (1,2): expected %v, got %v", want, c)
	}
}

func TestDecode_OutOfRange(t *testing.T) {
	dir := t.TempDir()
	patternStore(t, filepath.Join(dir, "in.dat"), 3)
	store, err := framestore.OpenStore(filepath.Join(dir, "in.dat"), framestore.ReadOnly, geometry, 3)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	for _, i := range []int{-1, 3} {
		if _, err := Decode(store, i); !errors.Is(err, framestore.ErrIndexOutOfRange) {
			t.Errorf("Decode(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
}

func TestEncode_Errors(t *testing.T) {
	dir := t.TempDir()
	out, err := framestore.CreateStore(filepath.Join(dir, "out.dat"), geometry, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer out.Close()

	if err := Encode(image.NewRGBA(image.Rect(0, 0, 3, 4)), out, 0); !errors.Is(err, ErrGeometry) {
		t.Errorf("expected ErrGeometry, got %v", err)
	}
	if err := Encode(image.NewRGBA(image.Rect(0, 0, 4, 4)), out, 2); !errors.Is(err, framestore.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	patternStore(t, filepath.Join(dir, "ro.dat"), 1)
	ro, err := framestore.OpenStore(filepath.Join(dir, "ro.dat"), framestore.ReadOnly, geometry, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ro.Close()
	if err := Encode(image.NewRGBA(image.Rect(0, 0, 4, 4)), ro, 0); !errors.Is(err, framestore.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestEncode_GenericImage(t *testing.T) {
	dir := t.TempDir()
	out, err := framestore.CreateStore(filepath.Join(dir, "out.dat"), geometry, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer out.Close()

	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(0, 0, color.Gray{Y: 200})
	if err := Encode(img, out, 0); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	view, err := out.View(0)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if !bytes.Equal(view.Pix[:3], []byte{200, 200, 200}) {
		t.Errorf("expected gray 200 in first pixel, got %v", view.Pix[:3])
	}
}
