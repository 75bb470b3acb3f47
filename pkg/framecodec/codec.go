// Package framecodec converts packed RGB frame records to and from the
// 4-channel working format used for engine upload.
package framecodec

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/user/memstab/pkg/framestore"
)

// ErrGeometry is returned when an image does not match the store geometry.
var ErrGeometry = errors.New("framecodec: image size does not match store geometry")

// Frame is an owned, decoded frame in RGBA working format.
type Frame struct {
	Index int
	Image *image.RGBA
}

// Decode reads record i of store into a new RGBA frame with opaque alpha.
func Decode(store *framestore.Store, i int) (*Frame, error) {
	view, err := store.View(i)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", i, err)
	}
	return &Frame{Index: i, Image: DecodeView(view)}, nil
}

// DecodeView expands a borrowed RGB view into a new RGBA image.
func DecodeView(view framestore.RecordView) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, view.Width, view.Height))
	for y := 0; y < view.Height; y++ {
		src := view.Pix[y*view.Stride : y*view.Stride+view.Width*framestore.Channels]
		dst := img.Pix[y*img.Stride : y*img.Stride+view.Width*4]
		for x := 0; x < view.Width; x++ {
			dst[4*x+0] = src[3*x+0]
			dst[4*x+1] = src[3*x+1]
			dst[4*x+2] = src[3*x+2]
			dst[4*x+3] = 0xFF
		}
	}
	return img
}

// Encode writes img as packed RGB into record i of a writable store.
// Exactly one record is written; alpha is dropped.
func Encode(img image.Image, store *framestore.Store, i int) error {
	view, err := store.WritableView(i)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", i, err)
	}
	if err := EncodeView(img, view); err != nil {
		return fmt.Errorf("encode frame %d: %w", i, err)
	}
	return nil
}

// EncodeView writes img into a borrowed writable view.
func EncodeView(img image.Image, view framestore.RecordView) error {
	b := img.Bounds()
	if b.Dx() != view.Width || b.Dy() != view.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrGeometry, b.Dx(), b.Dy(), view.Width, view.Height)
	}

	switch src := img.(type) {
	case *image.RGBA:
		packRows(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), view)
	case *image.NRGBA:
		packRows(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), view)
	default:
		for y := 0; y < view.Height; y++ {
			row := view.Pix[y*view.Stride:]
			for x := 0; x < view.Width; x++ {
				c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
				row[3*x+0] = c.R
				row[3*x+1] = c.G
				row[3*x+2] = c.B
			}
		}
	}
	return nil
}

// packRows copies the RGB channels of 4-byte pixels starting at offset.
func packRows(pix []byte, stride, offset int, view framestore.RecordView) {
	for y := 0; y < view.Height; y++ {
		src := pix[offset+y*stride:]
		dst := view.Pix[y*view.Stride:]
		for x := 0; x < view.Width; x++ {
			dst[3*x+0] = src[4*x+0]
			dst[3*x+1] = src[4*x+1]
			dst[3*x+2] = src[4*x+2]
		}
	}
}
