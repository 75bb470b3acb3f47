package flowfile

import "github.com/user/memstab/pkg/ports"

// PlaceInto returns field at the target resolution.
//
// Matching dimensions yield a copy. Otherwise each target pixel takes the
// nearest source sample at its centre, floor((x+0.5)*srcW/dstW), and the
// displacement is scaled by dstW/srcW and dstH/srcH so it stays in target
// pixel units.
func PlaceInto(field ports.FlowField, width, height int) ports.FlowField {
	out := ports.FlowField{Width: width, Height: height, Vectors: make([]float32, 2*width*height)}
	if field.Width == width && field.Height == height {
		copy(out.Vectors, field.Vectors)
		return out
	}
	if field.Empty() {
		return out
	}

	scaleX := float32(width) / float32(field.Width)
	scaleY := float32(height) / float32(field.Height)
	for y := 0; y < height; y++ {
		sy := nearest(y, field.Height, height)
		for x := 0; x < width; x++ {
			sx := nearest(x, field.Width, width)
			dx, dy := field.At(sx, sy)
			i := 2 * (y*width + x)
			out.Vectors[i] = dx * scaleX
			out.Vectors[i+1] = dy * scaleY
		}
	}
	return out
}

func nearest(dst, srcSize, dstSize int) int {
	s := (2*dst + 1) * srcSize / (2 * dstSize)
	if s >= srcSize {
		s = srcSize - 1
	}
	return s
}
