// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"

	"github.com/user/memstab/pkg/ports"
)

const labelHeight = 16

var (
	background = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
	labelBand  = color.RGBA{R: 0x40, G: 0x40, B: 0x48, A: 0xFF}
	labelColor = color.RGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF}
)

// Sink writes debug output under baseDir:
//
//	comparison/frame-NNNNNN.png  original | processed | stabilized
//	flow/step-NNNNNN.png         forward | backward flow as color
//	report.json
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new file sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveComparison renders the three frames side by side with captions.
func (s *Sink) SaveComparison(index int, original, processed, stabilized image.Image) error {
	panels := []struct {
		label string
		img   image.Image
	}{
		{"original", original},
		{"processed", processed},
		{"stabilized", stabilized},
	}

	w, h := 0, 0
	for _, p := range panels {
		b := p.img.Bounds()
		w += b.Dx()
		h = max(h, b.Dy())
	}

	canvas := s.renderer.CreateCanvas(w, h+labelHeight, background)
	canvas.DrawRect(0, 0, w, labelHeight, labelBand)
	x := 0
	for _, p := range panels {
		canvas.DrawLabel(p.label, x+2, 2, labelColor)
		canvas.DrawImage(p.img, x, labelHeight)
		x += p.img.Bounds().Dx()
	}

	return s.writePNG(filepath.Join("comparison", fmt.Sprintf("frame-%06d.png", index)), canvas.ToImage())
}

// SaveFlow renders both flow fields of a step next to each other.
func (s *Sink) SaveFlow(index int, flow ports.FlowPair) error {
	fwd := Visualize(flow.Forward)
	bwd := Visualize(flow.Backward)

	w := fwd.Bounds().Dx() + bwd.Bounds().Dx()
	h := max(fwd.Bounds().Dy(), bwd.Bounds().Dy())
	if w == 0 || h == 0 {
		return nil
	}

	canvas := s.renderer.CreateCanvas(w, h+labelHeight, background)
	canvas.DrawLabel("forward", 2, 2, labelColor)
	canvas.DrawImage(fwd, 0, labelHeight)
	canvas.DrawLabel("backward", fwd.Bounds().Dx()+2, 2, labelColor)
	canvas.DrawImage(bwd, fwd.Bounds().Dx(), labelHeight)

	return s.writePNG(filepath.Join("flow", fmt.Sprintf("step-%06d.png", index)), canvas.ToImage())
}

// SaveReportJSON saves the performance report.
func (s *Sink) SaveReportJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "report.json"), data)
}

func (s *Sink) writePNG(rel string, img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, rel), data)
}

// Visualize maps a flow field to colors: hue follows direction and
// brightness follows magnitude relative to the largest vector.
func Visualize(field ports.FlowField) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, field.Width, field.Height))
	if field.Empty() {
		return img
	}

	var peak float64
	for i := 0; i+1 < len(field.Vectors); i += 2 {
		peak = math.Max(peak, math.Hypot(float64(field.Vectors[i]), float64(field.Vectors[i+1])))
	}

	for y := 0; y < field.Height; y++ {
		for x := 0; x < field.Width; x++ {
			dx, dy := field.At(x, y)
			mag := math.Hypot(float64(dx), float64(dy))
			v := 0.0
			if peak > 0 {
				v = mag / peak
			}
			hue := (math.Atan2(float64(dy), float64(dx)) + math.Pi) / (2 * math.Pi)
			img.SetRGBA(x, y, hsv(hue, 1, v))
		}
	}
	return img
}

// hsv converts h, s, v in [0, 1] to an opaque color.
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h*6, 6)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h, 2)-1))
	m := v - c

	var r, g, b float64
	switch int(h) {
	case 0:
		r, g, b = c, x, 0
	case 1:
		r, g, b = x, c, 0
	case 2:
		r, g, b = 0, c, x
	case 3:
		r, g, b = 0, x, c
	case 4:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 0xFF}
}

var _ ports.DebugSink = (*Sink)(nil)
