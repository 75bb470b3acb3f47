package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func writeFrames(t *testing.T, dir string, n int, base uint8) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 4, 2))
		for y := 0; y < 2; y++ {
			for x := 0; x < 4; x++ {
				img.SetRGBA(x, y, color.RGBA{R: base + uint8(i), G: uint8(x), B: uint8(y), A: 255})
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		name := filepath.Join(dir, fmt.Sprintf("frame-%03d.png", i))
		if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"memstab"}, args...))
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := runApp(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out, "memstab version") {
		t.Errorf("version output = %q", out)
	}
}

func TestPackStabilizeUnpack(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, filepath.Join(dir, "orig"), 8, 0)
	writeFrames(t, filepath.Join(dir, "proc"), 8, 100)

	orig := filepath.Join(dir, "stores", "orig.dat")
	proc := filepath.Join(dir, "stores", "proc.dat")
	stab := filepath.Join(dir, "stores", "stab.dat")
	summary := filepath.Join(dir, "summary.md")

	if _, err := runApp(t, "pack", "-q",
		"--original-dir", filepath.Join(dir, "orig"),
		"--processed-dir", filepath.Join(dir, "proc"),
		"--original", orig, "--processed", proc, "--output", stab,
	); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	if _, err := runApp(t, "stabilize", "-q",
		"--original", orig, "--processed", proc, "--output", stab,
		"-W", "4", "-H", "2", "--warmup", "1", "--batch-size", "2",
		"--summary", summary,
	); err != nil {
		t.Fatalf("stabilize failed: %v", err)
	}

	// The passthrough engine reproduces the processed frames exactly.
	want, err := os.ReadFile(proc)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(stab)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 8*4*2*3 || !bytes.Equal(got, want) {
		t.Errorf("stabilized store differs from processed store")
	}

	md, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(md), "# Stabilization Summary") {
		t.Errorf("unexpected summary:\n%s", md)
	}

	out := filepath.Join(dir, "png")
	if _, err := runApp(t, "unpack", "-q", "-i", stab, "-W", "4", "-H", "2", "-o", out); err != nil {
		t.Fatalf("unpack failed: %v", err)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 || entries[0].Name() != "000000.png" {
		t.Errorf("unexpected unpack output: %d files", len(entries))
	}
}

func TestStabilizeWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, filepath.Join(dir, "orig"), 6, 0)
	writeFrames(t, filepath.Join(dir, "proc"), 6, 50)

	orig := filepath.Join(dir, "orig.dat")
	proc := filepath.Join(dir, "proc.dat")
	stab := filepath.Join(dir, "stab.dat")
	if _, err := runApp(t, "pack", "-q",
		"--original-dir", filepath.Join(dir, "orig"),
		"--processed-dir", filepath.Join(dir, "proc"),
		"--original", orig, "--processed", proc, "--output", stab,
	); err != nil {
		t.Fatalf("pack failed: %v", err)
	}

	cfg := fmt.Sprintf(`original: %s
processed: %s
stabilized: %s
width: 4
height: 2
warmup: 1
batch_size: 1
engine:
  mode: blend
  blend_weight: 0
`, orig, proc, stab)
	cfgPath := filepath.Join(dir, "memstab.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := runApp(t, "stabilize", "-q", "-c", cfgPath); err != nil {
		t.Fatalf("stabilize failed: %v", err)
	}

	// A zero blend weight keeps only the target frame.
	want, _ := os.ReadFile(proc)
	got, _ := os.ReadFile(stab)
	if !bytes.Equal(got, want) {
		t.Errorf("stabilized store differs from processed store")
	}
}

func TestStabilizeErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"missing stores", []string{"stabilize", "-q", "-W", "4", "-H", "2"}},
		{"unknown engine", []string{"stabilize", "-q", "--original", "a", "--processed", "b", "--output", "c", "--engine", "warp"}},
		{"unknown log format", []string{"stabilize", "--log-format", "json"}},
		{"bad log level", []string{"stabilize", "--log-level", "loud"}},
		{"missing config", []string{"stabilize", "-c", filepath.Join(dir, "none.yaml")}},
		{"missing store files", []string{"stabilize", "-q", "-W", "4", "-H", "2",
			"--original", filepath.Join(dir, "a.dat"), "--processed", filepath.Join(dir, "b.dat"), "--output", filepath.Join(dir, "c.dat")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPackRequiresFlags(t *testing.T) {
	if _, err := runApp(t, "pack", "-q"); err == nil {
		t.Error("expected error for missing required flags")
	}
}

func TestWorkerCountFallsBackToConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "memstab.yaml")
	if err := os.WriteFile(cfgPath, []byte("workers: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"config value", []string{"-c", cfgPath}, 3},
		{"flag overrides config", []string{"-c", cfgPath, "-j", "5"}, 5},
		{"default", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := -1
			cmd := packCommand()
			cmd.Action = func(c *cli.Context) error {
				file, err := loadConfig(c)
				if err != nil {
					return err
				}
				got = workerCount(c, file)
				return nil
			}
			// Required flags are not under test here.
			for _, f := range cmd.Flags {
				if sf, ok := f.(*cli.StringFlag); ok {
					sf.Required = false
				}
			}
			app := &cli.App{Name: "memstab", Commands: []*cli.Command{cmd}}
			if err := app.Run(append([]string{"memstab", "pack"}, tt.args...)); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("workers = %d, want %d", got, tt.want)
			}
		})
	}
}
