package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Warmup != 3 || cfg.BatchSize != 1 || cfg.ReportAfter != 100 {
		t.Errorf("unexpected pipeline defaults %+v", cfg)
	}
	if cfg.Engine.Mode != "passthrough" || cfg.LogFormat != "console" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memstab.yaml")
	yaml := `
original: in/orig.dat
processed: in/proc.dat
stabilized: out/stab.dat
width: 640
height: 360
optical_flow_dir: flows
batch_size: 4
engine:
  mode: blend
  blend_weight: 0.3
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Original != "in/orig.dat" || cfg.Width != 640 || cfg.Height != 360 {
		t.Errorf("unexpected stores/geometry %+v", cfg)
	}
	if cfg.OpticalFlowDir != "flows" || cfg.BatchSize != 4 {
		t.Errorf("unexpected pipeline settings %+v", cfg)
	}
	if cfg.Engine.Mode != "blend" || cfg.Engine.BlendWeight != 0.3 {
		t.Errorf("unexpected engine %+v", cfg.Engine)
	}
	// Unset keys keep their defaults.
	if cfg.Warmup != 3 || cfg.ReportAfter != 100 {
		t.Errorf("expected defaults preserved, got warmup %d report %d", cfg.Warmup, cfg.ReportAfter)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("width: [1, 2"), 0644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
