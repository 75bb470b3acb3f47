package flowsource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/memstab/pkg/flowfile"
	"github.com/user/memstab/pkg/framestore"
	"github.com/user/memstab/pkg/mocks"
	"github.com/user/memstab/pkg/ports"
)

var geometry = framestore.Geometry{Width: 4, Height: 4}

func constField(w, h int, dx, dy float32) ports.FlowField {
	f := ports.FlowField{Width: w, Height: h, Vectors: make([]float32, 2*w*h)}
	for i := 0; i < len(f.Vectors); i += 2 {
		f.Vectors[i], f.Vectors[i+1] = dx, dy
	}
	return f
}

func putFlow(t *testing.T, fs *mocks.FileSystem, path string, field ports.FlowField) {
	t.Helper()
	data, err := flowfile.Encode(field)
	if err != nil {
		t.Fatalf("encode flow: %v", err)
	}
	fs.WriteFile(path, data)
}

func TestNew_Selection(t *testing.T) {
	fs := mocks.NewFileSystem()
	engine := &mocks.Engine{}

	if k := New("flows", fs, engine, geometry).Kind(); k != FileBacked {
		t.Errorf("expected FileBacked with a directory, got %s", k)
	}
	if k := New("", fs, engine, geometry).Kind(); k != Computed {
		t.Errorf("expected Computed without a directory, got %s", k)
	}
}

func TestFiles_RetrieveFileNames(t *testing.T) {
	fs := mocks.NewFileSystem()
	dir := "flows"
	putFlow(t, fs, filepath.Join(dir, "frame_000006.flo"), constField(4, 4, 1, 2))
	putFlow(t, fs, filepath.Join(dir, "frame_000005_bwd.flo"), constField(4, 4, -1, -2))

	src := NewFiles(dir, fs, geometry)
	flow, err := src.Retrieve(context.Background(), 5, nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "frame_000006.flo"),
		filepath.Join(dir, "frame_000005_bwd.flo"),
	}
	if len(fs.ReadFileCalls) != len(want) {
		t.Fatalf("expected %d reads, got %v", len(want), fs.ReadFileCalls)
	}
	for i := range want {
		if fs.ReadFileCalls[i] != want[i] {
			t.Errorf("read %d: expected %s, got %s", i, want[i], fs.ReadFileCalls[i])
		}
	}

	if dx, dy := flow.Forward.At(0, 0); dx != 1 || dy != 2 {
		t.Errorf("forward flow came from the wrong file: (%v, %v)", dx, dy)
	}
	if dx, dy := flow.Backward.At(3, 3); dx != -1 || dy != -2 {
		t.Errorf("backward flow came from the wrong file: (%v, %v)", dx, dy)
	}
}

func TestFiles_RetrievePlacesIntoGeometry(t *testing.T) {
	fs := mocks.NewFileSystem()
	putFlow(t, fs, filepath.Join("flows", "frame_000001.flo"), constField(2, 2, 1, 1))
	putFlow(t, fs, filepath.Join("flows", "frame_000000_bwd.flo"), constField(2, 2, 1, 1))

	flow, err := NewFiles("flows", fs, geometry).Retrieve(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if flow.Forward.Width != 4 || flow.Forward.Height != 4 {
		t.Fatalf("expected 4x4 forward flow, got %dx%d", flow.Forward.Width, flow.Forward.Height)
	}
	if dx, dy := flow.Forward.At(3, 3); dx != 2 || dy != 2 {
		t.Errorf("expected scaled displacement (2, 2), got (%v, %v)", dx, dy)
	}
}

func TestFiles_RetrieveErrors(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFile(filepath.Join("flows", "frame_000003.flo"), []byte("garbage"))
	putFlow(t, fs, filepath.Join("flows", "frame_000002_bwd.flo"), constField(4, 4, 0, 0))

	src := NewFiles("flows", fs, geometry)
	if _, err := src.Retrieve(context.Background(), 2, nil); !errors.Is(err, flowfile.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	if _, err := src.Retrieve(context.Background(), 9, nil); err == nil {
		t.Error("expected error for missing flow file")
	}
}

func TestComputed_Delegates(t *testing.T) {
	want := ports.FlowPair{Forward: constField(4, 4, 3, 3)}
	engine := &mocks.Engine{
		FlowFunc: func(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error) {
			return want, nil
		},
	}

	flow, err := NewComputed(engine).Retrieve(context.Background(), 4, nil)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(engine.FlowCalls) != 1 || engine.FlowCalls[0] != 4 {
		t.Errorf("expected one engine call for index 4, got %v", engine.FlowCalls)
	}
	if dx, _ := flow.Forward.At(0, 0); dx != 3 {
		t.Errorf("expected engine flow to be returned, got dx=%v", dx)
	}
}

func TestComputed_Error(t *testing.T) {
	boom := errors.New("boom")
	engine := &mocks.Engine{
		FlowFunc: func(ctx context.Context, index int, window ports.FrameWindow) (ports.FlowPair, error) {
			return ports.FlowPair{}, boom
		},
	}
	if _, err := NewComputed(engine).Retrieve(context.Background(), 0, nil); !errors.Is(err, boom) {
		t.Errorf("expected wrapped engine error, got %v", err)
	}
}
