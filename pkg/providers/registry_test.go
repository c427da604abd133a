package providers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lockwarden/lockwarden/pkg/snapshot"
)

type staticSource struct {
	snap *snapshot.Snapshot
}

func (s *staticSource) Snapshot(_ context.Context) (*snapshot.Snapshot, error) {
	return s.snap, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()

	inits := 0
	err := r.Register("static", func(_ context.Context, _ map[string]string) (Source, error) {
		inits++
		return &staticSource{snap: &snapshot.Snapshot{}}, nil
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	src1, err := r.Get(context.Background(), "static", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	src2, err := r.Get(context.Background(), "static", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if src1 != src2 {
		t.Error("Expected cached source on second Get")
	}
	if inits != 1 {
		t.Errorf("Expected one initialization, got %d", inits)
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	init := func(_ context.Context, _ map[string]string) (Source, error) {
		return &staticSource{}, nil
	}

	if err := r.Register("p", init); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := r.Register("p", init); err == nil {
		t.Fatal("Expected error for duplicate provider registration")
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get(context.Background(), "missing", nil); err == nil {
		t.Fatal("Expected error for unregistered provider")
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	init := func(_ context.Context, _ map[string]string) (Source, error) {
		return &staticSource{}, nil
	}
	_ = r.Register("b", init)
	_ = r.Register("a", init)

	names := r.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Expected sorted [a b], got %v", names)
	}
}

func TestDefaultRegistry_FileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.yaml")
	doc := `resources:
  - id: disk-1
    type: disk
  - id: lock-1
    type: lock
    properties:
      level: CanNotDelete
edges:
  - from: lock-1
    to: disk-1
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}

	src, err := Default.Get(context.Background(), "file", map[string]string{"path": path})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	snap, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(snap.Resources) != 2 || len(snap.Edges) != 1 {
		t.Errorf("Unexpected snapshot: %d resources, %d edges", len(snap.Resources), len(snap.Edges))
	}
}

func TestFileSource_MissingPath(t *testing.T) {
	if _, err := NewFileSource(context.Background(), nil); err == nil {
		t.Fatal("Expected error for missing path config")
	}
}
