package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/lockwarden/lockwarden/pkg/snapshot"
)

// FileSource reads resource snapshots from a document on disk. It is the
// reference provider used in tests and offline evaluation; live cloud
// providers implement Source against their SDKs and register alongside it.
type FileSource struct {
	path string
}

// NewFileSource initializes a file provider from its configuration. The
// required "path" key names the snapshot document.
func NewFileSource(_ context.Context, config map[string]string) (Source, error) {
	path, ok := config["path"]
	if !ok || path == "" {
		return nil, fmt.Errorf("file provider requires a %q config key", "path")
	}
	return &FileSource{path: path}, nil
}

// Snapshot reads and parses the snapshot document.
func (f *FileSource) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", f.path, err)
	}
	return snapshot.Parse(data)
}
