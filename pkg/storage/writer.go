package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"infohub/pkg/errors"
)

// Writer commits one downloaded file to the categorized store at
// <root>/<category>/<filename>. Concurrent writers targeting the same final
// path are excluded by the pipeline's per-key lock, so implementations only
// guarantee that no partially-written file is ever visible at the target
// path.
type Writer interface {
	Write(ctx context.Context, category, filename string, content []byte) error
}

// LocalWriter writes files to a local directory tree using a temp-file plus
// atomic-rename commit.
type LocalWriter struct {
	root string
}

// NewLocalWriter creates a writer rooted at the given directory.
func NewLocalWriter(root string) (*LocalWriter, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &LocalWriter{root: root}, nil
}

// Root returns the base directory files are written under.
func (w *LocalWriter) Root() string {
	return w.root
}

// Write commits content to <root>/<category>/<filename>. The temporary file
// is removed on every failure path, including cancellation, so the target
// path either holds the previous version or the complete new one.
func (w *LocalWriter) Write(ctx context.Context, category, filename string, content []byte) error {
	dir := filepath.Join(w.root, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Fatal("failed to create category directory", err)
	}

	tmp, err := os.CreateTemp(dir, filename+".tmp-*")
	if err != nil {
		return errors.Fatal("failed to create temporary file", err)
	}
	tempPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tempPath)
	}

	if _, err := tmp.Write(content); err != nil {
		cleanup()
		return errors.Fatal("failed to write file data", err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return errors.Fatal("failed to sync file data", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Fatal("failed to close temporary file", err)
	}

	// A cancelled commit must not make the new version visible.
	if err := ctx.Err(); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, filepath.Join(dir, filename)); err != nil {
		os.Remove(tempPath)
		return errors.Fatal("failed to rename temporary file", err)
	}

	return nil
}
