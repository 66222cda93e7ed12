package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileRenderer writes each document to Path. By default it writes the
// sandbox host page; Raw writes the markup itself.
type FileRenderer struct {
	Path  string
	Title string
	Raw   bool
}

// Render replaces the file atomically so a browser reloading it never sees
// half a document.
func (f *FileRenderer) Render(_ context.Context, markup string) error {
	content := markup
	if !f.Raw {
		doc, err := SandboxDocument(f.Title, markup)
		if err != nil {
			return fmt.Errorf("%w: building host page: %w", ErrRenderFailure, err)
		}
		content = doc
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrRenderFailure, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".pageforge-*.html")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrRenderFailure, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("%w: replacing %s: %w", ErrRenderFailure, f.Path, err)
	}
	return nil
}
