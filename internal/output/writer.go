// internal/output/writer.go - Image writing implementation
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ImageWriter writes rendered images to files or to a stream
type ImageWriter struct {
	fs     afero.Fs
	stdout io.Writer
}

// NewImageWriter creates a writer over fs. Destination "-" writes to stdout.
func NewImageWriter(fs afero.Fs, stdout io.Writer) *ImageWriter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &ImageWriter{fs: fs, stdout: stdout}
}

// Write stores data at destination, creating parent directories. Files are
// written to a temporary sibling and renamed so readers never see a partial image.
func (w *ImageWriter) Write(destination string, data []byte) error {
	if destination == "" || destination == "-" {
		if _, err := w.stdout.Write(data); err != nil {
			return fmt.Errorf("write to stdout failed: %w", err)
		}
		return nil
	}

	dir := filepath.Dir(destination)
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := afero.TempFile(w.fs, dir, "."+filepath.Base(destination)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = w.fs.Remove(tmpName)
		return fmt.Errorf("write failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpName)
		return fmt.Errorf("close failed: %w", err)
	}

	if err := w.fs.Rename(tmpName, destination); err != nil {
		_ = w.fs.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", destination, err)
	}
	return nil
}

// Exists reports whether destination is already present
func (w *ImageWriter) Exists(destination string) bool {
	ok, err := afero.Exists(w.fs, destination)
	return err == nil && ok
}
