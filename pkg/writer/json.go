// Package writer provides output writers for analysis reports.
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// JSONWriter writes values as JSON.
type JSONWriter[T any] struct {
	indent bool
}

// JSONOption configures a JSONWriter.
type JSONOption[T any] func(*JSONWriter[T])

// WithIndent enables indented output.
func WithIndent[T any]() JSONOption[T] {
	return func(w *JSONWriter[T]) {
		w.indent = true
	}
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter[T any](opts ...JSONOption[T]) *JSONWriter[T] {
	w := &JSONWriter[T]{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes v to the given writer.
func (w *JSONWriter[T]) Write(out io.Writer, v T) error {
	enc := json.NewEncoder(out)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteToFile encodes v to the named file, creating parent directories
// as needed.
func (w *JSONWriter[T]) WriteToFile(path string, v T) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := w.Write(f, v); err != nil {
		return err
	}
	return f.Sync()
}
