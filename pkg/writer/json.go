// Package writer provides common JSON and compressed-JSON writers for
// exporting analysis results (reports, hotspots, balance summaries).
package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/perftree/perftree/pkg/compression"
)

// JSONWriter writes data as JSON.
type JSONWriter[T any] struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a new JSON writer with compact output.
func NewJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: ""}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter[T any]() *JSONWriter[T] {
	return &JSONWriter[T]{Indent: "  "}
}

// Write writes the data as JSON to the writer.
func (w *JSONWriter[T]) Write(data T, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(data)
}

// WriteToFile writes the data as JSON to a file.
func (w *JSONWriter[T]) WriteToFile(data T, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// CompressedWriter writes data as JSON run through a pkg/compression.Compressor
// before hitting the destination. The zero value uses compression.Default()
// (zstd, falling back to gzip).
type CompressedWriter[T any] struct {
	Compressor compression.Compressor
}

// NewCompressedWriter creates a CompressedWriter using c. A nil c falls back
// to compression.Default() at Write time.
func NewCompressedWriter[T any](c compression.Compressor) *CompressedWriter[T] {
	return &CompressedWriter[T]{Compressor: c}
}

// Write marshals data to JSON, compresses it, and writes the compressed
// bytes to writer.
func (w *CompressedWriter[T]) Write(data T, writer io.Writer) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	c := w.Compressor
	if c == nil {
		c = compression.Default()
		defer compression.Close(c)
	}

	compressed, err := c.Compress(jsonData)
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	_, err = writer.Write(compressed)
	return err
}

// WriteToFile writes the compressed JSON to a file.
func (w *CompressedWriter[T]) WriteToFile(data T, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(data, file)
}

// WriteResult contains statistics about the written file.
type WriteResult struct {
	JSONSize       int64
	CompressedSize int64
	CompressionPct float64
}

// WriteToFileWithStats writes and returns statistics about the output.
func (w *CompressedWriter[T]) WriteToFileWithStats(data T, filepath string) (*WriteResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	jsonSize := int64(len(jsonData))

	c := w.Compressor
	if c == nil {
		c = compression.Default()
		defer compression.Close(c)
	}

	compressed, err := c.Compress(jsonData)
	if err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	if err := os.WriteFile(filepath, compressed, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	compressedSize := int64(len(compressed))
	compressionPct := 0.0
	if jsonSize > 0 {
		compressionPct = float64(compressedSize) / float64(jsonSize) * 100
	}

	return &WriteResult{
		JSONSize:       jsonSize,
		CompressedSize: compressedSize,
		CompressionPct: compressionPct,
	}, nil
}
