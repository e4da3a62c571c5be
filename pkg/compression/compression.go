// Package compression wraps the codecs used when archiving exported
// analysis artifacts: zstd for new exports, gzip for compatibility with
// tooling that predates the zstd default, and a pass-through for callers
// that want the plumbing without the compression.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Type tags which codec produced a byte stream.
type Type uint8

const (
	TypeGzip Type = 0
	TypeZstd Type = 1
	TypeNone Type = 255
)

// Level trades speed against ratio; each codec maps it onto its own scale.
type Level int

const (
	LevelFastest Level = 1
	LevelDefault Level = 3
	LevelBest    Level = 9
)

// Compressor is the codec interface the export writers program against.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Type() Type
	Name() string
}

// Closeable is implemented by compressors holding reusable codec state.
type Closeable interface {
	Close()
}

// Close releases c's resources if it has any.
func Close(c Compressor) {
	if closer, ok := c.(Closeable); ok {
		closer.Close()
	}
}

// Default returns the preferred codec: zstd at the default level, falling
// back to gzip if the zstd encoder cannot be constructed.
func Default() Compressor {
	if c, err := NewZstdCompressor(LevelDefault); err == nil {
		return c
	}
	return NewGzipCompressor(LevelDefault)
}

// New constructs a codec by type tag.
func New(t Type, level Level) (Compressor, error) {
	switch t {
	case TypeZstd:
		return NewZstdCompressor(level)
	case TypeGzip:
		return NewGzipCompressor(level), nil
	case TypeNone:
		return NewNoOpCompressor(), nil
	default:
		return nil, fmt.Errorf("compression: unknown type %d", t)
	}
}

// GzipCompressor compresses with compress/gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor maps level onto gzip's own level scale.
func NewGzipCompressor(level Level) *GzipCompressor {
	var gz int
	switch level {
	case LevelFastest:
		gz = gzip.BestSpeed
	case LevelBest:
		gz = gzip.BestCompression
	default:
		gz = gzip.DefaultCompression
	}
	return &GzipCompressor{level: gz}
}

// Compress implements Compressor.
func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("compression: gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compression: gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compression: gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress implements Compressor.
func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("compression: gzip reader: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Type implements Compressor.
func (c *GzipCompressor) Type() Type { return TypeGzip }

// Name implements Compressor.
func (c *GzipCompressor) Name() string { return "gzip" }

// ZstdCompressor compresses with klauspost's zstd codec. The encoder and
// decoder are reusable across calls; Close releases them.
type ZstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor maps level onto zstd's speed/ratio presets.
func NewZstdCompressor(level Level) (*ZstdCompressor, error) {
	var zl zstd.EncoderLevel
	switch level {
	case LevelFastest:
		zl = zstd.SpeedFastest
	case LevelBest:
		zl = zstd.SpeedBestCompression
	default:
		zl = zstd.SpeedDefault
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zl))
	if err != nil {
		return nil, fmt.Errorf("compression: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("compression: zstd decoder: %w", err)
	}
	return &ZstdCompressor{encoder: enc, decoder: dec}, nil
}

// Compress implements Compressor.
func (c *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress implements Compressor.
func (c *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

// Type implements Compressor.
func (c *ZstdCompressor) Type() Type { return TypeZstd }

// Name implements Compressor.
func (c *ZstdCompressor) Name() string { return "zstd" }

// Close implements Closeable.
func (c *ZstdCompressor) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

// NoOpCompressor passes bytes through unchanged.
type NoOpCompressor struct{}

// NewNoOpCompressor returns the pass-through codec.
func NewNoOpCompressor() *NoOpCompressor { return &NoOpCompressor{} }

// Compress implements Compressor.
func (c *NoOpCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress implements Compressor.
func (c *NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

// Type implements Compressor.
func (c *NoOpCompressor) Type() Type { return TypeNone }

// Name implements Compressor.
func (c *NoOpCompressor) Name() string { return "none" }

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectType sniffs the codec from a stream's magic bytes. Unrecognized
// streams report gzip, the codec older exports were written with.
func DetectType(data []byte) Type {
	if bytes.HasPrefix(data, zstdMagic) {
		return TypeZstd
	}
	if bytes.HasPrefix(data, gzipMagic) {
		return TypeGzip
	}
	return TypeGzip
}

// AutoDecompress sniffs the codec and decompresses accordingly.
func AutoDecompress(data []byte) ([]byte, error) {
	if DetectType(data) == TypeZstd {
		c, err := NewZstdCompressor(LevelDefault)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		return c.Decompress(data)
	}
	return NewGzipCompressor(LevelDefault).Decompress(data)
}
