package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = bytes.Repeat([]byte("perftree hotspot export payload "), 64)

func TestRoundTrip(t *testing.T) {
	zstd, err := NewZstdCompressor(LevelDefault)
	require.NoError(t, err)
	defer zstd.Close()

	tests := []struct {
		name string
		c    Compressor
	}{
		{"gzip", NewGzipCompressor(LevelDefault)},
		{"zstd", zstd},
		{"none", NewNoOpCompressor()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := tt.c.Compress(sample)
			require.NoError(t, err)
			decompressed, err := tt.c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, sample, decompressed)
			assert.Equal(t, tt.name, tt.c.Name())
		})
	}
}

func TestRealCodecsShrinkRepetitiveData(t *testing.T) {
	gz, err := NewGzipCompressor(LevelBest).Compress(sample)
	require.NoError(t, err)
	assert.Less(t, len(gz), len(sample))

	zc, err := NewZstdCompressor(LevelBest)
	require.NoError(t, err)
	defer zc.Close()
	zs, err := zc.Compress(sample)
	require.NoError(t, err)
	assert.Less(t, len(zs), len(sample))
}

func TestNew(t *testing.T) {
	for _, tt := range []struct {
		typ  Type
		name string
	}{
		{TypeGzip, "gzip"},
		{TypeZstd, "zstd"},
		{TypeNone, "none"},
	} {
		c, err := New(tt.typ, LevelDefault)
		require.NoError(t, err)
		assert.Equal(t, tt.typ, c.Type())
		assert.Equal(t, tt.name, c.Name())
		Close(c)
	}

	_, err := New(Type(42), LevelDefault)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NotNil(t, c)
	defer Close(c)
	assert.Equal(t, TypeZstd, c.Type())
}

func TestDetectType(t *testing.T) {
	gz, err := NewGzipCompressor(LevelDefault).Compress(sample)
	require.NoError(t, err)
	assert.Equal(t, TypeGzip, DetectType(gz))

	zc, err := NewZstdCompressor(LevelDefault)
	require.NoError(t, err)
	defer zc.Close()
	zs, err := zc.Compress(sample)
	require.NoError(t, err)
	assert.Equal(t, TypeZstd, DetectType(zs))

	assert.Equal(t, TypeGzip, DetectType([]byte("plain text")))
	assert.Equal(t, TypeGzip, DetectType(nil))
}

func TestAutoDecompress(t *testing.T) {
	gz, err := NewGzipCompressor(LevelDefault).Compress(sample)
	require.NoError(t, err)
	out, err := AutoDecompress(gz)
	require.NoError(t, err)
	assert.Equal(t, sample, out)

	zc, err := NewZstdCompressor(LevelDefault)
	require.NoError(t, err)
	defer zc.Close()
	zs, err := zc.Compress(sample)
	require.NoError(t, err)
	out, err = AutoDecompress(zs)
	require.NoError(t, err)
	assert.Equal(t, sample, out)
}
