package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftree/perftree/pkg/config"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGetRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "runs/abc/report.json.zst", strings.NewReader("payload")))

	rc, err := s.Get(ctx, "runs/abc/report.json.zst")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalStorage_PutOverwrites(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "report", strings.NewReader("first")))
	require.NoError(t, s.Put(ctx, "report", strings.NewReader("second")))

	rc, err := s.Get(ctx, "report")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "second", string(data))
}

func TestLocalStorage_GetMissingKey(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestLocalStorage_ExistsAndDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "report")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, "report", strings.NewReader("x")))
	exists, err = s.Exists(ctx, "report")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "report"))
	exists, err = s.Exists(ctx, "report")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting again is not an error.
	require.NoError(t, s.Delete(ctx, "report"))
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Put(ctx, "k", strings.NewReader("x")))
	_, err := s.Get(ctx, "k")
	assert.Error(t, err)
}

func TestLocalStorage_URLIsFilesystemPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "runs", "r1"), s.URL("runs/r1"))
}

func TestNewLocalStorage_CreatesBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	_, err := NewLocalStorage(dir)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStorage_RequiresLocalPath(t *testing.T) {
	_, err := NewStorage(config.StorageConfig{})
	assert.Error(t, err)

	s, err := NewStorage(config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
