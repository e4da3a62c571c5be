package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftree/perftree/pkg/config"
)

func validCOSConfig() COSConfig {
	return COSConfig{
		Bucket:    "perftree-exports",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	}
}

func TestNewCOSStorage_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*COSConfig)
		errHas string
	}{
		{"missing bucket", func(c *COSConfig) { c.Bucket = "" }, "bucket and region"},
		{"missing region", func(c *COSConfig) { c.Region = "" }, "bucket and region"},
		{"missing secret id", func(c *COSConfig) { c.SecretID = "" }, "credentials"},
		{"missing secret key", func(c *COSConfig) { c.SecretKey = "" }, "credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCOSConfig()
			tt.mutate(&cfg)
			s, err := NewCOSStorage(cfg)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Contains(t, err.Error(), tt.errHas)
		})
	}

	s, err := NewCOSStorage(validCOSConfig())
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestCOSStorage_URL(t *testing.T) {
	s, err := NewCOSStorage(validCOSConfig())
	require.NoError(t, err)
	assert.Equal(t,
		"https://perftree-exports.cos.ap-guangzhou.myqcloud.com/runs/r1/report.json.zst",
		s.URL("runs/r1/report.json.zst"))
}

func TestCOSStorage_DomainAndSchemeOverrides(t *testing.T) {
	cfg := validCOSConfig()
	cfg.Domain = "example.internal"
	cfg.Scheme = "http"
	s, err := NewCOSStorage(cfg)
	require.NoError(t, err)
	assert.Equal(t,
		"http://perftree-exports.cos.ap-guangzhou.example.internal/k",
		s.URL("k"))
}

func TestNewStorage_SelectsBackend(t *testing.T) {
	local, err := NewStorage(config.StorageConfig{Backend: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, local)

	cos, err := NewStorage(config.StorageConfig{
		Backend:   "cos",
		Bucket:    "perftree-exports",
		Region:    "ap-guangzhou",
		SecretID:  "id",
		SecretKey: "key",
	})
	require.NoError(t, err)
	assert.IsType(t, &COSStorage{}, cos)

	_, err = NewStorage(config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}
