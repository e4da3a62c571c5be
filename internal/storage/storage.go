// Package storage archives exported analysis artifacts (compressed JSON
// reports, tree snapshots) under stable keys, behind an interface so the
// local-filesystem and object-store backends are interchangeable.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/perftree/perftree/pkg/config"
)

// Storage is the artifact archive the analyze CLI writes exports through.
type Storage interface {
	// Put streams an artifact to key, overwriting any previous artifact
	// under the same key.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get opens the artifact at key for reading; the caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the artifact at key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an artifact is archived under key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL renders the location of key in a form an operator can open
	// (a filesystem path for the local backend, an object URL for cos).
	URL(key string) string
}

// Backend names a storage implementation in configuration.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendCOS   Backend = "cos"
)

// NewStorage builds the configured backend. An empty backend name selects
// local filesystem storage.
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch Backend(cfg.Backend) {
	case BackendLocal, "":
		if cfg.LocalPath == "" {
			return nil, fmt.Errorf("storage: local path is required")
		}
		return NewLocalStorage(cfg.LocalPath)
	case BackendCOS:
		return NewCOSStorage(COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
