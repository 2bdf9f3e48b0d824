// Package artifact persists trained model bundles to object storage.
// A bundle is a version-named prefix holding the serialized network and
// a manifest, not a single flat file.
package artifact

import (
	"context"
	"fmt"
	"io"

	"github.com/rankforge/rankforge/internal/config"
)

// Store is the object storage interface model bundles are written to.
type Store interface {
	// Upload writes an object under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download opens an object for reading.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// NewStore creates a Store from configuration: local disk for
// development, S3-compatible object storage in production.
func NewStore(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.LocalPath)
	case "s3":
		return NewS3Store(&S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
