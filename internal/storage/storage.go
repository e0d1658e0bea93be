package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	cfg "github.com/clipfeed/clipfeed/internal/config"
)

// Storage holds uploaded media files by name.
type Storage interface {
	// Save stores the content under name. An existing file is never overwritten.
	Save(ctx context.Context, name string, r io.Reader) error

	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error

	// Handler serves stored files; it is mounted with the /media/ prefix stripped.
	Handler() http.Handler
}

// New selects the media backend from config.
func New(ctx context.Context, c *cfg.Config) (Storage, error) {
	if c.StorageDriver == cfg.StorageS3 {
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(ctx, S3Config{
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Endpoint:      c.S3Endpoint,
			PresignExpiry: c.S3PresignExpiry,
		})
	}

	slog.Info("initializing local storage", "path", c.MediaPath)
	return NewLocalStorage(c.MediaPath)
}
