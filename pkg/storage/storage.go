package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/leowzz/docsmith/pkg/logger"
	"github.com/leowzz/docsmith/pkg/storage/minio"
	"github.com/leowzz/docsmith/pkg/storage/s3"
)

// Type selects a storage backend.
type Type string

const (
	TypeS3    Type = "s3"
	TypeMinio Type = "minio"
)

// Storage is the object store behind batch inputs and generated reports.
type Storage interface {
	// Store writes an object under key and returns the key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get opens an object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object.
	Delete(ctx context.Context, key string) error
	// List returns the keys under a prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// New creates the configured storage backend.
func New(storageType Type, log logger.Logger) (Storage, error) {
	switch storageType {
	case TypeS3:
		return s3.GetClient(log)
	case TypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
