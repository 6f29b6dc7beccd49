package gcs

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name    string
	Size    int64
	Created time.Time
}

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// Upload streams r into a storage object.
	Upload(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) error

	// FetchFromGCS downloads file bytes from the given storage URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)

	// List returns the objects under prefix.
	List(ctx context.Context, bucketName, prefix string) ([]ObjectInfo, error)

	// Delete removes an object.
	Delete(ctx context.Context, bucketName, objectName string) error
}
