package gcsuploader

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/savings-coach/internal/gcs"
)

// Re-export interface from shared package for backward compatibility
type StorageService = gcs.StorageService

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage over a shared client.
type GCSStorageService struct {
	client *storage.Client
}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService(client *storage.Client) *GCSStorageService {
	return &GCSStorageService{client: client}
}

// Upload streams r to an object.
func (s *GCSStorageService) Upload(ctx context.Context, bucketName, objectName, contentType string, r io.Reader) error {
	return UploadWithClient(ctx, s.client, bucketName, objectName, contentType, r)
}

// FetchFromGCS downloads an object by gs:// URI.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchWithClient(ctx, s.client, gcsURI)
}

// List lists objects under prefix.
func (s *GCSStorageService) List(ctx context.Context, bucketName, prefix string) ([]gcs.ObjectInfo, error) {
	return ListWithClient(ctx, s.client, bucketName, prefix)
}

// Delete removes an object.
func (s *GCSStorageService) Delete(ctx context.Context, bucketName, objectName string) error {
	return DeleteWithClient(ctx, s.client, bucketName, objectName)
}

var _ gcs.StorageService = (*GCSStorageService)(nil)
