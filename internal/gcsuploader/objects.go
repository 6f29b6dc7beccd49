package gcsuploader

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/savings-coach/internal/gcs"
	"google.golang.org/api/iterator"
)

// ListWithClient returns the objects in bucketName whose names start with prefix.
func ListWithClient(ctx context.Context, client *storage.Client, bucketName, prefix string) ([]gcs.ObjectInfo, error) {
	it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix})

	var objects []gcs.ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects in %s/%s: %w", bucketName, prefix, err)
		}
		objects = append(objects, gcs.ObjectInfo{
			Name:    attrs.Name,
			Size:    attrs.Size,
			Created: attrs.Created,
		})
	}
	return objects, nil
}

// DeleteWithClient removes an object. A missing object is not an error.
func DeleteWithClient(ctx context.Context, client *storage.Client, bucketName, objectName string) error {
	err := client.Bucket(bucketName).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting %s/%s: %w", bucketName, objectName, err)
	}
	return nil
}
