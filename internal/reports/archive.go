package reports

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dvloznov/savings-coach/internal/gcs"
	"github.com/dvloznov/savings-coach/internal/logger"
)

const archivePrefix = "reports/"

// Archive publishes rendered reports to a bucket and prunes old ones.
type Archive struct {
	store  gcs.StorageService
	bucket string
}

// NewArchive creates an archive in bucket.
func NewArchive(store gcs.StorageService, bucket string) *Archive {
	return &Archive{store: store, bucket: bucket}
}

// ObjectName is the archive path of a report: reports/YYYY/MM/DD/<name>.csv.
func ObjectName(name string, at time.Time) string {
	return path.Join(archivePrefix, at.UTC().Format("2006/01/02"), name+".csv")
}

// Publish uploads the report and returns its gs:// URI.
func (a *Archive) Publish(ctx context.Context, r *Report) (string, error) {
	object := ObjectName(r.Name, r.GeneratedAt)
	if err := a.store.Upload(ctx, a.bucket, object, "text/csv", bytes.NewReader(r.Data)); err != nil {
		return "", fmt.Errorf("Publish: %w", err)
	}

	uri := "gs://" + a.bucket + "/" + object
	log := logger.FromContext(ctx)
	log.Info().
		Str("report_type", string(r.Type)).
		Str("gcs_uri", uri).
		Int("bytes", len(r.Data)).
		Msg("Report archived")
	return uri, nil
}

// Fetch downloads an archived report. The URI must point into this
// archive's bucket and prefix.
func (a *Archive) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, "gs://"+a.bucket+"/"+archivePrefix) {
		return nil, fmt.Errorf("Fetch: %s is not a report in bucket %s", uri, a.bucket)
	}
	data, err := a.store.FetchFromGCS(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}
	return data, nil
}

// Cleanup deletes archived reports created before now minus retention.
// It returns the number of deleted objects.
func (a *Archive) Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("Cleanup: retention must be positive")
	}
	log := logger.FromContext(ctx)
	cutoff := now.Add(-retention)

	objects, err := a.store.List(ctx, a.bucket, archivePrefix)
	if err != nil {
		return 0, fmt.Errorf("Cleanup: %w", err)
	}

	deleted := 0
	for _, obj := range objects {
		if !isArchive(obj.Name) || !obj.Created.Before(cutoff) {
			continue
		}
		if err := a.store.Delete(ctx, a.bucket, obj.Name); err != nil {
			return deleted, fmt.Errorf("Cleanup: %w", err)
		}
		deleted++
		log.Debug().Str("object", obj.Name).Time("created", obj.Created).Msg("Deleted report archive")
	}

	log.Info().Int("deleted", deleted).Dur("retention", retention).Msg("Report archive cleanup finished")
	return deleted, nil
}

func isArchive(name string) bool {
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".zip")
}
