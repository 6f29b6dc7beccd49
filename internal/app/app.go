// Package app wires repositories, stores and services from configuration.
// The API, worker and CLI binaries all build their dependencies here.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/savings-coach/internal/badges"
	"github.com/dvloznov/savings-coach/internal/coach"
	"github.com/dvloznov/savings-coach/internal/config"
	"github.com/dvloznov/savings-coach/internal/domain"
	"github.com/dvloznov/savings-coach/internal/gcs"
	"github.com/dvloznov/savings-coach/internal/gcsuploader"
	"github.com/dvloznov/savings-coach/internal/goals"
	bq "github.com/dvloznov/savings-coach/internal/infra/bigquery"
	"github.com/dvloznov/savings-coach/internal/infra/memory"
	"github.com/dvloznov/savings-coach/internal/jobs"
	"github.com/dvloznov/savings-coach/internal/jobs/inmemory"
	"github.com/dvloznov/savings-coach/internal/jobs/redisstore"
	"github.com/dvloznov/savings-coach/internal/reports"
	"github.com/dvloznov/savings-coach/internal/scheduler"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config   *config.Config
	Goals    domain.GoalRepository
	Badges   domain.BadgeRepository
	Service  *goals.Service
	JobStore jobs.JobStore
	Exporter *reports.Exporter

	// Storage is nil when no bucket is configured.
	Storage gcs.StorageService

	log     zerolog.Logger
	closers []func() error
}

// New builds an App. BigQuery backs the repositories when a project is
// configured, otherwise goals live in memory with the badge catalog seeded
// from config. Redis backs the job store when an address is configured.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	if cfg.UseBigQuery() {
		client, err := bq.NewClient(ctx, cfg.BigQuery.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Goals = bq.NewBigQueryGoalRepository(client, cfg.BigQuery.Dataset)
		a.Badges = bq.NewBigQueryBadgeRepository(client, cfg.BigQuery.Dataset)
		log.Info().
			Str("project_id", cfg.BigQuery.ProjectID).
			Str("dataset", cfg.BigQuery.Dataset).
			Msg("Using BigQuery repositories")
	} else {
		a.Goals = memory.NewGoalRepository()
		a.Badges = memory.NewBadgeRepository(badges.Catalog(cfg.Badges)...)
		log.Warn().Msg("No BigQuery project configured, using in-memory repositories")
	}

	a.Service = goals.NewService(a.Goals, a.Badges, badges.NewAwarder(a.Badges, cfg.Badges))
	a.Service.SetPrototypes(cfg.GoalPrototypes())
	a.Exporter = reports.NewExporter(a.Goals, cfg.Reports.Workers, cfg.Reports.Timeout)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			_ = a.Close()
			return nil, fmt.Errorf("New: ping redis %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.JobStore = redisstore.NewStore(rdb, cfg.Redis.JobTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis job store")
	} else {
		a.JobStore = inmemory.NewStore()
	}

	if cfg.Storage.Bucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("New: create storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Storage = gcsuploader.NewGCSStorageService(client)
	}

	return a, nil
}

// Archive returns the report archive for bucket, or nil when storage is
// not configured or bucket is empty.
func (a *App) Archive(bucket string) *reports.Archive {
	if a.Storage == nil || bucket == "" {
		return nil
	}
	return reports.NewArchive(a.Storage, bucket)
}

// NewScheduler builds the nightly report scheduler publishing to publisher.
// Archive cleanup is only scheduled when a bucket is configured.
func (a *App) NewScheduler(publisher jobs.Publisher) *scheduler.Scheduler {
	var cleaner scheduler.Cleaner
	if archive := a.Archive(a.Config.Storage.Bucket); archive != nil {
		cleaner = archive
	}
	return scheduler.New(scheduler.Config{
		ReportSpec:  a.Config.Scheduler.ReportSpec,
		CleanupSpec: a.Config.Scheduler.CleanupSpec,
		ReportTypes: a.Config.Reports.Types,
		Bucket:      a.Config.Storage.Bucket,
		Retention:   a.Config.Storage.Retention,
	}, publisher, cleaner, a.log)
}

// NewCoach returns a Gemini-backed coach, or nil when coaching is disabled.
func (a *App) NewCoach(ctx context.Context) (*coach.Coach, error) {
	if !a.Config.Coach.Enabled {
		return nil, nil
	}
	gen, err := coach.NewGeminiGenerator(ctx, a.Config.Coach.Model)
	if err != nil {
		return nil, fmt.Errorf("NewCoach: %w", err)
	}
	return coach.New(gen), nil
}

// HandleJob is the jobs.JobHandler for report export jobs. It builds the
// report and, when the job names a bucket and storage is configured,
// archives it and records the URI on the job.
func (a *App) HandleJob(ctx context.Context, job jobs.Job) error {
	reportJob, ok := job.(*jobs.ReportJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	t, err := reports.ParseType(reportJob.ReportType)
	if err != nil {
		return fmt.Errorf("HandleJob: %w", err)
	}

	report, err := a.Exporter.Export(ctx, t)
	if err != nil {
		return fmt.Errorf("HandleJob: %w", err)
	}
	reportJob.Rows = report.Stats.Rows
	reportJob.Skipped = report.Stats.Skipped

	archive := a.Archive(reportJob.Bucket)
	if archive == nil {
		a.log.Warn().
			Str("job_id", reportJob.JobID).
			Str("bucket", reportJob.Bucket).
			Msg("Storage not configured, report not archived")
		return nil
	}

	uri, err := archive.Publish(ctx, report)
	if err != nil {
		return fmt.Errorf("HandleJob: %w", err)
	}
	reportJob.ResultURI = uri
	return nil
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
