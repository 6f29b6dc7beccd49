// Package scheduler runs the nightly report exports and archive cleanup on a
// cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/savings-coach/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// runTimeout bounds a single scheduled run.
const runTimeout = 5 * time.Minute

// Cleaner removes expired report archives.
type Cleaner interface {
	Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int, error)
}

// Config holds schedules and job parameters.
type Config struct {
	ReportSpec  string   // cron expression for report exports
	CleanupSpec string   // cron expression for archive cleanup; empty disables it
	ReportTypes []string // report types published on each run
	Bucket      string
	Retention   time.Duration
}

// Scheduler publishes report jobs and prunes archives periodically.
type Scheduler struct {
	cfg       Config
	publisher jobs.Publisher
	cleaner   Cleaner
	cron      *cron.Cron
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a scheduler. cleaner may be nil when no bucket is configured.
func New(cfg Config, publisher jobs.Publisher, cleaner Cleaner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		publisher: publisher,
		cleaner:   cleaner,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		log:       log,
		now:       time.Now,
	}
}

// Start registers the cron entries and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.ReportSpec, s.runReports); err != nil {
		return fmt.Errorf("failed to add report cron job: %w", err)
	}
	if s.cfg.CleanupSpec != "" && s.cleaner != nil {
		if _, err := s.cron.AddFunc(s.cfg.CleanupSpec, s.runCleanup); err != nil {
			return fmt.Errorf("failed to add cleanup cron job: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info().
		Str("report_spec", s.cfg.ReportSpec).
		Str("cleanup_spec", s.cfg.CleanupSpec).
		Strs("report_types", s.cfg.ReportTypes).
		Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.log.Info().Msg("Stopping scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) runReports() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.PublishReports(ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduled report run failed")
	}
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.CleanupArchives(ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduled archive cleanup failed")
	}
}

// PublishReports enqueues one export job per configured report type.
func (s *Scheduler) PublishReports(ctx context.Context) error {
	for _, rt := range s.cfg.ReportTypes {
		job := &jobs.ReportJob{
			ReportType:  rt,
			Bucket:      s.cfg.Bucket,
			RequestedBy: "scheduler",
		}
		if err := s.publisher.PublishReport(ctx, job); err != nil {
			return fmt.Errorf("PublishReports: publishing %s: %w", rt, err)
		}
		s.log.Info().Str("job_id", job.JobID).Str("report_type", rt).Msg("Scheduled report job published")
	}
	return nil
}

// CleanupArchives deletes archives older than the retention period.
func (s *Scheduler) CleanupArchives(ctx context.Context) (int, error) {
	if s.cleaner == nil {
		return 0, nil
	}
	n, err := s.cleaner.Cleanup(ctx, s.cfg.Retention, s.now())
	if err != nil {
		return n, fmt.Errorf("CleanupArchives: %w", err)
	}
	return n, nil
}
