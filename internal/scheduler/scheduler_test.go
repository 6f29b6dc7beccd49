package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dvloznov/savings-coach/internal/jobs"
	"github.com/rs/zerolog"
)

type mockPublisher struct {
	published []*jobs.ReportJob
	err       error
}

func (m *mockPublisher) PublishReport(ctx context.Context, job *jobs.ReportJob) error {
	if m.err != nil {
		return m.err
	}
	job.JobID = "job-" + job.ReportType
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockCleaner struct {
	retention time.Duration
	now       time.Time
	deleted   int
}

func (m *mockCleaner) Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int, error) {
	m.retention, m.now = retention, now
	return m.deleted, nil
}

func testConfig() Config {
	return Config{
		ReportSpec:  "0 3 * * *",
		CleanupSpec: "30 3 * * *",
		ReportTypes: []string{"goals", "engagement"},
		Bucket:      "analytics",
		Retention:   48 * time.Hour,
	}
}

func TestPublishReports(t *testing.T) {
	pub := &mockPublisher{}
	s := New(testConfig(), pub, nil, zerolog.New(io.Discard))

	if err := s.PublishReports(context.Background()); err != nil {
		t.Fatalf("PublishReports() error = %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("published %d jobs, want 2", len(pub.published))
	}
	for i, rt := range []string{"goals", "engagement"} {
		job := pub.published[i]
		if job.ReportType != rt || job.Bucket != "analytics" || job.RequestedBy != "scheduler" {
			t.Errorf("job[%d] = %+v", i, job)
		}
	}

	failing := New(testConfig(), &mockPublisher{err: errors.New("queue is closed")}, nil, zerolog.New(io.Discard))
	if err := failing.PublishReports(context.Background()); err == nil {
		t.Error("PublishReports() expected error")
	}
}

func TestCleanupArchives(t *testing.T) {
	now := time.Date(2024, 1, 17, 3, 30, 0, 0, time.UTC)
	cleaner := &mockCleaner{deleted: 5}
	s := New(testConfig(), &mockPublisher{}, cleaner, zerolog.New(io.Discard))
	s.now = func() time.Time { return now }

	n, err := s.CleanupArchives(context.Background())
	if err != nil {
		t.Fatalf("CleanupArchives() error = %v", err)
	}
	if n != 5 || cleaner.retention != 48*time.Hour || !cleaner.now.Equal(now) {
		t.Errorf("CleanupArchives() = %d, cleaner saw retention=%v now=%v", n, cleaner.retention, cleaner.now)
	}

	noop := New(testConfig(), &mockPublisher{}, nil, zerolog.New(io.Discard))
	if n, err := noop.CleanupArchives(context.Background()); n != 0 || err != nil {
		t.Errorf("CleanupArchives() without cleaner = %d, %v", n, err)
	}
}

func TestStart(t *testing.T) {
	s := New(testConfig(), &mockPublisher{}, &mockCleaner{}, zerolog.New(io.Discard))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("cron entries = %d, want 2", got)
	}
	s.Stop()

	cfg := testConfig()
	cfg.ReportSpec = "not a cron spec"
	if err := New(cfg, &mockPublisher{}, nil, zerolog.New(io.Discard)).Start(); err == nil {
		t.Error("Start() with invalid spec expected error")
	}
}
