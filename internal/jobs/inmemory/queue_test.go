package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvloznov/savings-coach/internal/jobs"
)

// waitForStatus polls the store until the job reaches status or the test times out.
func waitForStatus(t *testing.T, store *Store, jobID string, status jobs.JobStatus) *jobs.ReportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetJob() error = %v", err)
		}
		if job != nil && job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach status %s", jobID, status)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(4, 2, store)
	defer q.Close()

	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		rj := job.(*jobs.ReportJob)
		rj.ResultURI = "gs://bucket/reports/" + rj.ReportType + ".csv"
		return nil
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ReportJob{ReportType: "goals"}
	if err := q.PublishReport(ctx, job); err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}
	if job.JobID == "" || job.MaxRetries != DefaultMaxRetries {
		t.Errorf("PublishReport() did not apply defaults: %+v", job)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.ResultURI != "gs://bucket/reports/goals.csv" {
		t.Errorf("ResultURI = %q", done.ResultURI)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Error("expected StartedAt and CompletedAt to be set")
	}
}

func TestQueue_RetriesThenFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore()
	q := NewQueue(4, 1, store)
	q.backoff = time.Millisecond
	defer q.Close()

	var calls atomic.Int32
	if err := q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		calls.Add(1)
		return errors.New("bigquery unavailable")
	}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	job := &jobs.ReportJob{ReportType: "engagement", MaxRetries: 2}
	if err := q.PublishReport(ctx, job); err != nil {
		t.Fatalf("PublishReport() error = %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", failed.RetryCount)
	}
	if failed.Error != "bigquery unavailable" {
		t.Errorf("Error = %q", failed.Error)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("handler called %d times, want 3", got)
	}
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(1, 1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if err := q.PublishReport(context.Background(), &jobs.ReportJob{}); err == nil {
		t.Error("PublishReport() on closed queue expected error")
	}
	if err := q.Start(context.Background(), func(context.Context, jobs.Job) error { return nil }); err == nil {
		t.Error("Start() on closed queue expected error")
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, rt := range []string{"goals", "engagement", "goals"} {
		job := &jobs.ReportJob{
			JobID:      string(rune('a' + i)),
			ReportType: rt,
			Status:     jobs.JobStatusPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if err := s.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob() error = %v", err)
		}
	}
	if err := s.SaveJob(ctx, &jobs.ReportJob{}); err == nil {
		t.Error("SaveJob() without ID expected error")
	}

	if job, err := s.GetJob(ctx, "missing"); err != nil || job != nil {
		t.Errorf("GetJob(missing) = %v, %v; want nil, nil", job, err)
	}

	if err := s.UpdateJobStatus(ctx, "b", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	if err := s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("UpdateJobStatus(missing) expected error")
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "b", "a"}},
		{"by type", jobs.JobFilter{ReportType: "goals"}, []string{"c", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusFailed}, []string{"b"}},
		{"paged", jobs.JobFilter{Offset: 1, Limit: 1}, []string{"b"}},
		{"offset past end", jobs.JobFilter{Offset: 5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error = %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("ListJobs() returned %d jobs, want %d", len(list), len(tt.want))
			}
			for i, id := range tt.want {
				if list[i].JobID != id {
					t.Errorf("list[%d] = %s, want %s", i, list[i].JobID, id)
				}
			}
		})
	}
}
