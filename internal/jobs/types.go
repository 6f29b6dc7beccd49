// Package jobs defines report export jobs and the queue and store
// contracts that run and track them.
package jobs

import (
	"context"
	"time"
)

// JobType names the kind of work a job carries.
type JobType string

// JobTypeExportReport builds a CSV report and archives it.
const JobTypeExportReport JobType = "export_report"

// JobStatus is a job's position in its lifecycle:
// pending -> running -> completed | retrying -> pending ... -> failed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ReportJob requests one report export. The queue fills in ID, status and
// timestamps; the handler fills in the result fields.
type ReportJob struct {
	JobID       string `json:"job_id"`
	ReportType  string `json:"report_type"`            // "goals" or "engagement"
	Bucket      string `json:"bucket"`                 // archive bucket, empty skips archiving
	RequestedBy string `json:"requested_by,omitempty"` // caller name or "scheduler"

	// Result
	ResultURI string `json:"result_uri,omitempty"`
	Rows      int    `json:"rows"`
	Skipped   int    `json:"skipped"` // goals whose metrics failed

	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Job is what a JobHandler receives.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ReportJob) GetID() string        { return j.JobID }
func (j *ReportJob) GetType() JobType     { return JobTypeExportReport }
func (j *ReportJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs.
type Publisher interface {
	PublishReport(ctx context.Context, job *ReportJob) error
	Close() error
}

// Consumer runs a handler over queued jobs until stopped. Stop waits for
// in-flight jobs or for ctx to expire.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the attempt failed
// and lets the queue retry it.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps job state so it can be listed through the API.
// GetJob returns nil without an error for unknown IDs.
type JobStore interface {
	SaveJob(ctx context.Context, job *ReportJob) error
	GetJob(ctx context.Context, jobID string) (*ReportJob, error)
	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ReportJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter selects jobs for ListJobs. Zero values match everything.
type JobFilter struct {
	ReportType string
	Status     JobStatus
	Limit      int
	Offset     int
}

// Matches reports whether job passes the filter's field conditions.
func (f JobFilter) Matches(job *ReportJob) bool {
	if f.ReportType != "" && job.ReportType != f.ReportType {
		return false
	}
	if f.Status != "" && job.Status != f.Status {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already filtered, ordered slice.
func (f JobFilter) Page(list []*ReportJob) []*ReportJob {
	if f.Offset > 0 {
		if f.Offset >= len(list) {
			return []*ReportJob{}
		}
		list = list[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(list) {
		list = list[:f.Limit]
	}
	return list
}
