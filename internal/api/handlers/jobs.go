package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dvloznov/savings-coach/internal/api/middleware"
	"github.com/dvloznov/savings-coach/internal/jobs"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/reports"
)

// ReportsHandler enqueues report export jobs.
type ReportsHandler struct {
	publisher jobs.Publisher
	bucket    string
}

// NewReportsHandler creates a new reports handler. bucket is the default
// archive bucket for jobs that do not name one.
func NewReportsHandler(publisher jobs.Publisher, bucket string) *ReportsHandler {
	return &ReportsHandler{publisher: publisher, bucket: bucket}
}

// EnqueueReport handles POST /api/reports
func (h *ReportsHandler) EnqueueReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportType  string `json:"report_type"`
		Bucket      string `json:"bucket"`
		RequestedBy string `json:"requested_by"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rt, err := reports.ParseType(req.ReportType)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = h.bucket
	}

	ctx := r.Context()
	job := &jobs.ReportJob{
		ReportType:  string(rt),
		Bucket:      bucket,
		RequestedBy: req.RequestedBy,
	}
	if err := h.publisher.PublishReport(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to enqueue report job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue report job")
		return
	}

	log := logger.FromContext(ctx)

	log.Info().Str("job_id", job.JobID).Str("report_type", job.ReportType).Msg("Report job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"report_type": job.ReportType,
		"status":      string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	if job == nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		ReportType: query.Get("report_type"),
		Status:     jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
