// Package redisstore persists report job state in Redis so job history
// survives API and worker restarts.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/savings-coach/internal/jobs"
	"github.com/redis/go-redis/v9"
)

const indexKey = "jobs:index"

// Store is a Redis-backed jobs.JobStore. Each job is a JSON value with a TTL;
// a sorted set scored by creation time indexes them.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a store. ttl bounds how long finished and pending jobs are kept.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// jobKey generates the Redis key for a job.
func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// SaveJob implements jobs.JobStore.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ReportJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, jobKey(job.JobID), data, s.ttl)
	pipe.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(job.CreatedAt.UnixMilli()),
		Member: job.JobID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store job: %w", err)
	}
	return nil
}

// GetJob implements jobs.JobStore. It returns nil for unknown or expired jobs.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ReportJob, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return decode(data)
}

// ListJobs implements jobs.JobStore. Expired jobs are pruned from the index.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ReportJob, error) {
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read job index: %w", err)
	}
	if len(ids) == 0 {
		return []*jobs.ReportJob{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	var (
		result  []*jobs.ReportJob
		expired []interface{}
	)
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		job, err := decode(raw)
		if err != nil {
			return nil, err
		}
		if filter.Matches(job) {
			result = append(result, job)
		}
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, indexKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune job index: %w", err)
		}
	}
	return filter.Page(result), nil
}

// UpdateJobStatus implements jobs.JobStore.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return s.SaveJob(ctx, job)
}

func decode(data string) (*jobs.ReportJob, error) {
	var job jobs.ReportJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

var _ jobs.JobStore = (*Store)(nil)
