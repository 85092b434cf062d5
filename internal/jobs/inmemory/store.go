package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/agrofin/internal/jobs"
)

// Store is an in-memory JobStore. Data is lost on restart; job status only
// matters within one API process lifetime here.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.GenerateReportJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.GenerateReportJob),
	}
}

// SaveJob saves or updates a job. Stored as a copy so callers can keep
// mutating their instance.
func (s *Store) SaveJob(_ context.Context, job *jobs.GenerateReportJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(_ context.Context, jobID string) (*jobs.GenerateReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs retrieves jobs matching the filter.
func (s *Store) ListJobs(_ context.Context, filter jobs.JobFilter) ([]*jobs.GenerateReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.GenerateReportJob

	for _, job := range s.jobs {
		if filter.Empresa != "" && job.Empresa != filter.Empresa {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}

		jobCopy := *job
		result = append(result, &jobCopy)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.GenerateReportJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// UpdateJobStatus updates the status of a job.
func (s *Store) UpdateJobStatus(_ context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}

	return nil
}

var _ jobs.JobStore = (*Store)(nil)
