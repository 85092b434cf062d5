// Package jobs defines the asynchronous report-generation job and the queue
// abstractions the API uses to keep slow work (report builds, the LLM
// parecer) off the request path.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeGenerateReport builds a report for one company and caches it.
	JobTypeGenerateReport JobType = "generate_report"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// GenerateReportJob asks the worker to rebuild a company's report from its
// transaction feed and persist it to the cache.
type GenerateReportJob struct {
	JobID string `json:"job_id"`

	// Empresa is the company the report belongs to.
	Empresa string `json:"empresa"`

	// Tipo is the report type: cache.TipoDRE or cache.TipoFluxo.
	Tipo string `json:"tipo"`

	// FeedPath points at the transaction feed to import.
	FeedPath string `json:"feed_path"`

	// WithParecer also requests the LLM narrative, which is the slow part
	// this queue exists for.
	WithParecer bool `json:"with_parecer"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *GenerateReportJob) GetID() string        { return j.JobID }
func (j *GenerateReportJob) GetType() JobType     { return JobTypeGenerateReport }
func (j *GenerateReportJob) GetStatus() JobStatus { return j.Status }

// Publisher publishes jobs to a queue. The abstraction allows swapping the
// in-memory queue for Cloud Tasks or Pub/Sub without touching handlers.
type Publisher interface {
	PublishGenerateReport(ctx context.Context, job *GenerateReportJob) error
	Close() error
}

// Consumer consumes jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; the handler is called for each one.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so the API can answer status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *GenerateReportJob) error
	GetJob(ctx context.Context, jobID string) (*GenerateReportJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*GenerateReportJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Empresa string
	Status  JobStatus
	Limit   int
	Offset  int
}
