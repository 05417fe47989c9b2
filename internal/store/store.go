package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// JobFilter specifies criteria for listing jobs.
type JobFilter struct {
	Status model.JobStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for triage jobs and reports.
// Reports are append-only: they are written once and never updated.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, diseaseID, diseaseName string, genes []string) (*model.TriageJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error
	UpdateJobProgress(ctx context.Context, jobID string, progress int, currentGene string) error
	CompleteJob(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error
	GetJob(ctx context.Context, jobID string) (*model.TriageJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.TriageJob, error)

	// Target reports
	CreateTargetReport(ctx context.Context, report *model.TargetReport) error
	GetTargetReport(ctx context.Context, reportID string) (*model.TargetReport, error)
	ListTargetReports(ctx context.Context, jobID string) ([]model.TargetReport, error)

	// Triage reports
	CreateTriageReport(ctx context.Context, report *model.TriageReport) error
	GetTriageReport(ctx context.Context, jobID string) (*model.TriageReport, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
