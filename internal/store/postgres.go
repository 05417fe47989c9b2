package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool with JSONB documents.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// newPostgresWithPool wires an existing pool; used by tests.
func newPostgresWithPool(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS triage_jobs (
	id           TEXT PRIMARY KEY,
	disease_id   TEXT NOT NULL,
	disease_name TEXT NOT NULL,
	genes        JSONB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	progress     INTEGER NOT NULL DEFAULT 0,
	current_gene TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS target_reports (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL DEFAULT '',
	symbol     TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	report     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS triage_reports (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL UNIQUE REFERENCES triage_jobs(id),
	report     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_triage_jobs_status ON triage_jobs(status);
CREATE INDEX IF NOT EXISTS idx_target_reports_job_id ON target_reports(job_id);
CREATE INDEX IF NOT EXISTS idx_target_reports_symbol ON target_reports(symbol);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, diseaseID, diseaseName string, genes []string) (*model.TriageJob, error) {
	job := &model.TriageJob{
		ID:          uuid.NewString(),
		DiseaseID:   diseaseID,
		DiseaseName: diseaseName,
		Genes:       genes,
		Status:      model.JobPending,
		StartedAt:   time.Now().UTC(),
	}

	genesJSON, err := json.Marshal(genes)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal genes")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO triage_jobs (id, disease_id, disease_name, genes, status, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		job.ID, job.DiseaseID, job.DiseaseName, genesJSON, string(job.Status), job.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create job")
	}
	return job, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE triage_jobs SET status = $1 WHERE id = $2`,
		string(status), jobID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update job status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateJobProgress(ctx context.Context, jobID string, progress int, currentGene string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE triage_jobs SET progress = GREATEST(progress, $1), current_gene = $2 WHERE id = $3`,
		progress, currentGene, jobID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update job progress")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	progress := 0
	if status == model.JobCompleted {
		progress = 100
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE triage_jobs
		 SET status = $1, error = $2, progress = GREATEST(progress, $3), current_gene = '', completed_at = now()
		 WHERE id = $4`,
		string(status), errMsg, progress, jobID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: complete job")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.TriageJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, disease_id, disease_name, genes, status, progress, current_gene, error, started_at, completed_at
		 FROM triage_jobs WHERE id = $1`, jobID)
	return scanPgJob(row)
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.TriageJob, error) {
	query := `SELECT id, disease_id, disease_name, genes, status, progress, current_gene, error, started_at, completed_at
	          FROM triage_jobs`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		if len(args) == 0 {
			query += ` LIMIT $1`
		} else {
			query += ` LIMIT $2`
		}
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.TriageJob
	for rows.Next() {
		job, err := scanPgJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs")
}

func scanPgJob(row pgx.Row) (*model.TriageJob, error) {
	var job model.TriageJob
	var genesJSON []byte
	var status string
	var completedAt *time.Time
	err := row.Scan(&job.ID, &job.DiseaseID, &job.DiseaseName, &genesJSON, &status,
		&job.Progress, &job.CurrentGene, &job.Error, &job.StartedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan job")
	}
	if err := json.Unmarshal(genesJSON, &job.Genes); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal genes")
	}
	job.Status = model.JobStatus(status)
	job.CompletedAt = completedAt
	return &job, nil
}

func (s *PostgresStore) CreateTargetReport(ctx context.Context, report *model.TargetReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	doc, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal target report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO target_reports (id, job_id, symbol, verdict, report, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		report.ID, report.JobID, report.Target.Symbol, string(report.Decision.Verdict), doc, report.CreatedAt,
	)
	return eris.Wrap(err, "postgres: create target report")
}

func (s *PostgresStore) GetTargetReport(ctx context.Context, reportID string) (*model.TargetReport, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM target_reports WHERE id = $1`, reportID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get target report")
	}

	var report model.TargetReport
	if err := json.Unmarshal(doc, &report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal target report")
	}
	return &report, nil
}

func (s *PostgresStore) ListTargetReports(ctx context.Context, jobID string) ([]model.TargetReport, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT report FROM target_reports WHERE job_id = $1 ORDER BY created_at`, jobID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list target reports")
	}
	defer rows.Close()

	var reports []model.TargetReport
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan target report")
		}
		var report model.TargetReport
		if err := json.Unmarshal(doc, &report); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal target report")
		}
		reports = append(reports, report)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list target reports")
}

func (s *PostgresStore) CreateTriageReport(ctx context.Context, report *model.TriageReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	doc, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal triage report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO triage_reports (id, job_id, report, created_at) VALUES ($1, $2, $3, $4)`,
		report.ID, report.JobID, doc, report.CreatedAt,
	)
	return eris.Wrap(err, "postgres: create triage report")
}

func (s *PostgresStore) GetTriageReport(ctx context.Context, jobID string) (*model.TriageReport, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM triage_reports WHERE job_id = $1`, jobID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get triage report")
	}

	var report model.TriageReport
	if err := json.Unmarshal(doc, &report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal triage report")
	}
	return &report, nil
}
