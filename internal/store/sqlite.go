package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS triage_jobs (
	id           TEXT PRIMARY KEY,
	disease_id   TEXT NOT NULL,
	disease_name TEXT NOT NULL,
	genes        TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	progress     INTEGER NOT NULL DEFAULT 0,
	current_gene TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS target_reports (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL DEFAULT '',
	symbol     TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS triage_reports (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL UNIQUE REFERENCES triage_jobs(id),
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_triage_jobs_status ON triage_jobs(status);
CREATE INDEX IF NOT EXISTS idx_target_reports_job_id ON target_reports(job_id);
CREATE INDEX IF NOT EXISTS idx_target_reports_symbol ON target_reports(symbol);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, diseaseID, diseaseName string, genes []string) (*model.TriageJob, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal genes")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO triage_jobs (id, disease_id, disease_name, genes, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.DiseaseID, job.DiseaseName, string(genesJSON), string(job.Status), job.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create job")
	}
	return job, nil
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE triage_jobs SET status = ? WHERE id = ?`,
		string(status), jobID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update job status")
	}
	return requireRow(res, "sqlite: update job status")
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, jobID string, progress int, currentGene string) error {
	// Progress is monotonic: a lower value never overwrites a higher one.
	res, err := s.db.ExecContext(ctx,
		`UPDATE triage_jobs
		 SET progress = CASE WHEN ? > progress THEN ? ELSE progress END,
		     current_gene = ?
		 WHERE id = ?`,
		progress, progress, currentGene, jobID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update job progress")
	}
	return requireRow(res, "sqlite: update job progress")
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	progress := 0
	if status == model.JobCompleted {
		progress = 100
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE triage_jobs
		 SET status = ?,
		     error = ?,
		     progress = CASE WHEN ? > progress THEN ? ELSE progress END,
		     current_gene = '',
		     completed_at = datetime('now')
		 WHERE id = ?`,
		string(status), errMsg, progress, progress, jobID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: complete job")
	}
	return requireRow(res, "sqlite: complete job")
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.TriageJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, disease_id, disease_name, genes, status, progress, current_gene, error, started_at, completed_at
		 FROM triage_jobs WHERE id = ?`, jobID)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.TriageJob, error) {
	query := `SELECT id, disease_id, disease_name, genes, status, progress, current_gene, error, started_at, completed_at
	          FROM triage_jobs`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.TriageJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.TriageJob, error) {
	var job model.TriageJob
	var genesJSON, status string
	var completedAt sql.NullTime
	err := row.Scan(&job.ID, &job.DiseaseID, &job.DiseaseName, &genesJSON, &status,
		&job.Progress, &job.CurrentGene, &job.Error, &job.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}
	if err := json.Unmarshal([]byte(genesJSON), &job.Genes); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal genes")
	}
	job.Status = model.JobStatus(status)
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

func (s *SQLiteStore) CreateTargetReport(ctx context.Context, report *model.TargetReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	doc, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal target report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO target_reports (id, job_id, symbol, verdict, report, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.JobID, report.Target.Symbol, string(report.Decision.Verdict), string(doc), report.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: create target report")
}

func (s *SQLiteStore) GetTargetReport(ctx context.Context, reportID string) (*model.TargetReport, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM target_reports WHERE id = ?`, reportID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get target report")
	}

	var report model.TargetReport
	if err := json.Unmarshal([]byte(doc), &report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal target report")
	}
	return &report, nil
}

func (s *SQLiteStore) ListTargetReports(ctx context.Context, jobID string) ([]model.TargetReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT report FROM target_reports WHERE job_id = ? ORDER BY created_at`, jobID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list target reports")
	}
	defer rows.Close()

	var reports []model.TargetReport
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan target report")
		}
		var report model.TargetReport
		if err := json.Unmarshal([]byte(doc), &report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal target report")
		}
		reports = append(reports, report)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list target reports")
}

func (s *SQLiteStore) CreateTriageReport(ctx context.Context, report *model.TriageReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	doc, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal triage report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO triage_reports (id, job_id, report, created_at) VALUES (?, ?, ?, ?)`,
		report.ID, report.JobID, string(doc), report.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: create triage report")
}

func (s *SQLiteStore) GetTriageReport(ctx context.Context, jobID string) (*model.TriageReport, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM triage_reports WHERE job_id = ?`, jobID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get triage report")
	}

	var report model.TriageReport
	if err := json.Unmarshal([]byte(doc), &report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal triage report")
	}
	return &report, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, op)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
