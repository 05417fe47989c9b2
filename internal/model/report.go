package model

import "time"

// TargetScores holds the four component scores plus the composite, all in
// [0,1]. Composite is always recomputed from its inputs, never hand-edited.
type TargetScores struct {
	GeneticEvidence      float64 `json:"genetic_evidence"`
	Tractability         float64 `json:"tractability"`
	SafetyRisk           float64 `json:"safety_risk"`
	CompetitiveLandscape float64 `json:"competitive_landscape"`
	CompositeScore       float64 `json:"composite_score"`
}

// Verdict is the discrete triage outcome. Closed enum; only the decision
// engine produces one.
type Verdict string

const (
	VerdictGo                 Verdict = "GO"
	VerdictGoWithCaution      Verdict = "GO_WITH_CAUTION"
	VerdictInvestigateFurther Verdict = "INVESTIGATE_FURTHER"
	VerdictNoGo               Verdict = "NO_GO"
)

// Decision is the engine's full output for one target.
type Decision struct {
	Verdict            Verdict  `json:"verdict"`
	NoGoReasons        []string `json:"no_go_reasons,omitempty"`
	CautionFlags       []string `json:"caution_flags,omitempty"`
	InvestigationFlags []string `json:"investigation_flags,omitempty"`
	Recommendations    []string `json:"recommendations"`
}

// TargetReport is one target's full evidence snapshot, scores and verdict.
// Immutable after creation; re-analysis creates a new report.
type TargetReport struct {
	ID           string              `json:"id"`
	JobID        string              `json:"job_id,omitempty"`
	Target       TargetIdentity      `json:"target"`
	DiseaseID    string              `json:"disease_id"`
	DiseaseName  string              `json:"disease_name"`
	Association  AssociationScore    `json:"association"`
	Tractability Tractability        `json:"tractability"`
	Safety       SafetyProfile       `json:"safety"`
	Landscape    CompetitorLandscape `json:"landscape"`
	KnownDrugs   []KnownDrug         `json:"known_drugs,omitempty"`
	Scores       TargetScores        `json:"scores"`
	Decision     Decision            `json:"decision"`
	CreatedAt    time.Time           `json:"created_at"`
}

// JobStatus is the lifecycle state of a triage job. COMPLETED and FAILED
// are terminal.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// TriageJob is one batch request: a disease and an ordered gene list.
// Progress is 0-100 and monotonic non-decreasing.
type TriageJob struct {
	ID          string     `json:"id"`
	DiseaseID   string     `json:"disease_id"`
	DiseaseName string     `json:"disease_name"`
	Genes       []string   `json:"genes"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	CurrentGene string     `json:"current_gene,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RankedTarget is one entry in a report summary's top-targets list.
type RankedTarget struct {
	Symbol         string  `json:"symbol"`
	CompositeScore float64 `json:"composite_score"`
	Verdict        Verdict `json:"verdict"`
}

// ReportSummary rolls up verdict counts and the top targets of a job.
type ReportSummary struct {
	TotalTargets int             `json:"total_targets"`
	VerdictCount map[Verdict]int `json:"verdict_count"`
	TopTargets   []RankedTarget  `json:"top_targets"`
}

// TriageReport is the job-level rollup, created once at job completion.
type TriageReport struct {
	ID               string        `json:"id"`
	JobID            string        `json:"job_id"`
	ReportIDs        []string      `json:"report_ids"`
	Summary          ReportSummary `json:"summary"`
	ExecutiveSummary string        `json:"executive_summary,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}
