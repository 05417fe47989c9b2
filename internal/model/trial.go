package model

import "time"

// TrialStatus is the registry status of a clinical trial.
type TrialStatus string

const (
	TrialRecruiting TrialStatus = "recruiting"
	TrialActive     TrialStatus = "active"
	TrialCompleted  TrialStatus = "completed"
	TrialTerminated TrialStatus = "terminated"
	TrialWithdrawn  TrialStatus = "withdrawn"
	TrialSuspended  TrialStatus = "suspended"
	TrialUnknown    TrialStatus = "unknown"
)

// ClinicalTrial is one registry entry for a target/disease pair.
// Phase is normalized to 1-4 at the client boundary; 0 means unknown.
type ClinicalTrial struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Phase          int         `json:"phase"`
	Status         TrialStatus `json:"status"`
	Sponsor        string      `json:"sponsor,omitempty"`
	StartDate      *time.Time  `json:"start_date,omitempty"`
	CompletionDate *time.Time  `json:"completion_date,omitempty"`
	FailureReason  string      `json:"failure_reason,omitempty"`
	URL            string      `json:"url,omitempty"`
}

// FailureCategory buckets a terminated/withdrawn trial's stop reason.
type FailureCategory string

const (
	FailureSafety   FailureCategory = "safety"
	FailureEfficacy FailureCategory = "efficacy"
	FailureBusiness FailureCategory = "business"
	FailureOther    FailureCategory = "other"
)

// FailureRiskLevel classifies the overall failure history.
type FailureRiskLevel string

const (
	FailureRiskHigh     FailureRiskLevel = "HIGH"
	FailureRiskModerate FailureRiskLevel = "MODERATE"
	FailureRiskLow      FailureRiskLevel = "LOW"
)

// CompetitorLandscape aggregates trial history for a target/disease pair.
type CompetitorLandscape struct {
	TargetSymbol    string                  `json:"target_symbol"`
	DiseaseID       string                  `json:"disease_id"`
	DiseaseName     string                  `json:"disease_name"`
	TotalTrials     int                     `json:"total_trials"`
	ActiveTrials    int                     `json:"active_trials"`
	CompletedTrials int                     `json:"completed_trials"`
	FailedTrials    int                     `json:"failed_trials"`
	FailureReasons  map[FailureCategory]int `json:"failure_reasons"`
	RiskScore       float64                 `json:"risk_score"`
	Summary         string                  `json:"summary"`
}

// FailureAnalysis is the categorized failure history behind a landscape.
type FailureAnalysis struct {
	TotalFailures     int                     `json:"total_failures"`
	ByCategory        map[FailureCategory]int `json:"by_category"`
	LateStageFailures int                     `json:"late_stage_failures"`
	RiskLevel         FailureRiskLevel        `json:"risk_level"`
}

// Competitor is a sponsor currently running trials against the same pair.
type Competitor struct {
	Sponsor      string `json:"sponsor"`
	ActiveTrials int    `json:"active_trials"`
	LateStage    bool   `json:"late_stage"`
}

// OpportunityRating is the market-opportunity bucket for a landscape.
type OpportunityRating string

const (
	OpportunityHigh     OpportunityRating = "HIGH"
	OpportunityModerate OpportunityRating = "MODERATE"
	OpportunityLow      OpportunityRating = "LOW"
	OpportunityVeryLow  OpportunityRating = "VERY_LOW"
)

// MarketOpportunity is the scored opportunity for a landscape.
type MarketOpportunity struct {
	Score  int               `json:"score"`
	Rating OpportunityRating `json:"rating"`
}
