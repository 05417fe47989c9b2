package landscape

import (
	"strings"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// Stop-reason keyword lists, checked in order safety, efficacy, business.
// First match wins: safety concerns dominate ambiguous text. The safety
// list carries organ-toxicity markers so reasons like "elevated liver
// enzymes" categorize as safety.
var (
	safetyKeywords = []string{
		"safety", "toxic", "adverse", "serious", "death", "fatal",
		"liver", "hepato", "cardiac", "qt", "tolerab", "side effect",
		"dlt", "dose-limiting",
	}
	efficacyKeywords = []string{
		"efficacy", "futility", "ineffective", "no benefit",
		"lack of response", "endpoint", "did not meet", "insufficient activity",
	}
	businessKeywords = []string{
		"business", "funding", "financial", "sponsor decision", "strategic",
		"enrollment", "recruitment", "accrual", "commercial", "portfolio",
	}
)

// categorizeFailure buckets a trial stop reason. Absent or unmatched
// reasons are "other".
func categorizeFailure(reason string) model.FailureCategory {
	lower := strings.ToLower(reason)
	if lower == "" {
		return model.FailureOther
	}
	for _, kw := range safetyKeywords {
		if strings.Contains(lower, kw) {
			return model.FailureSafety
		}
	}
	for _, kw := range efficacyKeywords {
		if strings.Contains(lower, kw) {
			return model.FailureEfficacy
		}
	}
	for _, kw := range businessKeywords {
		if strings.Contains(lower, kw) {
			return model.FailureBusiness
		}
	}
	return model.FailureOther
}

// classifyFailureRisk rates the failure history. HIGH on clustered safety
// failures, repeated late-stage failures, or a long failure record.
func classifyFailureRisk(fa model.FailureAnalysis) model.FailureRiskLevel {
	switch {
	case fa.ByCategory[model.FailureSafety] >= 2,
		fa.LateStageFailures >= 2,
		fa.TotalFailures >= 5:
		return model.FailureRiskHigh
	case fa.TotalFailures >= 2,
		fa.ByCategory[model.FailureSafety] >= 1:
		return model.FailureRiskModerate
	default:
		return model.FailureRiskLow
	}
}
