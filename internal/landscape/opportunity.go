package landscape

import "github.com/meridian-bio/triage-cli/internal/model"

// Fixed deltas applied to the neutral opportunity baseline of 50.
const (
	opportunityBaseline = 50

	deltaNoActiveCompetitors   = +15
	deltaCrowdedField          = -10 // three or more active competitors
	deltaLateStageCompetitor   = -15
	deltaFailureRiskHigh       = -20
	deltaFailureRiskModerate   = -10
	deltaPerSafetyFailure      = -5
	maxSafetyFailurePenalty    = -15
	deltaCleanCompletedHistory = +10
)

// scoreOpportunity rates the market opportunity for a landscape. Starts
// from a neutral 50 and applies fixed deltas, then maps the result to a
// rating bucket (>=70 HIGH, >=50 MODERATE, >=30 LOW, else VERY_LOW).
func scoreOpportunity(l model.CompetitorLandscape, fa model.FailureAnalysis, competitors []model.Competitor) model.MarketOpportunity {
	score := opportunityBaseline

	if len(competitors) == 0 {
		score += deltaNoActiveCompetitors
	} else if len(competitors) >= 3 {
		score += deltaCrowdedField
	}

	for _, c := range competitors {
		if c.LateStage {
			score += deltaLateStageCompetitor
			break
		}
	}

	switch fa.RiskLevel {
	case model.FailureRiskHigh:
		score += deltaFailureRiskHigh
	case model.FailureRiskModerate:
		score += deltaFailureRiskModerate
	}

	safetyPenalty := deltaPerSafetyFailure * fa.ByCategory[model.FailureSafety]
	if safetyPenalty < maxSafetyFailurePenalty {
		safetyPenalty = maxSafetyFailurePenalty
	}
	score += safetyPenalty

	if l.CompletedTrials > 0 && l.FailedTrials == 0 {
		score += deltaCleanCompletedHistory
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return model.MarketOpportunity{Score: score, Rating: rateOpportunity(score)}
}

func rateOpportunity(score int) model.OpportunityRating {
	switch {
	case score >= 70:
		return model.OpportunityHigh
	case score >= 50:
		return model.OpportunityModerate
	case score >= 30:
		return model.OpportunityLow
	default:
		return model.OpportunityVeryLow
	}
}
