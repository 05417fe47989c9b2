package scoring

import (
	"sort"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// Genetic-evidence weights over the association sub-scores.
const (
	weightGeneticAssociation = 0.50
	weightSomaticMutation    = 0.15
	weightLiterature         = 0.15
	weightAnimalModel        = 0.10
	weightAffectedPathway    = 0.10
)

// Tractability modality weights and supporting-category caps.
const (
	weightSmallMolecule = 0.5
	weightAntibody      = 0.3
	weightProtac        = 0.1
	weightOtherModality = 0.1

	capSmallMolecule = 3
	capAntibody      = 2
	capOtherModality = 2
)

// Per-severity safety risk weights, with multipliers for evidence-backed
// and investigated signals.
var severityWeight = map[model.Severity]float64{
	model.SeverityCritical:      0.40,
	model.SeverityHigh:          0.25,
	model.SeverityModerate:      0.10,
	model.SeverityLow:           0.03,
	model.SeverityInformational: 0.01,
}

const (
	evidenceMultiplier      = 1.10
	investigationMultiplier = 1.05
)

// Composite weights. Safety and competition are inverted: lower risk and
// less competition are better.
const (
	compositeGenetic      = 0.35
	compositeTractability = 0.25
	compositeSafety       = 0.25
	compositeCompetitive  = 0.15
)

// Score converts normalized evidence into the four component scores plus
// the composite. Pure and side-effect free; inputs outside [0,1] are
// clamped rather than propagated.
func Score(assoc model.AssociationScore, tract model.Tractability, signals []model.SafetySignal, landscape *model.CompetitorLandscape) model.TargetScores {
	scores := model.TargetScores{
		GeneticEvidence:      geneticEvidence(assoc),
		Tractability:         tractability(tract),
		SafetyRisk:           safetyRisk(signals),
		CompetitiveLandscape: competitive(landscape),
	}
	scores.CompositeScore = clamp01(
		compositeGenetic*scores.GeneticEvidence +
			compositeTractability*scores.Tractability +
			compositeSafety*(1-scores.SafetyRisk) +
			compositeCompetitive*(1-scores.CompetitiveLandscape),
	)
	return scores
}

func geneticEvidence(assoc model.AssociationScore) float64 {
	return clamp01(
		weightGeneticAssociation*clamp01(assoc.GeneticAssociation) +
			weightSomaticMutation*clamp01(assoc.SomaticMutation) +
			weightLiterature*clamp01(assoc.Literature) +
			weightAnimalModel*clamp01(assoc.AnimalModel) +
			weightAffectedPathway*clamp01(assoc.AffectedPathway),
	)
}

func tractability(t model.Tractability) float64 {
	protac := 0.0
	if t.Protac.Assessed {
		protac = 1.0
	}
	return clamp01(
		weightSmallMolecule*modalityScore(t.SmallMolecule, capSmallMolecule) +
			weightAntibody*modalityScore(t.Antibody, capAntibody) +
			weightProtac*protac +
			weightOtherModality*modalityScore(t.Other, capOtherModality),
	)
}

// modalityScore scales an assessed modality by its supporting-category
// count against the modality cap. Unassessed modalities score zero, never
// negative: absence of assessment is not evidence of untractability.
func modalityScore(m model.Modality, categoryCap int) float64 {
	if !m.Assessed {
		return 0
	}
	score := float64(len(m.Categories)) / float64(categoryCap)
	if score > 1 {
		score = 1
	}
	return score
}

func safetyRisk(signals []model.SafetySignal) float64 {
	risk := 0.0
	for _, sig := range signals {
		w := severityWeight[sig.Severity]
		if len(sig.Evidence) > 0 {
			w *= evidenceMultiplier
		}
		if sig.InvestigationSummary != "" {
			w *= investigationMultiplier
		}
		risk += w
	}
	return clamp01(risk)
}

func competitive(landscape *model.CompetitorLandscape) float64 {
	if landscape == nil || landscape.TotalTrials == 0 {
		return 0
	}
	return clamp01(landscape.RiskScore)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rating is the qualitative interpretation of a composite score.
type Rating string

const (
	RatingExcellent Rating = "EXCELLENT"
	RatingGood      Rating = "GOOD"
	RatingModerate  Rating = "MODERATE"
	RatingPoor      Rating = "POOR"
)

// Interpret buckets a composite score (cutoffs 0.7 / 0.5 / 0.3).
func Interpret(composite float64) Rating {
	switch {
	case composite >= 0.7:
		return RatingExcellent
	case composite >= 0.5:
		return RatingGood
	case composite >= 0.3:
		return RatingModerate
	default:
		return RatingPoor
	}
}

// Compare orders two score sets by composite: -1 if a < b, 0 if equal,
// +1 if a > b.
func Compare(a, b model.TargetScores) int {
	switch {
	case a.CompositeScore < b.CompositeScore:
		return -1
	case a.CompositeScore > b.CompositeScore:
		return 1
	default:
		return 0
	}
}

// Tier is a batch ranking bucket.
type Tier string

const (
	TierTop Tier = "TOP"
	TierMid Tier = "MID"
	TierLow Tier = "LOW"
)

// TierFor buckets a composite score (cutoffs 0.6 / 0.3).
func TierFor(composite float64) Tier {
	switch {
	case composite >= 0.6:
		return TierTop
	case composite >= 0.3:
		return TierMid
	default:
		return TierLow
	}
}

// Ranked is one entry of a batch ranking.
type Ranked struct {
	Symbol string             `json:"symbol"`
	Scores model.TargetScores `json:"scores"`
	Tier   Tier               `json:"tier"`
}

// Rank orders a batch of scored targets descending by composite (symbol
// breaks ties so output is deterministic) and assigns tiers.
func Rank(targets map[string]model.TargetScores) []Ranked {
	ranked := make([]Ranked, 0, len(targets))
	for symbol, scores := range targets {
		ranked = append(ranked, Ranked{
			Symbol: symbol,
			Scores: scores,
			Tier:   TierFor(scores.CompositeScore),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Scores.CompositeScore != ranked[j].Scores.CompositeScore {
			return ranked[i].Scores.CompositeScore > ranked[j].Scores.CompositeScore
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	return ranked
}
