package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-bio/triage-cli/internal/model"
)

func TestScore_GeneticOnly(t *testing.T) {
	assoc := model.AssociationScore{GeneticAssociation: 0.8}

	scores := Score(assoc, model.Tractability{}, nil, nil)

	assert.InDelta(t, 0.40, scores.GeneticEvidence, 0.001)
	assert.Equal(t, 0.0, scores.Tractability)
	assert.Equal(t, 0.0, scores.SafetyRisk)
	assert.Equal(t, 0.0, scores.CompetitiveLandscape)
	// 0.35*0.40 + 0.25*0 + 0.25*1 + 0.15*1
	assert.InDelta(t, 0.54, scores.CompositeScore, 0.001)
}

func TestScore_Deterministic(t *testing.T) {
	assoc := model.AssociationScore{GeneticAssociation: 0.7, Literature: 0.3, AnimalModel: 0.2}
	tract := model.Tractability{
		SmallMolecule: model.Modality{Assessed: true, Categories: []string{"clinical precedence", "discovery precedence"}},
	}
	signals := []model.SafetySignal{
		{SignalType: "hepatotoxicity", Severity: model.SeverityHigh},
	}
	landscape := &model.CompetitorLandscape{TotalTrials: 4, RiskScore: 0.3}

	first := Score(assoc, tract, signals, landscape)
	second := Score(assoc, tract, signals, landscape)
	assert.Equal(t, first, second)
}

func TestScore_ClampsOutOfRangeInputs(t *testing.T) {
	assoc := model.AssociationScore{GeneticAssociation: 3.0, Literature: -1.0}

	scores := Score(assoc, model.Tractability{}, nil, nil)

	assert.InDelta(t, 0.50, scores.GeneticEvidence, 0.001)
	assert.GreaterOrEqual(t, scores.CompositeScore, 0.0)
	assert.LessOrEqual(t, scores.CompositeScore, 1.0)
}

func TestScore_MonotonicInGenetics(t *testing.T) {
	low := Score(model.AssociationScore{GeneticAssociation: 0.2}, model.Tractability{}, nil, nil)
	high := Score(model.AssociationScore{GeneticAssociation: 0.9}, model.Tractability{}, nil, nil)
	assert.Greater(t, high.CompositeScore, low.CompositeScore)
}

func TestScore_MonotonicDecreasingInSafety(t *testing.T) {
	assoc := model.AssociationScore{GeneticAssociation: 0.5}
	clean := Score(assoc, model.Tractability{}, nil, nil)
	risky := Score(assoc, model.Tractability{}, []model.SafetySignal{
		{SignalType: "qt prolongation", Severity: model.SeverityCritical},
	}, nil)
	assert.Less(t, risky.CompositeScore, clean.CompositeScore)
}

func TestTractability_WeightsAndCaps(t *testing.T) {
	tract := model.Tractability{
		SmallMolecule: model.Modality{Assessed: true, Categories: []string{"a", "b", "c", "d", "e"}},
		Antibody:      model.Modality{Assessed: true, Categories: []string{"a"}},
		Protac:        model.Modality{Assessed: true},
		Other:         model.Modality{Assessed: true, Categories: []string{"a", "b"}},
	}
	// SM capped at 1.0, AB 1/2, PR assessed, OC 2/2.
	expected := 0.5*1.0 + 0.3*0.5 + 0.1*1.0 + 0.1*1.0
	assert.InDelta(t, expected, tractability(tract), 0.001)
}

func TestTractability_UnassessedScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, tractability(model.Tractability{}))
}

func TestSafetyRisk_SeverityWeights(t *testing.T) {
	signals := []model.SafetySignal{
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityModerate},
		{Severity: model.SeverityLow},
		{Severity: model.SeverityInformational},
	}
	assert.InDelta(t, 0.79, safetyRisk(signals), 0.001)
}

func TestSafetyRisk_EvidenceAndInvestigationMultipliers(t *testing.T) {
	bare := safetyRisk([]model.SafetySignal{{Severity: model.SeverityHigh}})

	backed := safetyRisk([]model.SafetySignal{{
		Severity: model.SeverityHigh,
		Evidence: []model.SafetyEvidence{{Type: model.EvidenceLiterature}},
	}})
	assert.InDelta(t, bare*1.10, backed, 0.001)

	investigated := safetyRisk([]model.SafetySignal{{
		Severity:             model.SeverityHigh,
		Evidence:             []model.SafetyEvidence{{Type: model.EvidenceLiterature}},
		InvestigationSummary: "Investigation added 1 evidence items: 1 literature.",
	}})
	assert.InDelta(t, bare*1.10*1.05, investigated, 0.001)
}

func TestSafetyRisk_ClampedAtOne(t *testing.T) {
	var signals []model.SafetySignal
	for i := 0; i < 5; i++ {
		signals = append(signals, model.SafetySignal{Severity: model.SeverityCritical})
	}
	assert.Equal(t, 1.0, safetyRisk(signals))
}

func TestCompetitive_NilAndZeroTrials(t *testing.T) {
	assert.Equal(t, 0.0, competitive(nil))
	assert.Equal(t, 0.0, competitive(&model.CompetitorLandscape{TotalTrials: 0, RiskScore: 0.8}))
}

func TestInterpret_Cutoffs(t *testing.T) {
	assert.Equal(t, RatingExcellent, Interpret(0.70))
	assert.Equal(t, RatingGood, Interpret(0.50))
	assert.Equal(t, RatingModerate, Interpret(0.30))
	assert.Equal(t, RatingPoor, Interpret(0.29))
}

func TestCompare(t *testing.T) {
	a := model.TargetScores{CompositeScore: 0.4}
	b := model.TargetScores{CompositeScore: 0.6}
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, a))
}

func TestRank_DeterministicWithTies(t *testing.T) {
	targets := map[string]model.TargetScores{
		"TP53": {CompositeScore: 0.62},
		"EGFR": {CompositeScore: 0.62},
		"KRAS": {CompositeScore: 0.81},
		"APOE": {CompositeScore: 0.15},
	}

	ranked := Rank(targets)

	assert.Equal(t, []string{"KRAS", "EGFR", "TP53", "APOE"},
		[]string{ranked[0].Symbol, ranked[1].Symbol, ranked[2].Symbol, ranked[3].Symbol})
	assert.Equal(t, TierTop, ranked[0].Tier)
	assert.Equal(t, TierTop, ranked[1].Tier)
	assert.Equal(t, TierLow, ranked[3].Tier)
}
