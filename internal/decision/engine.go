package decision

import (
	"fmt"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// No-go thresholds. Any one triggers an automatic NO_GO that
// short-circuits the rest of the pipeline.
const (
	noGoCriticalSignals = 2
	noGoHighSignals     = 4
	noGoSafetyRisk      = 0.9
	noGoGeneticFloor    = 0.05
)

// Verdict band cutoffs and override thresholds.
const (
	bandGo               = 0.65
	bandMid              = 0.45
	bandInvestigate      = 0.25
	borderlineLow        = 0.40
	borderlineHigh       = 0.50
	overrideSafetyRisk   = 0.5
	overrideInvFlagCount = 3
)

// Caution and investigation flag thresholds.
const (
	cautionSafetyRiskLow    = 0.5
	cautionCompetitiveHigh  = 0.7
	cautionTractabilityLow  = 0.25
	cautionGeneticLow       = 0.2
	conflictGeneticStrong   = 0.6
	conflictTractGood       = 0.6
	competitorSafetyCluster = 2
)

// Decide evaluates the ordered rule pipeline over scores, safety signals
// and the competitive landscape. Pure: identical inputs always produce an
// identical decision.
func Decide(scores model.TargetScores, signals []model.SafetySignal, landscape *model.CompetitorLandscape) model.Decision {
	counts := countSeverities(signals)

	// Rule 1: automatic NO_GO short-circuits everything else. No flags
	// are computed for a hard stop.
	if reasons := noGoReasons(scores, counts); len(reasons) > 0 {
		return model.Decision{
			Verdict:         model.VerdictNoGo,
			NoGoReasons:     reasons,
			Recommendations: recommend(model.VerdictNoGo, reasons, nil, nil, signals),
		}
	}

	caution := cautionFlags(scores, counts, landscape)
	investigation := investigationFlags(scores, signals)

	verdict := baseVerdict(scores.CompositeScore, caution, investigation)

	// Overrides applied after the base verdict.
	if verdict == model.VerdictGo && scores.SafetyRisk >= overrideSafetyRisk {
		verdict = model.VerdictGoWithCaution
	}
	if verdict == model.VerdictGoWithCaution && len(investigation) >= overrideInvFlagCount {
		verdict = model.VerdictInvestigateFurther
	}

	return model.Decision{
		Verdict:            verdict,
		CautionFlags:       caution,
		InvestigationFlags: investigation,
		Recommendations:    recommend(verdict, nil, caution, investigation, signals),
	}
}

type severityCounts struct {
	critical int
	high     int
	moderate int
}

func countSeverities(signals []model.SafetySignal) severityCounts {
	var c severityCounts
	for _, sig := range signals {
		switch sig.Severity {
		case model.SeverityCritical:
			c.critical++
		case model.SeverityHigh:
			c.high++
		case model.SeverityModerate:
			c.moderate++
		}
	}
	return c
}

func noGoReasons(scores model.TargetScores, counts severityCounts) []string {
	var reasons []string
	if counts.critical >= noGoCriticalSignals {
		reasons = append(reasons, fmt.Sprintf("%d CRITICAL safety signals", counts.critical))
	}
	if counts.high >= noGoHighSignals {
		reasons = append(reasons, fmt.Sprintf("%d HIGH safety signals", counts.high))
	}
	if scores.SafetyRisk >= noGoSafetyRisk {
		reasons = append(reasons, fmt.Sprintf("safety risk %.2f at or above hard limit %.2f", scores.SafetyRisk, noGoSafetyRisk))
	}
	if scores.GeneticEvidence < noGoGeneticFloor {
		reasons = append(reasons, fmt.Sprintf("genetic evidence %.2f below floor %.2f", scores.GeneticEvidence, noGoGeneticFloor))
	}
	return reasons
}

func cautionFlags(scores model.TargetScores, counts severityCounts, landscape *model.CompetitorLandscape) []string {
	var flags []string
	if counts.critical == 1 {
		flags = append(flags, "one CRITICAL safety signal")
	}
	if counts.high >= 2 && counts.high < noGoHighSignals {
		flags = append(flags, fmt.Sprintf("%d HIGH safety signals", counts.high))
	}
	if counts.moderate >= 5 {
		flags = append(flags, fmt.Sprintf("%d MODERATE safety signals", counts.moderate))
	}
	if scores.SafetyRisk >= cautionSafetyRiskLow && scores.SafetyRisk < noGoSafetyRisk {
		flags = append(flags, fmt.Sprintf("elevated safety risk (%.2f)", scores.SafetyRisk))
	}
	if scores.CompetitiveLandscape >= cautionCompetitiveHigh {
		flags = append(flags, fmt.Sprintf("highly competitive landscape (%.2f)", scores.CompetitiveLandscape))
	}
	if landscape != nil && landscape.FailureReasons[model.FailureSafety] >= competitorSafetyCluster {
		flags = append(flags, fmt.Sprintf("%d competitor trials failed on safety", landscape.FailureReasons[model.FailureSafety]))
	}
	if scores.Tractability > 0 && scores.Tractability < cautionTractabilityLow {
		flags = append(flags, fmt.Sprintf("borderline tractability (%.2f)", scores.Tractability))
	}
	if scores.GeneticEvidence >= noGoGeneticFloor && scores.GeneticEvidence < cautionGeneticLow {
		flags = append(flags, fmt.Sprintf("weak genetic evidence (%.2f)", scores.GeneticEvidence))
	}
	return flags
}

func investigationFlags(scores model.TargetScores, signals []model.SafetySignal) []string {
	var flags []string

	uninvestigated := 0
	for _, sig := range signals {
		if sig.Severity >= model.SeverityHigh && sig.InvestigationSummary == "" {
			uninvestigated++
		}
	}
	if uninvestigated > 0 {
		flags = append(flags, fmt.Sprintf("%d uninvestigated HIGH/CRITICAL safety signals", uninvestigated))
	}
	if scores.CompositeScore >= borderlineLow && scores.CompositeScore < borderlineHigh {
		flags = append(flags, fmt.Sprintf("borderline composite score (%.2f)", scores.CompositeScore))
	}
	if scores.GeneticEvidence >= conflictGeneticStrong && scores.SafetyRisk >= overrideSafetyRisk {
		flags = append(flags, "strong genetics conflict with high safety risk")
	}
	if scores.Tractability >= conflictTractGood && scores.CompetitiveLandscape >= cautionCompetitiveHigh {
		flags = append(flags, "good tractability conflicts with heavy competition")
	}
	return flags
}

// baseVerdict maps the composite score bands to a verdict. The flagless
// mid band defaults to GO_WITH_CAUTION: there is no recorded reason to
// investigate, and plain GO is reserved for the top band.
func baseVerdict(composite float64, caution, investigation []string) model.Verdict {
	switch {
	case composite >= bandGo && len(caution) == 0:
		return model.VerdictGo
	case composite >= bandMid:
		if len(caution) > 0 {
			return model.VerdictGoWithCaution
		}
		if len(investigation) > 0 {
			return model.VerdictInvestigateFurther
		}
		return model.VerdictGoWithCaution
	case composite >= bandInvestigate:
		return model.VerdictInvestigateFurther
	default:
		if len(investigation) > 0 {
			return model.VerdictInvestigateFurther
		}
		return model.VerdictNoGo
	}
}
