package landscape

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-bio/triage-cli/internal/model"
	"github.com/meridian-bio/triage-cli/pkg/ctgov"
)

// Analysis is the analyzer's full output for one target/disease pair.
type Analysis struct {
	Landscape       model.CompetitorLandscape `json:"landscape"`
	FailureAnalysis model.FailureAnalysis     `json:"failure_analysis"`
	Competitors     []model.Competitor        `json:"competitors"`
	Opportunity     model.MarketOpportunity   `json:"opportunity"`
	Narrative       string                    `json:"narrative"`
}

// Analyzer converts registry trial history into failure statistics,
// competitor identification and a market-opportunity rating.
type Analyzer struct {
	registry ctgov.Client
}

// NewAnalyzer creates a competitor analyzer.
func NewAnalyzer(registry ctgov.Client) *Analyzer {
	return &Analyzer{registry: registry}
}

// AnalyzeLandscape builds the competitive landscape for a target/disease
// pair. An unreachable registry degrades to a zero-trial landscape; it
// never returns an error to the caller.
func (a *Analyzer) AnalyzeLandscape(ctx context.Context, symbol, diseaseID, diseaseName string) Analysis {
	registryTrials, err := a.registry.SearchTrials(ctx, symbol, diseaseName)
	if err != nil {
		zap.L().Warn("landscape: trial registry unreachable, assuming unknown landscape",
			zap.String("target", symbol),
			zap.Error(err),
		)
		return unknownLandscape(symbol, diseaseID, diseaseName)
	}

	trials := make([]model.ClinicalTrial, 0, len(registryTrials))
	for _, t := range registryTrials {
		trials = append(trials, trialFromRegistry(t))
	}

	return Analyze(symbol, diseaseID, diseaseName, trials)
}

// Analyze computes the full landscape analysis from an already-fetched
// trial list. Pure; exposed separately so policy is testable without the
// registry.
func Analyze(symbol, diseaseID, diseaseName string, trials []model.ClinicalTrial) Analysis {
	landscape := model.CompetitorLandscape{
		TargetSymbol:   symbol,
		DiseaseID:      diseaseID,
		DiseaseName:    diseaseName,
		TotalTrials:    len(trials),
		FailureReasons: make(map[model.FailureCategory]int),
	}
	failure := model.FailureAnalysis{
		ByCategory: make(map[model.FailureCategory]int),
	}

	lateStage := 0
	for _, t := range trials {
		switch t.Status {
		case model.TrialRecruiting, model.TrialActive:
			landscape.ActiveTrials++
		case model.TrialCompleted:
			landscape.CompletedTrials++
		case model.TrialTerminated, model.TrialWithdrawn:
			landscape.FailedTrials++
			category := categorizeFailure(t.FailureReason)
			landscape.FailureReasons[category]++
			failure.ByCategory[category]++
			failure.TotalFailures++
			if t.Phase >= 3 {
				failure.LateStageFailures++
			}
		}
		if t.Phase >= 3 {
			lateStage++
		}
	}

	landscape.RiskScore = riskScore(landscape, lateStage)
	failure.RiskLevel = classifyFailureRisk(failure)

	competitors := identifyCompetitors(trials)
	opportunity := scoreOpportunity(landscape, failure, competitors)

	landscape.Summary = summarize(landscape, failure, competitors, opportunity)

	return Analysis{
		Landscape:       landscape,
		FailureAnalysis: failure,
		Competitors:     competitors,
		Opportunity:     opportunity,
		Narrative:       landscape.Summary,
	}
}

// riskScore is a weighted sum of the active-trial, failed-trial and
// late-stage ratios, clamped to [0,1]. Zero trials scores zero.
func riskScore(l model.CompetitorLandscape, lateStage int) float64 {
	if l.TotalTrials == 0 {
		return 0
	}
	total := float64(l.TotalTrials)
	score := 0.4*float64(l.ActiveTrials)/total +
		0.3*float64(l.FailedTrials)/total +
		0.3*float64(lateStage)/total
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// identifyCompetitors groups currently-active trials by sponsor, ranked
// descending by active-trial count (sponsor name breaks ties so the
// ordering is stable).
func identifyCompetitors(trials []model.ClinicalTrial) []model.Competitor {
	type entry struct {
		count     int
		lateStage bool
	}
	bySponsor := make(map[string]*entry)
	for _, t := range trials {
		if t.Status != model.TrialRecruiting && t.Status != model.TrialActive {
			continue
		}
		if t.Sponsor == "" {
			continue
		}
		e, ok := bySponsor[t.Sponsor]
		if !ok {
			e = &entry{}
			bySponsor[t.Sponsor] = e
		}
		e.count++
		if t.Phase >= 3 {
			e.lateStage = true
		}
	}

	competitors := make([]model.Competitor, 0, len(bySponsor))
	for sponsor, e := range bySponsor {
		competitors = append(competitors, model.Competitor{
			Sponsor:      sponsor,
			ActiveTrials: e.count,
			LateStage:    e.lateStage,
		})
	}
	sort.Slice(competitors, func(i, j int) bool {
		if competitors[i].ActiveTrials != competitors[j].ActiveTrials {
			return competitors[i].ActiveTrials > competitors[j].ActiveTrials
		}
		return competitors[i].Sponsor < competitors[j].Sponsor
	})
	return competitors
}

func summarize(l model.CompetitorLandscape, fa model.FailureAnalysis, competitors []model.Competitor, opp model.MarketOpportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d trials on record for %s in %s: %d active, %d completed, %d failed.",
		l.TotalTrials, l.TargetSymbol, l.DiseaseName, l.ActiveTrials, l.CompletedTrials, l.FailedTrials)
	if fa.TotalFailures > 0 {
		fmt.Fprintf(&b, " Failure risk %s (%d safety, %d efficacy, %d business, %d other).",
			fa.RiskLevel,
			fa.ByCategory[model.FailureSafety],
			fa.ByCategory[model.FailureEfficacy],
			fa.ByCategory[model.FailureBusiness],
			fa.ByCategory[model.FailureOther],
		)
	}
	if len(competitors) > 0 {
		fmt.Fprintf(&b, " %d active competitors, led by %s (%d trials).",
			len(competitors), competitors[0].Sponsor, competitors[0].ActiveTrials)
	} else {
		b.WriteString(" No active competitors.")
	}
	fmt.Fprintf(&b, " Market opportunity %s.", opp.Rating)
	return b.String()
}

// trialFromRegistry maps a registry study to the internal trial model.
func trialFromRegistry(t ctgov.Trial) model.ClinicalTrial {
	return model.ClinicalTrial{
		ID:             t.NCTID,
		Title:          t.Title,
		Phase:          t.Phase,
		Status:         normalizeStatus(t.OverallStatus),
		Sponsor:        t.Sponsor,
		StartDate:      t.StartDate,
		CompletionDate: t.CompletionDate,
		FailureReason:  t.WhyStopped,
		URL:            t.URL(),
	}
}

func normalizeStatus(status string) model.TrialStatus {
	switch strings.ToUpper(status) {
	case "RECRUITING", "NOT_YET_RECRUITING":
		return model.TrialRecruiting
	case "ACTIVE_NOT_RECRUITING", "ENROLLING_BY_INVITATION":
		return model.TrialActive
	case "COMPLETED":
		return model.TrialCompleted
	case "TERMINATED":
		return model.TrialTerminated
	case "WITHDRAWN":
		return model.TrialWithdrawn
	case "SUSPENDED":
		return model.TrialSuspended
	default:
		return model.TrialUnknown
	}
}

// unknownLandscape is the degraded result when the registry cannot be
// reached: zero trials, LOW failure risk, and a pessimistic opportunity
// since the true landscape is unknown.
func unknownLandscape(symbol, diseaseID, diseaseName string) Analysis {
	landscape := model.CompetitorLandscape{
		TargetSymbol:   symbol,
		DiseaseID:      diseaseID,
		DiseaseName:    diseaseName,
		FailureReasons: make(map[model.FailureCategory]int),
		Summary:        fmt.Sprintf("Trial registry unavailable for %s in %s; landscape unknown.", symbol, diseaseName),
	}
	return Analysis{
		Landscape: landscape,
		FailureAnalysis: model.FailureAnalysis{
			ByCategory: make(map[model.FailureCategory]int),
			RiskLevel:  model.FailureRiskLow,
		},
		Opportunity: model.MarketOpportunity{Score: 25, Rating: model.OpportunityVeryLow},
		Narrative:   landscape.Summary,
	}
}
