package safety

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-bio/triage-cli/internal/model"
	"github.com/meridian-bio/triage-cli/pkg/chembl"
	"github.com/meridian-bio/triage-cli/pkg/europepmc"
	"github.com/meridian-bio/triage-cli/pkg/opentargets"
)

// Investigator classifies which safety signals warrant deeper
// investigation and fans out secondary evidence queries for them.
type Investigator struct {
	targets    opentargets.Client
	literature europepmc.Client
	compounds  chembl.Client
	maxHits    int
}

// NewInvestigator creates a safety investigator.
func NewInvestigator(targets opentargets.Client, literature europepmc.Client, compounds chembl.Client, maxHits int) *Investigator {
	if maxHits <= 0 {
		maxHits = 10
	}
	return &Investigator{
		targets:    targets,
		literature: literature,
		compounds:  compounds,
		maxHits:    maxHits,
	}
}

// Investigate builds the full safety profile for a target. The provider
// being unreachable degrades to an empty profile; it never returns an
// error to the caller.
func (inv *Investigator) Investigate(ctx context.Context, targetID, symbol string) model.SafetyProfile {
	log := zap.L().With(zap.String("target", symbol))

	liabilities, err := inv.targets.GetSafetyLiabilities(ctx, targetID)
	if err != nil {
		log.Warn("safety: liability lookup failed, proceeding with empty profile", zap.Error(err))
		return buildProfile(nil)
	}

	signals := make([]model.SafetySignal, 0, len(liabilities))
	for _, l := range liabilities {
		signals = append(signals, signalFromLiability(l))
	}

	var selected, untouched []model.SafetySignal
	for _, sig := range signals {
		if needsInvestigation(sig) {
			selected = append(selected, sig)
		} else {
			untouched = append(untouched, sig)
		}
	}

	log.Info("safety: signals triaged",
		zap.Int("total", len(signals)),
		zap.Int("investigating", len(selected)),
	)

	// Investigate selected signals concurrently. Each branch writes only
	// its own slot, so no locking is needed.
	investigated := make([]model.SafetySignal, len(selected))
	g, gCtx := errgroup.WithContext(ctx)
	for i, sig := range selected {
		g.Go(func() error {
			investigated[i] = inv.investigateSignal(gCtx, symbol, sig)
			return nil
		})
	}
	_ = g.Wait()

	// Merge investigated signals back with untouched ones, preserving the
	// provider's original order.
	byKey := make(map[string]model.SafetySignal, len(investigated))
	for _, sig := range investigated {
		byKey[sig.Key()] = sig
	}
	merged := make([]model.SafetySignal, 0, len(signals))
	for _, sig := range signals {
		if done, ok := byKey[sig.Key()]; ok {
			merged = append(merged, done)
			delete(byKey, sig.Key())
		} else {
			merged = append(merged, sig)
		}
	}

	return buildProfile(merged)
}

// signalFromLiability maps a provider liability record to a safety signal.
func signalFromLiability(l opentargets.SafetyLiability) model.SafetySignal {
	organ := ""
	for _, b := range l.Biosamples {
		if organ = classifyOrgan(b.TissueLabel); organ != "" {
			break
		}
	}
	if organ == "" {
		organ = classifyOrgan(l.Event)
	}

	desc := l.Event
	if len(l.Effects) > 0 && l.Effects[0].Direction != "" {
		desc = fmt.Sprintf("%s (%s)", l.Event, l.Effects[0].Direction)
	}

	sig := model.SafetySignal{
		SignalType:  strings.ToLower(l.Event),
		OrganSystem: organ,
		Severity:    classifySeverity(l.Event),
		Description: desc,
	}
	if l.Datasource != "" {
		sig.Evidence = append(sig.Evidence, model.SafetyEvidence{
			Type:        model.EvidenceLiterature,
			Source:      l.Datasource,
			Description: l.Event,
			URL:         l.URL,
		})
	}
	return sig
}

// secondaryQuery is one bounded evidence query launched for an
// investigated signal.
type secondaryQuery struct {
	name string
	run  func(ctx context.Context) ([]model.SafetyEvidence, error)
}

// investigateSignal runs the secondary evidence queries for one signal
// concurrently and merges the results. Every query is independently
// fail-soft: a failure contributes zero evidence.
func (inv *Investigator) investigateSignal(ctx context.Context, symbol string, sig model.SafetySignal) model.SafetySignal {
	log := zap.L().With(zap.String("target", symbol), zap.String("signal", sig.SignalType))

	queries := []secondaryQuery{
		{"general_toxicity", func(ctx context.Context) ([]model.SafetyEvidence, error) {
			articles, err := inv.literature.SearchGeneralToxicity(ctx, symbol, inv.maxHits)
			return literatureEvidence(articles, model.EvidenceLiterature, 0.5), err
		}},
		{"clinical_safety", func(ctx context.Context) ([]model.SafetyEvidence, error) {
			articles, err := inv.literature.SearchClinicalSafety(ctx, symbol, inv.maxHits)
			return literatureEvidence(articles, model.EvidenceClinicalTrial, 0.6), err
		}},
		{"animal_model", func(ctx context.Context) ([]model.SafetyEvidence, error) {
			articles, err := inv.literature.SearchAnimalToxicity(ctx, symbol, inv.maxHits)
			return literatureEvidence(articles, model.EvidenceAnimalModel, 0.5), err
		}},
		{"withdrawn_compounds", func(ctx context.Context) ([]model.SafetyEvidence, error) {
			return inv.withdrawnEvidence(ctx, symbol)
		}},
	}
	if sig.OrganSystem != "" {
		queries = append(queries,
			secondaryQuery{"organ_literature", func(ctx context.Context) ([]model.SafetyEvidence, error) {
				articles, err := inv.literature.SearchOrganToxicity(ctx, symbol, sig.OrganSystem, inv.maxHits)
				return literatureEvidence(articles, model.EvidenceLiterature, 0.5), err
			}},
			secondaryQuery{"adverse_effects", func(ctx context.Context) ([]model.SafetyEvidence, error) {
				warnings, err := inv.compounds.SearchAdverseEffects(ctx, sig.OrganSystem)
				return warningEvidence(warnings), err
			}},
		)
	}

	// Each branch writes only its own slot; the slices are merged after
	// the join.
	results := make([][]model.SafetyEvidence, len(queries))
	g, gCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			ev, err := q.run(gCtx)
			if err != nil {
				log.Debug("safety: secondary query failed",
					zap.String("query", q.name),
					zap.Error(err),
				)
				return nil
			}
			results[i] = ev
			return nil
		})
	}
	_ = g.Wait()

	var added []model.SafetyEvidence
	for _, r := range results {
		added = append(added, r...)
	}

	sig.Evidence = append(sig.Evidence, added...)
	sig.InvestigationSummary = summarize(added)

	// Escalation: high-confidence regulatory evidence lifts severity to
	// HIGH. Investigation never downgrades.
	for _, ev := range added {
		if ev.Type == model.EvidenceRegulatory && ev.Confidence > 0.9 && sig.Severity < model.SeverityHigh {
			sig.Severity = model.SeverityHigh
			log.Info("safety: severity escalated to HIGH on regulatory evidence",
				zap.String("evidence", ev.Description),
			)
			break
		}
	}

	return sig
}

func literatureEvidence(articles []europepmc.Article, typ model.EvidenceType, confidence float64) []model.SafetyEvidence {
	evidence := make([]model.SafetyEvidence, 0, len(articles))
	for _, a := range articles {
		desc := a.Title
		if a.PubYear != "" {
			desc = fmt.Sprintf("%s (%s)", a.Title, a.PubYear)
		}
		evidence = append(evidence, model.SafetyEvidence{
			Type:        typ,
			Source:      "Europe PMC",
			Description: desc,
			URL:         a.URL(),
			Confidence:  confidence,
		})
	}
	return evidence
}

func (inv *Investigator) withdrawnEvidence(ctx context.Context, symbol string) ([]model.SafetyEvidence, error) {
	targets, err := inv.compounds.SearchTargetByGene(ctx, symbol)
	if err != nil || len(targets) == 0 {
		return nil, err
	}

	molecules, err := inv.compounds.GetWithdrawnCompounds(ctx, targets[0].TargetChemblID)
	if err != nil {
		return nil, err
	}

	evidence := make([]model.SafetyEvidence, 0, len(molecules))
	for _, m := range molecules {
		desc := fmt.Sprintf("%s withdrawn", m.PrefName)
		if m.WithdrawnReason != "" {
			desc = fmt.Sprintf("%s withdrawn: %s", m.PrefName, m.WithdrawnReason)
		}
		evidence = append(evidence, model.SafetyEvidence{
			Type:        model.EvidenceRegulatory,
			Source:      "ChEMBL",
			Description: desc,
			Confidence:  0.95,
		})
	}
	return evidence, nil
}

func warningEvidence(warnings []chembl.DrugWarning) []model.SafetyEvidence {
	evidence := make([]model.SafetyEvidence, 0, len(warnings))
	for _, w := range warnings {
		confidence := 0.7
		if strings.EqualFold(w.WarningType, "black box warning") {
			confidence = 0.85
		}
		evidence = append(evidence, model.SafetyEvidence{
			Type:        model.EvidenceCompound,
			Source:      "ChEMBL",
			Description: fmt.Sprintf("%s: %s", w.WarningType, w.WarningDescription),
			Confidence:  confidence,
		})
	}
	return evidence
}

// summaryOrder fixes the evidence-type ordering in investigation
// summaries so they are deterministic.
var summaryOrder = []model.EvidenceType{
	model.EvidenceLiterature,
	model.EvidenceCompound,
	model.EvidenceClinicalTrial,
	model.EvidenceRegulatory,
	model.EvidenceAnimalModel,
	model.EvidenceInVitro,
}

// summarize produces the deterministic investigation summary for a set of
// newly added evidence items.
func summarize(added []model.SafetyEvidence) string {
	if len(added) == 0 {
		return "Investigation added no new evidence."
	}

	counts := make(map[model.EvidenceType]int)
	for _, ev := range added {
		counts[ev.Type]++
	}

	parts := make([]string, 0, len(counts))
	for _, typ := range summaryOrder {
		if n := counts[typ]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ReplaceAll(string(typ), "_", " ")))
		}
	}

	return fmt.Sprintf("Investigation added %d evidence items: %s.", len(added), strings.Join(parts, ", "))
}

// buildProfile computes severity counts and the overall risk. Three or
// more HIGH signals jointly imply CRITICAL overall risk.
func buildProfile(signals []model.SafetySignal) model.SafetyProfile {
	profile := model.SafetyProfile{
		Signals:       signals,
		OverallRisk:   model.SeverityInformational,
		SeverityCount: make(map[string]int),
	}

	highCount := 0
	for _, sig := range signals {
		profile.SeverityCount[sig.Severity.String()]++
		if sig.Severity > profile.OverallRisk {
			profile.OverallRisk = sig.Severity
		}
		if sig.Severity == model.SeverityHigh {
			highCount++
		}
	}
	if highCount >= 3 && profile.OverallRisk < model.SeverityCritical {
		profile.OverallRisk = model.SeverityCritical
	}

	return profile
}
