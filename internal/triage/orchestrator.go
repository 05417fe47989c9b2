package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-bio/triage-cli/internal/decision"
	"github.com/meridian-bio/triage-cli/internal/landscape"
	"github.com/meridian-bio/triage-cli/internal/model"
	"github.com/meridian-bio/triage-cli/internal/resilience"
	"github.com/meridian-bio/triage-cli/internal/safety"
	"github.com/meridian-bio/triage-cli/internal/scoring"
	"github.com/meridian-bio/triage-cli/internal/store"
	"github.com/meridian-bio/triage-cli/pkg/opentargets"
)

// Options tunes orchestration behavior.
type Options struct {
	// GeneTimeout bounds the full evidence pipeline for a single gene.
	GeneTimeout time.Duration
	// TopTargets is how many ranked targets the job summary keeps.
	TopTargets int
	// Retry applies to identity resolution calls, the one fetch that
	// cannot be degraded.
	Retry resilience.RetryConfig
}

func (o Options) withDefaults() Options {
	if o.GeneTimeout <= 0 {
		o.GeneTimeout = 3 * time.Minute
	}
	if o.TopTargets <= 0 {
		o.TopTargets = 5
	}
	return o
}

// Orchestrator drives the per-target evidence pipeline and batch jobs.
type Orchestrator struct {
	targets      opentargets.Client
	investigator *safety.Investigator
	analyzer     *landscape.Analyzer
	store        store.Store
	opts         Options
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(targets opentargets.Client, investigator *safety.Investigator, analyzer *landscape.Analyzer, st store.Store, opts Options) *Orchestrator {
	return &Orchestrator{
		targets:      targets,
		investigator: investigator,
		analyzer:     analyzer,
		store:        st,
		opts:         opts.withDefaults(),
	}
}

// ResolveDisease resolves a free-text disease query to a platform disease
// record.
func (o *Orchestrator) ResolveDisease(ctx context.Context, query string) (*opentargets.Disease, error) {
	disease, err := resilience.DoVal(ctx, o.opts.Retry, func(ctx context.Context) (*opentargets.Disease, error) {
		return o.targets.SearchDisease(ctx, query)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "triage: resolve disease %q", query)
	}
	return disease, nil
}

// TriageTarget runs the full pipeline for one gene symbol against a
// disease. Identity resolution is the only hard dependency; every other
// evidence source degrades to its zero value on failure.
func (o *Orchestrator) TriageTarget(ctx context.Context, symbol, diseaseID, diseaseName string) (*model.TargetReport, error) {
	log := zap.L().With(zap.String("target", symbol), zap.String("disease", diseaseID))

	target, err := resilience.DoVal(ctx, o.opts.Retry, func(ctx context.Context) (*opentargets.Target, error) {
		return o.targets.SearchTarget(ctx, symbol)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "triage: resolve target %q", symbol)
	}

	var (
		assoc      model.AssociationScore
		tract      model.Tractability
		knownDrugs []model.KnownDrug
		profile    model.SafetyProfile
		analysis   landscape.Analysis
	)

	// The five evidence branches are independent; each degrades on its
	// own and none returns an error into the group.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := o.targets.GetAssociationScore(gCtx, target.ID, diseaseID)
		if err != nil {
			log.Warn("triage: association lookup failed, scoring without it", zap.Error(err))
			return nil
		}
		assoc = associationFromAPI(a)
		return nil
	})
	g.Go(func() error {
		entries, err := o.targets.GetTractability(gCtx, target.ID)
		if err != nil {
			log.Warn("triage: tractability lookup failed, scoring without it", zap.Error(err))
			return nil
		}
		tract = tractabilityFromAPI(entries)
		return nil
	})
	g.Go(func() error {
		rows, err := o.targets.GetKnownDrugs(gCtx, target.ID)
		if err != nil {
			log.Warn("triage: known-drug lookup failed, omitting", zap.Error(err))
			return nil
		}
		knownDrugs = knownDrugsFromAPI(rows)
		return nil
	})
	g.Go(func() error {
		profile = o.investigator.Investigate(gCtx, target.ID, symbol)
		return nil
	})
	g.Go(func() error {
		analysis = o.analyzer.AnalyzeLandscape(gCtx, symbol, diseaseID, diseaseName)
		return nil
	})
	_ = g.Wait()

	scores := scoring.Score(assoc, tract, profile.Signals, &analysis.Landscape)
	verdict := decision.Decide(scores, profile.Signals, &analysis.Landscape)

	report := &model.TargetReport{
		Target:       identityFromAPI(target),
		DiseaseID:    diseaseID,
		DiseaseName:  diseaseName,
		Association:  assoc,
		Tractability: tract,
		Safety:       profile,
		Landscape:    analysis.Landscape,
		KnownDrugs:   knownDrugs,
		Scores:       scores,
		Decision:     verdict,
		CreatedAt:    time.Now().UTC(),
	}

	log.Info("triage: target analyzed",
		zap.Float64("composite", scores.CompositeScore),
		zap.String("verdict", string(verdict.Verdict)),
	)
	return report, nil
}

// StartBatch records a new batch job in pending state. The caller decides
// whether to run it inline or on a background goroutine.
func (o *Orchestrator) StartBatch(ctx context.Context, diseaseID, diseaseName string, genes []string) (*model.TriageJob, error) {
	if len(genes) == 0 {
		return nil, eris.New("triage: batch requires at least one gene")
	}
	job, err := o.store.CreateJob(ctx, diseaseID, diseaseName, genes)
	if err != nil {
		return nil, eris.Wrap(err, "triage: create batch job")
	}
	return job, nil
}

// RunJob drives a batch job to completion. Individual gene failures are
// logged and skipped; only persistence failures fail the job. Progress is
// floor(done/total*100) after each gene and never moves backwards.
func (o *Orchestrator) RunJob(ctx context.Context, jobID string) error {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return eris.Wrapf(err, "triage: load job %s", jobID)
	}
	if err := o.store.UpdateJobStatus(ctx, jobID, model.JobRunning); err != nil {
		return eris.Wrap(err, "triage: mark job running")
	}

	log := zap.L().With(zap.String("job", jobID), zap.String("disease", job.DiseaseID))
	log.Info("triage: batch started", zap.Int("genes", len(job.Genes)))

	var reportIDs []string
	reports := make([]model.TargetReport, 0, len(job.Genes))
	total := len(job.Genes)

	for i, gene := range job.Genes {
		if err := o.store.UpdateJobProgress(ctx, jobID, i*100/total, gene); err != nil {
			return o.failJob(ctx, jobID, eris.Wrap(err, "triage: update progress"))
		}

		geneCtx, cancel := context.WithTimeout(ctx, o.opts.GeneTimeout)
		report, err := o.TriageTarget(geneCtx, gene, job.DiseaseID, job.DiseaseName)
		cancel()
		if err != nil {
			log.Warn("triage: gene skipped", zap.String("gene", gene), zap.Error(err))
			continue
		}

		report.JobID = jobID
		if err := o.store.CreateTargetReport(ctx, report); err != nil {
			return o.failJob(ctx, jobID, eris.Wrap(err, "triage: persist target report"))
		}
		reportIDs = append(reportIDs, report.ID)
		reports = append(reports, *report)

		if err := o.store.UpdateJobProgress(ctx, jobID, (i+1)*100/total, gene); err != nil {
			return o.failJob(ctx, jobID, eris.Wrap(err, "triage: update progress"))
		}
	}

	summary := Summarize(reports, o.opts.TopTargets)
	triageReport := &model.TriageReport{
		JobID:            jobID,
		ReportIDs:        reportIDs,
		Summary:          summary,
		ExecutiveSummary: executiveSummary(job.DiseaseName, summary, total),
		CreatedAt:        time.Now().UTC(),
	}
	if err := o.store.CreateTriageReport(ctx, triageReport); err != nil {
		return o.failJob(ctx, jobID, eris.Wrap(err, "triage: persist triage report"))
	}

	if err := o.store.CompleteJob(ctx, jobID, model.JobCompleted, ""); err != nil {
		return eris.Wrap(err, "triage: complete job")
	}
	log.Info("triage: batch completed",
		zap.Int("analyzed", len(reports)),
		zap.Int("skipped", total-len(reports)),
	)
	return nil
}

func (o *Orchestrator) failJob(ctx context.Context, jobID string, cause error) error {
	if err := o.store.CompleteJob(ctx, jobID, model.JobFailed, cause.Error()); err != nil {
		zap.L().Error("triage: could not record job failure",
			zap.String("job", jobID),
			zap.Error(err),
		)
	}
	return cause
}

// Summarize rolls up verdict counts and the top-ranked targets of a set
// of reports. Deterministic for a given input set.
func Summarize(reports []model.TargetReport, topN int) model.ReportSummary {
	summary := model.ReportSummary{
		TotalTargets: len(reports),
		VerdictCount: make(map[model.Verdict]int),
	}

	byVerdict := make(map[string]model.Verdict, len(reports))
	scores := make(map[string]model.TargetScores, len(reports))
	for _, r := range reports {
		summary.VerdictCount[r.Decision.Verdict]++
		byVerdict[r.Target.Symbol] = r.Decision.Verdict
		scores[r.Target.Symbol] = r.Scores
	}

	for _, entry := range scoring.Rank(scores) {
		if len(summary.TopTargets) >= topN {
			break
		}
		summary.TopTargets = append(summary.TopTargets, model.RankedTarget{
			Symbol:         entry.Symbol,
			CompositeScore: entry.Scores.CompositeScore,
			Verdict:        byVerdict[entry.Symbol],
		})
	}
	return summary
}

// executiveSummary renders a short deterministic narrative for the job.
func executiveSummary(diseaseName string, summary model.ReportSummary, requested int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Triaged %d of %d requested targets for %s.",
		summary.TotalTargets, requested, diseaseName)

	order := []model.Verdict{
		model.VerdictGo,
		model.VerdictGoWithCaution,
		model.VerdictInvestigateFurther,
		model.VerdictNoGo,
	}
	parts := make([]string, 0, len(order))
	for _, v := range order {
		if n := summary.VerdictCount[v]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, v))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " Verdicts: %s.", strings.Join(parts, ", "))
	}
	if len(summary.TopTargets) > 0 {
		top := summary.TopTargets[0]
		fmt.Fprintf(&b, " Leading candidate %s (composite %.2f, %s).",
			top.Symbol, top.CompositeScore, top.Verdict)
	}
	return b.String()
}

// identityFromAPI maps a platform target to the internal identity model.
func identityFromAPI(t *opentargets.Target) model.TargetIdentity {
	identity := model.TargetIdentity{
		ID:      t.ID,
		Symbol:  t.ApprovedSymbol,
		Name:    t.ApprovedName,
		Biotype: t.Biotype,
	}
	if len(t.FunctionDescriptions) > 0 {
		identity.Description = t.FunctionDescriptions[0]
	}
	if loc := t.GenomicLocation; loc != nil {
		identity.GenomicLocation = fmt.Sprintf("%s:%d-%d", loc.Chromosome, loc.Start, loc.End)
	}
	return identity
}

// associationFromAPI flattens per-datatype scores into the fixed
// association struct. Unknown datatype ids are ignored.
func associationFromAPI(a *opentargets.Association) model.AssociationScore {
	if a == nil {
		return model.AssociationScore{}
	}
	assoc := model.AssociationScore{Overall: a.Score}
	for _, ds := range a.DatatypeScores {
		switch ds.ID {
		case "genetic_association":
			assoc.GeneticAssociation = ds.Score
		case "somatic_mutation":
			assoc.SomaticMutation = ds.Score
		case "known_drug":
			assoc.KnownDrug = ds.Score
		case "affected_pathway":
			assoc.AffectedPathway = ds.Score
		case "literature":
			assoc.Literature = ds.Score
		case "rna_expression":
			assoc.RNAExpression = ds.Score
		case "animal_model":
			assoc.AnimalModel = ds.Score
		}
	}
	return assoc
}

// tractabilityFromAPI groups assessment entries by modality. Only entries
// with a positive value count as supporting categories.
func tractabilityFromAPI(entries []opentargets.TractabilityEntry) model.Tractability {
	var t model.Tractability
	for _, e := range entries {
		var m *model.Modality
		switch e.Modality {
		case "SM":
			m = &t.SmallMolecule
		case "AB":
			m = &t.Antibody
		case "PR":
			m = &t.Protac
		case "OC":
			m = &t.Other
		default:
			continue
		}
		m.Assessed = true
		if e.Value {
			m.Categories = append(m.Categories, e.Label)
		}
	}
	return t
}

func knownDrugsFromAPI(rows []opentargets.KnownDrugRow) []model.KnownDrug {
	drugs := make([]model.KnownDrug, 0, len(rows))
	for _, r := range rows {
		drugs = append(drugs, model.KnownDrug{
			ID:                r.DrugID,
			Name:              r.PrefName,
			Phase:             r.Phase,
			MechanismOfAction: r.MechanismOfAction,
			DiseaseID:         r.DiseaseID,
			DiseaseName:       r.DiseaseName,
			Status:            r.Status,
		})
	}
	return drugs
}
