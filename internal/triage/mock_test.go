package triage

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/meridian-bio/triage-cli/internal/model"
	"github.com/meridian-bio/triage-cli/internal/store"
	"github.com/meridian-bio/triage-cli/pkg/chembl"
	"github.com/meridian-bio/triage-cli/pkg/ctgov"
	"github.com/meridian-bio/triage-cli/pkg/europepmc"
	"github.com/meridian-bio/triage-cli/pkg/opentargets"
)

// --- Open Targets mock ---

type mockTargets struct {
	mock.Mock
}

func (m *mockTargets) GetTargetInfo(ctx context.Context, targetID string) (*opentargets.Target, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*opentargets.Target), args.Error(1)
}

func (m *mockTargets) SearchTarget(ctx context.Context, symbol string) (*opentargets.Target, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*opentargets.Target), args.Error(1)
}

func (m *mockTargets) SearchDisease(ctx context.Context, query string) (*opentargets.Disease, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*opentargets.Disease), args.Error(1)
}

func (m *mockTargets) GetAssociationScore(ctx context.Context, targetID, diseaseID string) (*opentargets.Association, error) {
	args := m.Called(ctx, targetID, diseaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*opentargets.Association), args.Error(1)
}

func (m *mockTargets) GetTractability(ctx context.Context, targetID string) ([]opentargets.TractabilityEntry, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]opentargets.TractabilityEntry), args.Error(1)
}

func (m *mockTargets) GetSafetyLiabilities(ctx context.Context, targetID string) ([]opentargets.SafetyLiability, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]opentargets.SafetyLiability), args.Error(1)
}

func (m *mockTargets) GetKnownDrugs(ctx context.Context, targetID string) ([]opentargets.KnownDrugRow, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]opentargets.KnownDrugRow), args.Error(1)
}

// --- ClinicalTrials.gov mock ---

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) SearchTrials(ctx context.Context, gene, disease string) ([]ctgov.Trial, error) {
	args := m.Called(ctx, gene, disease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ctgov.Trial), args.Error(1)
}

func (m *mockRegistry) FailedTrials(ctx context.Context, gene, disease string) ([]ctgov.Trial, error) {
	args := m.Called(ctx, gene, disease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ctgov.Trial), args.Error(1)
}

func (m *mockRegistry) PhaseDistribution(ctx context.Context, gene, disease string) (map[int]int, error) {
	args := m.Called(ctx, gene, disease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

// --- Europe PMC mock (unused paths return empty) ---

type mockLiterature struct {
	mock.Mock
}

func (m *mockLiterature) Search(ctx context.Context, query string, limit int) ([]europepmc.Article, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]europepmc.Article), args.Error(1)
}

func (m *mockLiterature) FetchArticles(ctx context.Context, ids []string) ([]europepmc.Article, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]europepmc.Article), args.Error(1)
}

func (m *mockLiterature) SearchOrganToxicity(ctx context.Context, symbol, organSystem string, limit int) ([]europepmc.Article, error) {
	args := m.Called(ctx, symbol, organSystem, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]europepmc.Article), args.Error(1)
}

func (m *mockLiterature) SearchGeneralToxicity(ctx context.Context, symbol string, limit int) ([]europepmc.Article, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]europepmc.Article), args.Error(1)
}

func (m *mockLiterature) SearchClinicalSafety(ctx context.Context, symbol string, limit int) ([]europepmc.Article, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]europepmc.Article), args.Error(1)
}

func (m *mockLiterature) SearchAnimalToxicity(ctx context.Context, symbol string, limit int) ([]europepmc.Article, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]europepmc.Article), args.Error(1)
}

// --- ChEMBL mock ---

type mockCompounds struct {
	mock.Mock
}

func (m *mockCompounds) SearchTargetByGene(ctx context.Context, symbol string) ([]chembl.TargetRecord, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chembl.TargetRecord), args.Error(1)
}

func (m *mockCompounds) GetMechanisms(ctx context.Context, targetChemblID string) ([]chembl.Mechanism, error) {
	args := m.Called(ctx, targetChemblID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chembl.Mechanism), args.Error(1)
}

func (m *mockCompounds) GetWithdrawnCompounds(ctx context.Context, targetChemblID string) ([]chembl.Molecule, error) {
	args := m.Called(ctx, targetChemblID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chembl.Molecule), args.Error(1)
}

func (m *mockCompounds) SearchAdverseEffects(ctx context.Context, organSystem string) ([]chembl.DrugWarning, error) {
	args := m.Called(ctx, organSystem)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chembl.DrugWarning), args.Error(1)
}

// --- In-memory store fake ---

// fakeStore is an in-memory Store for orchestration tests. It records
// every progress value written so monotonicity can be asserted.
type fakeStore struct {
	mu            sync.Mutex
	jobs          map[string]*model.TriageJob
	targetReports map[string]*model.TargetReport
	triageReports map[string]*model.TriageReport
	progressLog   []int
	nextID        int

	failTargetReports bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:          make(map[string]*model.TriageJob),
		targetReports: make(map[string]*model.TargetReport),
		triageReports: make(map[string]*model.TriageReport),
	}
}

func (f *fakeStore) CreateJob(ctx context.Context, diseaseID, diseaseName string, genes []string) (*model.TriageJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	job := &model.TriageJob{
		ID:          fmt.Sprintf("job-%d", f.nextID),
		DiseaseID:   diseaseID,
		DiseaseName: diseaseName,
		Genes:       genes,
		Status:      model.JobPending,
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	job.Status = status
	return nil
}

func (f *fakeStore) UpdateJobProgress(ctx context.Context, jobID string, progress int, currentGene string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.CurrentGene = currentGene
	f.progressLog = append(f.progressLog, job.Progress)
	return nil
}

func (f *fakeStore) CompleteJob(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return store.ErrNotFound
	}
	job.Status = status
	job.Error = errMsg
	job.CurrentGene = ""
	if status == model.JobCompleted && job.Progress < 100 {
		job.Progress = 100
	}
	return nil
}

func (f *fakeStore) GetJob(ctx context.Context, jobID string) (*model.TriageJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeStore) ListJobs(ctx context.Context, filter store.JobFilter) ([]model.TriageJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var jobs []model.TriageJob
	for _, job := range f.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (f *fakeStore) CreateTargetReport(ctx context.Context, report *model.TargetReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTargetReports {
		return store.ErrNotFound
	}
	f.nextID++
	report.ID = fmt.Sprintf("report-%d", f.nextID)
	copied := *report
	f.targetReports[report.ID] = &copied
	return nil
}

func (f *fakeStore) GetTargetReport(ctx context.Context, reportID string) (*model.TargetReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.targetReports[reportID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *report
	return &copied, nil
}

func (f *fakeStore) ListTargetReports(ctx context.Context, jobID string) ([]model.TargetReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reports []model.TargetReport
	for _, report := range f.targetReports {
		if report.JobID == jobID {
			reports = append(reports, *report)
		}
	}
	return reports, nil
}

func (f *fakeStore) CreateTriageReport(ctx context.Context, report *model.TriageReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report.ID = "triage-report"
	copied := *report
	f.triageReports[report.JobID] = &copied
	return nil
}

func (f *fakeStore) GetTriageReport(ctx context.Context, jobID string) (*model.TriageReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.triageReports[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *report
	return &copied, nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }
