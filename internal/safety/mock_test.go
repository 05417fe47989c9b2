package safety

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/meridian-bio/triage-cli/pkg/chembl"
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

// --- Europe PMC mock ---

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
