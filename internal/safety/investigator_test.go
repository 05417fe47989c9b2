package safety

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meridian-bio/triage-cli/internal/model"
	"github.com/meridian-bio/triage-cli/pkg/chembl"
	"github.com/meridian-bio/triage-cli/pkg/europepmc"
	"github.com/meridian-bio/triage-cli/pkg/opentargets"
)

func noSecondaryHits(lit *mockLiterature, compounds *mockCompounds) {
	lit.On("SearchGeneralToxicity", mock.Anything, mock.Anything, mock.Anything).Return([]europepmc.Article{}, nil)
	lit.On("SearchClinicalSafety", mock.Anything, mock.Anything, mock.Anything).Return([]europepmc.Article{}, nil)
	lit.On("SearchAnimalToxicity", mock.Anything, mock.Anything, mock.Anything).Return([]europepmc.Article{}, nil)
	lit.On("SearchOrganToxicity", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]europepmc.Article{}, nil)
	compounds.On("SearchTargetByGene", mock.Anything, mock.Anything).Return([]chembl.TargetRecord{}, nil)
	compounds.On("SearchAdverseEffects", mock.Anything, mock.Anything).Return([]chembl.DrugWarning{}, nil)
}

func TestInvestigate_ProviderDownYieldsEmptyProfile(t *testing.T) {
	targets := new(mockTargets)
	targets.On("GetSafetyLiabilities", mock.Anything, "ENSG00000000001").
		Return(nil, eris.New("opentargets: status 503"))

	inv := NewInvestigator(targets, new(mockLiterature), new(mockCompounds), 10)
	profile := inv.Investigate(context.Background(), "ENSG00000000001", "KCNH2")

	assert.Empty(t, profile.Signals)
	assert.Equal(t, model.SeverityInformational, profile.OverallRisk)
	targets.AssertExpectations(t)
}

func TestInvestigate_SecondaryQueriesAddEvidence(t *testing.T) {
	targets := new(mockTargets)
	lit := new(mockLiterature)
	compounds := new(mockCompounds)

	targets.On("GetSafetyLiabilities", mock.Anything, "ENSG00000055118").
		Return([]opentargets.SafetyLiability{
			{Event: "QT prolongation", Datasource: "ToxCast", URL: "https://example.org/tox"},
		}, nil)

	lit.On("SearchGeneralToxicity", mock.Anything, "KCNH2", 10).
		Return([]europepmc.Article{{ID: "34567", Source: "MED", Title: "hERG block review", PubYear: "2021"}}, nil)
	lit.On("SearchClinicalSafety", mock.Anything, "KCNH2", 10).
		Return(nil, eris.New("europepmc: retries exhausted"))
	lit.On("SearchAnimalToxicity", mock.Anything, "KCNH2", 10).
		Return([]europepmc.Article{}, nil)
	lit.On("SearchOrganToxicity", mock.Anything, "KCNH2", "heart", 10).
		Return([]europepmc.Article{{ID: "34568", Source: "MED", Title: "Cardiac repolarization"}}, nil)

	compounds.On("SearchTargetByGene", mock.Anything, "KCNH2").
		Return([]chembl.TargetRecord{{TargetChemblID: "CHEMBL240"}}, nil)
	compounds.On("GetWithdrawnCompounds", mock.Anything, "CHEMBL240").
		Return([]chembl.Molecule{}, nil)
	compounds.On("SearchAdverseEffects", mock.Anything, "heart").
		Return([]chembl.DrugWarning{{WarningType: "Black Box Warning", WarningDescription: "ventricular arrhythmia"}}, nil)

	inv := NewInvestigator(targets, lit, compounds, 10)
	profile := inv.Investigate(context.Background(), "ENSG00000055118", "KCNH2")

	require.Len(t, profile.Signals, 1)
	sig := profile.Signals[0]
	assert.Equal(t, model.SeverityHigh, sig.Severity)
	assert.Equal(t, "heart", sig.OrganSystem)
	// 1 provider datasource + 2 literature hits + 1 drug warning. The
	// failed clinical-safety query contributes nothing.
	assert.Len(t, sig.Evidence, 4)
	assert.Contains(t, sig.InvestigationSummary, "3 evidence items")
	assert.Equal(t, model.SeverityHigh, profile.OverallRisk)
	targets.AssertExpectations(t)
	lit.AssertExpectations(t)
	compounds.AssertExpectations(t)
}

func TestInvestigate_RegulatoryEvidenceEscalates(t *testing.T) {
	targets := new(mockTargets)
	lit := new(mockLiterature)
	compounds := new(mockCompounds)

	// Moderate severity, but the liver organ triggers investigation.
	targets.On("GetSafetyLiabilities", mock.Anything, "ENSG00000135679").
		Return([]opentargets.SafetyLiability{
			{Event: "elevated liver enzymes"},
		}, nil)

	lit.On("SearchGeneralToxicity", mock.Anything, mock.Anything, mock.Anything).Return([]europepmc.Article{}, nil)
	lit.On("SearchClinicalSafety", mock.Anything, mock.Anything, mock.Anything).Return([]europepmc.Article{}, nil)
	lit.On("SearchAnimalToxicity", mock.Anything, mock.Anything, mock.Anything).Return([]europepmc.Article{}, nil)
	lit.On("SearchOrganToxicity", mock.Anything, mock.Anything, "liver", mock.Anything).Return([]europepmc.Article{}, nil)
	compounds.On("SearchAdverseEffects", mock.Anything, "liver").Return([]chembl.DrugWarning{}, nil)

	compounds.On("SearchTargetByGene", mock.Anything, "MDM2").
		Return([]chembl.TargetRecord{{TargetChemblID: "CHEMBL2111"}}, nil)
	compounds.On("GetWithdrawnCompounds", mock.Anything, "CHEMBL2111").
		Return([]chembl.Molecule{{PrefName: "examplinib", WithdrawnReason: "hepatic injury"}}, nil)

	inv := NewInvestigator(targets, lit, compounds, 10)
	profile := inv.Investigate(context.Background(), "ENSG00000135679", "MDM2")

	require.Len(t, profile.Signals, 1)
	assert.Equal(t, model.SeverityHigh, profile.Signals[0].Severity)
	assert.Equal(t, model.SeverityHigh, profile.OverallRisk)
}

func TestInvestigate_NoNewEvidenceKeepsSeverity(t *testing.T) {
	targets := new(mockTargets)
	lit := new(mockLiterature)
	compounds := new(mockCompounds)

	targets.On("GetSafetyLiabilities", mock.Anything, "ENSG00000000002").
		Return([]opentargets.SafetyLiability{{Event: "hepatotoxicity"}}, nil)
	noSecondaryHits(lit, compounds)

	inv := NewInvestigator(targets, lit, compounds, 10)
	profile := inv.Investigate(context.Background(), "ENSG00000000002", "ABCB1")

	require.Len(t, profile.Signals, 1)
	sig := profile.Signals[0]
	assert.Equal(t, model.SeverityHigh, sig.Severity)
	assert.Empty(t, sig.Evidence)
	assert.Equal(t, "Investigation added no new evidence.", sig.InvestigationSummary)
}

func TestInvestigate_UntouchedSignalsKeepOrder(t *testing.T) {
	targets := new(mockTargets)
	lit := new(mockLiterature)
	compounds := new(mockCompounds)

	targets.On("GetSafetyLiabilities", mock.Anything, "ENSG00000000003").
		Return([]opentargets.SafetyLiability{
			{Event: "mild rash"},
			{Event: "hepatotoxicity"},
			{Event: "headache"},
		}, nil)
	noSecondaryHits(lit, compounds)

	inv := NewInvestigator(targets, lit, compounds, 10)
	profile := inv.Investigate(context.Background(), "ENSG00000000003", "BRAF")

	require.Len(t, profile.Signals, 3)
	assert.Equal(t, "mild rash", profile.Signals[0].SignalType)
	assert.Equal(t, "hepatotoxicity", profile.Signals[1].SignalType)
	assert.Equal(t, "headache", profile.Signals[2].SignalType)
	assert.Empty(t, profile.Signals[0].InvestigationSummary)
	assert.NotEmpty(t, profile.Signals[1].InvestigationSummary)
	assert.Empty(t, profile.Signals[2].InvestigationSummary)
}

func TestBuildProfile_ThreeHighsImplyCritical(t *testing.T) {
	profile := buildProfile([]model.SafetySignal{
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityHigh},
	})

	assert.Equal(t, model.SeverityCritical, profile.OverallRisk)
	assert.Equal(t, 3, profile.SeverityCount[model.SeverityHigh.String()])
}

func TestBuildProfile_MaxSeverity(t *testing.T) {
	profile := buildProfile([]model.SafetySignal{
		{Severity: model.SeverityLow},
		{Severity: model.SeverityModerate},
	})
	assert.Equal(t, model.SeverityModerate, profile.OverallRisk)
}

func TestSummarize_Deterministic(t *testing.T) {
	added := []model.SafetyEvidence{
		{Type: model.EvidenceRegulatory},
		{Type: model.EvidenceLiterature},
		{Type: model.EvidenceLiterature},
		{Type: model.EvidenceCompound},
	}
	expected := "Investigation added 4 evidence items: 2 literature, 1 compound, 1 regulatory."
	assert.Equal(t, expected, summarize(added))
	assert.Equal(t, expected, summarize(added))
}

func TestSignalFromLiability_OrganFromBiosample(t *testing.T) {
	sig := signalFromLiability(opentargets.SafetyLiability{
		Event:      "contractility changes",
		Biosamples: []opentargets.Biosample{{TissueLabel: "cardiac muscle"}},
		Effects:    []opentargets.LiabilityEffect{{Direction: "activation"}},
	})

	assert.Equal(t, "heart", sig.OrganSystem)
	assert.Equal(t, "contractility changes (activation)", sig.Description)
}
