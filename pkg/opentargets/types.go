package opentargets

// Target is the platform's target entity, trimmed to the fields the triage
// pipeline consumes.
type Target struct {
	ID                   string   `json:"id"`
	ApprovedSymbol       string   `json:"approvedSymbol"`
	ApprovedName         string   `json:"approvedName"`
	Biotype              string   `json:"biotype"`
	FunctionDescriptions []string `json:"functionDescriptions"`
	GenomicLocation      *GenomicLocation `json:"genomicLocation"`
}

// GenomicLocation is the chromosomal position of a target.
type GenomicLocation struct {
	Chromosome string `json:"chromosome"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
}

// Disease is a disease/phenotype entity.
type Disease struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Association is the overall target-disease association with per-datatype
// sub-scores.
type Association struct {
	Score          float64         `json:"score"`
	DatatypeScores []DatatypeScore `json:"datatypeScores"`
}

// DatatypeScore is one datatype's contribution to an association.
// Known ids: genetic_association, somatic_mutation, known_drug,
// affected_pathway, literature, rna_expression, animal_model.
type DatatypeScore struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// TractabilityEntry is one modality/label assessment for a target.
// Modality is one of SM, AB, PR, OC.
type TractabilityEntry struct {
	Modality string `json:"modality"`
	Label    string `json:"label"`
	Value    bool   `json:"value"`
}

// SafetyLiability is one known safety liability for a target.
type SafetyLiability struct {
	Event      string            `json:"event"`
	EventID    string            `json:"eventId"`
	Datasource string            `json:"datasource"`
	Literature string            `json:"literature"`
	URL        string            `json:"url"`
	Effects    []LiabilityEffect `json:"effects"`
	Biosamples []Biosample       `json:"biosamples"`
}

// LiabilityEffect describes the direction and dosing of a liability.
type LiabilityEffect struct {
	Direction string `json:"direction"`
	Dosing    string `json:"dosing"`
}

// Biosample is the tissue/organ a liability was observed in.
type Biosample struct {
	TissueLabel string `json:"tissueLabel"`
	TissueID    string `json:"tissueId"`
}

// KnownDrugRow is one known-drug record for a target.
type KnownDrugRow struct {
	DrugID            string `json:"drugId"`
	PrefName          string `json:"prefName"`
	Phase             int    `json:"phase"`
	MechanismOfAction string `json:"mechanismOfAction"`
	DiseaseID         string `json:"diseaseId"`
	DiseaseName       string `json:"diseaseName"`
	Status            string `json:"status"`
}
