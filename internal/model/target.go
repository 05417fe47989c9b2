package model

// TargetIdentity is a resolved gene/protein candidate. Immutable once
// resolved for a given analysis.
type TargetIdentity struct {
	ID              string `json:"id"`
	Symbol          string `json:"symbol"`
	Name            string `json:"name"`
	Biotype         string `json:"biotype,omitempty"`
	Description     string `json:"description,omitempty"`
	GenomicLocation string `json:"genomic_location,omitempty"`
}

// AssociationScore holds the overall disease association plus the seven
// datatype sub-scores, all in [0,1]. Absence of data for a disease-target
// pair is the zero value, never nil, so scorer math stays total.
type AssociationScore struct {
	Overall            float64 `json:"overall"`
	GeneticAssociation float64 `json:"genetic_association"`
	SomaticMutation    float64 `json:"somatic_mutation"`
	KnownDrug          float64 `json:"known_drug"`
	AffectedPathway    float64 `json:"affected_pathway"`
	Literature         float64 `json:"literature"`
	RNAExpression      float64 `json:"rna_expression"`
	AnimalModel        float64 `json:"animal_model"`
}

// Modality is one druggability assessment channel.
type Modality struct {
	Assessed   bool     `json:"assessed"`
	Categories []string `json:"categories,omitempty"`
}

// Tractability holds per-modality druggability assessments. An empty or
// absent modality means "not assessed", never "untractable".
type Tractability struct {
	SmallMolecule Modality `json:"small_molecule"`
	Antibody      Modality `json:"antibody"`
	Protac        Modality `json:"protac"`
	Other         Modality `json:"other"`
}

// KnownDrug is an approved or investigational drug acting on a target.
type KnownDrug struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Phase             int    `json:"phase"`
	MechanismOfAction string `json:"mechanism_of_action,omitempty"`
	DiseaseID         string `json:"disease_id,omitempty"`
	DiseaseName       string `json:"disease_name,omitempty"`
	Status            string `json:"status,omitempty"`
}
