package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Severity orders safety signals from informational up to critical.
type Severity int

const (
	SeverityInformational Severity = iota
	SeverityLow
	SeverityModerate
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInformational: "INFORMATIONAL",
	SeverityLow:           "LOW",
	SeverityModerate:      "MODERATE",
	SeverityHigh:          "HIGH",
	SeverityCritical:      "CRITICAL",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "INFORMATIONAL"
}

// ParseSeverity maps a severity name to its enum value.
func ParseSeverity(name string) (Severity, error) {
	for sev, n := range severityNames {
		if n == name {
			return sev, nil
		}
	}
	return SeverityInformational, eris.Errorf("model: unknown severity %q", name)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return eris.Wrap(err, "model: unmarshal severity")
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// EvidenceType tags the origin of a piece of safety evidence.
type EvidenceType string

const (
	EvidenceLiterature    EvidenceType = "literature"
	EvidenceCompound      EvidenceType = "compound"
	EvidenceClinicalTrial EvidenceType = "clinical_trial"
	EvidenceRegulatory    EvidenceType = "regulatory"
	EvidenceAnimalModel   EvidenceType = "animal_model"
	EvidenceInVitro       EvidenceType = "in_vitro"
)

// SafetyEvidence is one supporting item behind a safety signal.
type SafetyEvidence struct {
	Type        EvidenceType `json:"type"`
	Source      string       `json:"source"`
	Description string       `json:"description"`
	URL         string       `json:"url,omitempty"`
	Confidence  float64      `json:"confidence,omitempty"`
}

// SafetySignal is a reported adverse biological effect associated with
// modulating a target. Severity is monotonic non-decreasing once
// investigation evidence is appended.
type SafetySignal struct {
	SignalType           string           `json:"signal_type"`
	OrganSystem          string           `json:"organ_system,omitempty"`
	Severity             Severity         `json:"severity"`
	Description          string           `json:"description"`
	Evidence             []SafetyEvidence `json:"evidence,omitempty"`
	InvestigationSummary string           `json:"investigation_summary,omitempty"`
}

// Key identifies a signal for merging investigated results back into the
// full list: signal type plus organ system.
func (s SafetySignal) Key() string {
	return s.SignalType + "|" + s.OrganSystem
}

// SafetyProfile is the investigator's output for one target.
type SafetyProfile struct {
	Signals       []SafetySignal `json:"signals"`
	OverallRisk   Severity       `json:"overall_risk"`
	SeverityCount map[string]int `json:"severity_count"`
}
