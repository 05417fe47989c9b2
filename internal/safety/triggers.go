package safety

import (
	"strings"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// criticalOrgans are the organ systems whose signals always warrant
// deeper investigation.
var criticalOrgans = map[string]bool{
	"liver":  true,
	"heart":  true,
	"kidney": true,
	"brain":  true,
	"lung":   true,
}

// investigableTypes are signal types that warrant investigation regardless
// of severity or organ.
var investigableTypes = []string{
	"hepatotoxicity",
	"cardiotoxicity",
	"qt prolongation",
	"arrhythmia",
	"nephrotoxicity",
	"neurotoxicity",
	"seizure",
	"carcinogenicity",
	"teratogenicity",
	"immunosuppression",
}

// severityKeywords maps event-name markers to severities. Evaluated in
// descending severity order, first match wins.
var severityKeywords = []struct {
	severity model.Severity
	keywords []string
}{
	{model.SeverityCritical, []string{
		"death", "fatal", "cardiac arrest", "liver failure", "torsade",
		"stevens-johnson", "anaphyla", "agranulocytosis",
	}},
	{model.SeverityHigh, []string{
		"qt prolongation", "arrhythmia", "hepatotoxicity", "seizure",
		"carcinogen", "teratogen", "hemorrhage", "renal failure",
		"rhabdomyolysis",
	}},
	{model.SeverityModerate, []string{
		"toxicity", "hypertension", "hypotension", "dysfunction",
		"elevated", "prolonged", "impairment", "inflammation",
	}},
	{model.SeverityLow, []string{
		"nausea", "headache", "fatigue", "rash", "dizziness",
	}},
}

// organKeywords maps tissue/event vocabulary to canonical organ systems.
// Ordered so more specific markers win over generic ones.
var organKeywords = []struct {
	organ    string
	keywords []string
}{
	{"liver", []string{"liver", "hepat", "bile", "biliary"}},
	{"heart", []string{"heart", "cardi", "qt", "myocard", "arrhythm"}},
	{"kidney", []string{"kidney", "renal", "nephro"}},
	{"brain", []string{"brain", "neuro", "seizure", "cognit", "cerebr"}},
	{"lung", []string{"lung", "pulmon", "respirat", "bronch"}},
	{"blood", []string{"blood", "hemato", "anemia", "platelet", "neutropenia"}},
	{"skin", []string{"skin", "derma", "rash", "cutaneous"}},
	{"gi", []string{"gastro", "intestin", "colon", "stomach"}},
}

// classifySeverity maps a free-text event name to a severity. Unmatched
// events are informational.
func classifySeverity(event string) model.Severity {
	lower := strings.ToLower(event)
	for _, bucket := range severityKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.severity
			}
		}
	}
	return model.SeverityInformational
}

// classifyOrgan maps free text (event name or tissue label) to a canonical
// organ system, or "" when nothing matches.
func classifyOrgan(text string) string {
	lower := strings.ToLower(text)
	for _, bucket := range organKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.organ
			}
		}
	}
	return ""
}

// needsInvestigation decides whether a signal warrants secondary evidence
// queries. Three independent triggers, any one suffices. Pure predicate.
func needsInvestigation(sig model.SafetySignal) bool {
	if sig.Severity >= model.SeverityHigh {
		return true
	}
	if criticalOrgans[sig.OrganSystem] {
		return true
	}
	lower := strings.ToLower(sig.SignalType)
	for _, t := range investigableTypes {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
