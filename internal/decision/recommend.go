package decision

import (
	"fmt"
	"sort"

	"github.com/meridian-bio/triage-cli/internal/model"
)

// recommend generates the recommendation list for a final verdict from a
// fixed template set, parameterized by which flags fired.
func recommend(verdict model.Verdict, noGo, caution, investigation []string, signals []model.SafetySignal) []string {
	var recs []string

	switch verdict {
	case model.VerdictGo:
		recs = append(recs,
			"Advance to hit discovery and assay development.",
			"Establish intellectual property position early; the landscape is favorable.",
		)

	case model.VerdictGoWithCaution:
		recs = append(recs, "Proceed to validation with an explicit risk-mitigation plan.")
		for _, organ := range signalOrgans(signals) {
			recs = append(recs, fmt.Sprintf("Prioritize %s safety assays in early screening.", organ))
		}
		for _, flag := range caution {
			recs = append(recs, "Monitor: "+flag+".")
		}

	case model.VerdictInvestigateFurther:
		recs = append(recs, "Commission a deeper review before committing discovery resources.")
		for _, flag := range investigation {
			recs = append(recs, "Resolve: "+flag+".")
		}
		for _, organ := range signalOrgans(signals) {
			recs = append(recs, fmt.Sprintf("Include %s toxicity in the review scope.", organ))
		}

	case model.VerdictNoGo:
		recs = append(recs, "Deprioritize this target for the indication.")
		for _, reason := range noGo {
			recs = append(recs, "Disqualifying: "+reason+".")
		}
	}

	return recs
}

// signalOrgans returns the distinct organ systems carried by HIGH or
// CRITICAL signals, sorted for deterministic output.
func signalOrgans(signals []model.SafetySignal) []string {
	seen := make(map[string]bool)
	for _, sig := range signals {
		if sig.Severity >= model.SeverityHigh && sig.OrganSystem != "" {
			seen[sig.OrganSystem] = true
		}
	}
	organs := make([]string, 0, len(seen))
	for organ := range seen {
		organs = append(organs, organ)
	}
	sort.Strings(organs)
	return organs
}
