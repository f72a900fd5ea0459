package extraction

import (
	"sort"
	"strings"
)

// ExtractDrugName returns the most likely drug name in text, or UnknownDrug.
func ExtractDrugName(text string) string {
	if m := drugLiteralPattern.FindString(text); m != "" {
		return m
	}

	for _, line := range strings.Split(text, "\n") {
		if ownedLabelLine.MatchString(line) {
			continue
		}
		candidate := line
		if m := labelledLine.FindStringSubmatch(line); m != nil {
			candidate = m[1]
		}
		if m := strings.TrimSpace(capitalizedPattern.FindString(candidate)); m != "" {
			return m
		}
	}

	if m := administeredPattern.FindStringSubmatch(text); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return UnknownDrug
}

// ExtractAdverseEvents returns the sorted, deduplicated adverse events found
// in text, or a single UnknownSymptoms entry.
func ExtractAdverseEvents(text string) []string {
	found := make(map[string]struct{})
	for _, m := range adverseEventPattern.FindAllString(text, -1) {
		found[strings.ToLower(m)] = struct{}{}
	}

	if len(found) == 0 {
		if m := adverseContextPattern.FindStringSubmatch(text); m != nil {
			vocab := make(map[string]struct{}, len(adverseEventVocabulary))
			for _, term := range adverseEventVocabulary {
				vocab[term] = struct{}{}
			}
			for _, token := range strings.Fields(strings.ToLower(m[1])) {
				if _, ok := vocab[token]; ok {
					found[token] = struct{}{}
				}
			}
		}
	}

	if len(found) == 0 {
		return []string{UnknownSymptoms}
	}

	events := make([]string, 0, len(found))
	for e := range found {
		events = append(events, e)
	}
	sort.Strings(events)
	return events
}

// DetermineSeverity classifies text; the most severe tier mentioned wins.
func DetermineSeverity(text string) Severity {
	return Severity(firstTier(text, severityTiers, string(SeverityUnknown)))
}

// DetermineOutcome classifies the outcome. Recovery terms take precedence over
// fatal terms, which take precedence over ongoing terms.
func DetermineOutcome(text string) Outcome {
	return Outcome(firstTier(text, outcomeTiers, string(OutcomeUnknown)))
}
