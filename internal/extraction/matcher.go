package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// keyedRule fills a single key of a map-valued field.
type keyedRule struct {
	key     string
	pattern *regexp.Regexp
}

// fieldRule locates every occurrence of one kind of multi-value field.
type fieldRule struct {
	kind       FieldKind
	pattern    *regexp.Regexp
	confidence float64
	// minLen is an exclusive lower bound on the trimmed text length in
	// characters. Empty text is always dropped.
	minLen int
	// wholeMatch keeps the full match instead of capture group 1.
	wholeMatch bool
}

// firstPerKey applies rules in order. The first rule whose value is accepted
// settles a key; later rules for the same key are skipped. normalize may
// reject a captured value, in which case the next rule for the key is tried.
func firstPerKey(text string, rules []keyedRule, normalize func(key, value string) (string, bool)) map[string]string {
	out := make(map[string]string)
	settled := make(map[string]bool)

	for _, rule := range rules {
		if settled[rule.key] {
			continue
		}
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		value := strings.TrimSpace(m[1])
		if normalize != nil {
			var ok bool
			if value, ok = normalize(rule.key, value); !ok {
				continue
			}
		}
		out[rule.key] = value
		settled[rule.key] = true
	}
	return out
}

// collect returns every match of every rule, in rule order then text order.
// Overlapping matches from different rules are all kept.
func collect(text string, rules []fieldRule) []ExtractedField {
	fields := make([]ExtractedField, 0)

	for _, rule := range rules {
		for _, loc := range rule.pattern.FindAllStringSubmatchIndex(text, -1) {
			var value string
			if rule.wholeMatch || len(loc) < 4 || loc[2] < 0 {
				value = text[loc[0]:loc[1]]
			} else {
				value = text[loc[2]:loc[3]]
			}
			value = strings.TrimSpace(value)

			n := utf8.RuneCountInString(value)
			if n == 0 || n <= rule.minLen {
				continue
			}

			fields = append(fields, ExtractedField{
				Text:       value,
				Kind:       rule.kind,
				Start:      loc[0],
				End:        loc[1],
				Confidence: rule.confidence,
			})
		}
	}
	return fields
}

// firstTier returns the label of the first tier with a keyword contained in
// the lowercased text.
func firstTier(text string, tiers []keywordTier, fallback string) string {
	lower := strings.ToLower(text)
	for _, tier := range tiers {
		for _, kw := range tier.keywords {
			if strings.Contains(lower, kw) {
				return tier.label
			}
		}
	}
	return fallback
}
