package extraction

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

const (
	summaryMaxLines    = 3
	summaryMinLineSize = 20
)

// GenerateSummary joins up to three clinically relevant lines. Reports with
// no such lines fall back to their first three non-blank lines.
func GenerateSummary(text string) string {
	var relevant, leading []string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if len(leading) < summaryMaxLines {
			leading = append(leading, line)
		}
		if len(relevant) < summaryMaxLines &&
			utf8.RuneCountInString(line) > summaryMinLineSize &&
			containsAny(strings.ToLower(line), summaryKeywords) {
			relevant = append(relevant, line)
		}
	}

	if len(relevant) > 0 {
		return strings.Join(relevant, " ")
	}
	return strings.Join(leading, " ")
}

// GenerateTextHash returns the hex MD5 of text. It identifies duplicate
// submissions and carries no security weight.
func GenerateTextHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
