package entities

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDrugLength is the width of the drug column, in characters.
const MaxDrugLength = 255

// Report is a processed report as persisted in the reports table.
type Report struct {
	ID            int64     `json:"id"`
	ReportText    string    `json:"original_report"`
	Drug          string    `json:"drug"`
	AdverseEvents []string  `json:"adverse_events"`
	Severity      string    `json:"severity"`
	Outcome       string    `json:"outcome"`
	TextHash      string    `json:"text_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// adverseEventSeparator joins adverse events into a single column. An event
// containing a comma does not survive a round trip.
const adverseEventSeparator = ","

// JoinAdverseEvents serializes events for storage.
func JoinAdverseEvents(events []string) string {
	return strings.Join(events, adverseEventSeparator)
}

// SplitAdverseEvents reverses JoinAdverseEvents. An empty column yields an
// empty, non-nil slice.
func SplitAdverseEvents(column string) []string {
	if strings.TrimSpace(column) == "" {
		return []string{}
	}
	parts := strings.Split(column, adverseEventSeparator)
	events := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

// TruncateDrug shortens drug to at most MaxDrugLength runes.
func TruncateDrug(drug string) string {
	if utf8.RuneCountInString(drug) <= MaxDrugLength {
		return drug
	}
	return string([]rune(drug)[:MaxDrugLength])
}
