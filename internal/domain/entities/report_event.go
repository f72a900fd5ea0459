package entities

import (
	"time"

	"github.com/google/uuid"
)

// ReportEventType represents the type of report event
type ReportEventType string

const (
	ReportEventTypeProcessed ReportEventType = "report_processed"
)

// ReportEvent is published whenever a report has been processed and stored
type ReportEvent struct {
	ID            string          `json:"id"`
	EventType     ReportEventType `json:"event_type"`
	ReportID      int64           `json:"report_id"`
	Drug          string          `json:"drug"`
	AdverseEvents []string        `json:"adverse_events"`
	Severity      string          `json:"severity"`
	Outcome       string          `json:"outcome"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewReportEvent creates a processed event for report
func NewReportEvent(report *Report) *ReportEvent {
	return &ReportEvent{
		ID:            uuid.NewString(),
		EventType:     ReportEventTypeProcessed,
		ReportID:      report.ID,
		Drug:          report.Drug,
		AdverseEvents: report.AdverseEvents,
		Severity:      report.Severity,
		Outcome:       report.Outcome,
		Timestamp:     time.Now().UTC(),
	}
}
