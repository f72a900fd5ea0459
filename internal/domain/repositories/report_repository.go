package repositories

import (
	"context"

	"github.com/feyti/medreport/internal/domain/entities"
)

// ReportRepository defines the interface for report persistence
type ReportRepository interface {
	// Create stores a report and fills in its ID and CreatedAt
	Create(ctx context.Context, report *entities.Report) error

	// List returns reports newest first
	List(ctx context.Context, filter ReportFilter) ([]*entities.Report, error)
}

// ReportSearchRepository defines the interface for full-text report search (e.g. Typesense)
type ReportSearchRepository interface {
	// Index adds or replaces a report in the search index
	Index(ctx context.Context, report *entities.Report) error

	// Search runs a full-text query over indexed reports
	Search(ctx context.Context, params ReportSearchParams) (*ReportSearchResult, error)
}

// ReportFilter pages through stored reports
type ReportFilter struct {
	Limit  int
	Offset int
}

// ReportSearchParams defines a full-text search request
type ReportSearchParams struct {
	Query    string
	Severity string
	Limit    int
	Offset   int
}

// ReportSearchResult holds one page of search hits
type ReportSearchResult struct {
	Reports []*entities.Report `json:"reports"`
	Found   int                `json:"found"`
}
