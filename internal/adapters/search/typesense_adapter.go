package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/repositories"
	tsclient "github.com/feyti/medreport/internal/infrastructure/clients/typesense"
)

const defaultSearchLimit = 20

// TypesenseAdapter implements report search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ReportSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index upserts a report document
func (a *TypesenseAdapter) Index(ctx context.Context, report *entities.Report) error {
	document := map[string]interface{}{
		"id":             strconv.FormatInt(report.ID, 10),
		"report_text":    report.ReportText,
		"drug":           report.Drug,
		"adverse_events": report.AdverseEvents,
		"severity":       report.Severity,
		"outcome":        report.Outcome,
		"text_hash":      report.TextHash,
		"created_at":     report.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.ReportsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index report %d: %w", report.ID, err)
	}
	return nil
}

// Search runs a full-text query over report text, drug and adverse events
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.ReportSearchParams) (*repositories.ReportSearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q := params.Query
	if q == "" {
		q = "*"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("drug,adverse_events,report_text"),
		SortBy:  pointer.String("_text_match:desc,created_at:desc"),
		Page:    pointer.Int(params.Offset/limit + 1),
		PerPage: pointer.Int(limit),
	}
	if params.Severity != "" {
		searchParams.FilterBy = pointer.String("severity:=" + params.Severity)
	}

	result, err := a.client.Client().Collection(tsclient.ReportsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search reports: %w", err)
	}

	out := &repositories.ReportSearchResult{Reports: []*entities.Report{}}
	if result.Found != nil {
		out.Found = *result.Found
	}
	if result.Hits == nil {
		return out, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		out.Reports = append(out.Reports, reportFromDocument(*hit.Document))
	}
	return out, nil
}

// reportFromDocument rebuilds a report from a search hit; missing or
// mistyped fields are left at their zero value.
func reportFromDocument(doc map[string]interface{}) *entities.Report {
	report := &entities.Report{AdverseEvents: []string{}}

	if id, ok := doc["id"].(string); ok {
		report.ID, _ = strconv.ParseInt(id, 10, 64)
	}
	report.ReportText, _ = doc["report_text"].(string)
	report.Drug, _ = doc["drug"].(string)
	report.Severity, _ = doc["severity"].(string)
	report.Outcome, _ = doc["outcome"].(string)
	report.TextHash, _ = doc["text_hash"].(string)

	if events, ok := doc["adverse_events"].([]interface{}); ok {
		for _, e := range events {
			if s, ok := e.(string); ok {
				report.AdverseEvents = append(report.AdverseEvents, s)
			}
		}
	}
	if ts, ok := doc["created_at"].(float64); ok {
		report.CreatedAt = time.Unix(int64(ts), 0).UTC()
	}
	return report
}
