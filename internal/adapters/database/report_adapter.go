package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/infrastructure/clients/postgres"
	"github.com/feyti/medreport/internal/infrastructure/observability"
	apperrors "github.com/feyti/medreport/pkg/errors"
)

const reportsTable = "reports"

const reportsSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id             BIGSERIAL PRIMARY KEY,
	report_text    TEXT NOT NULL,
	drug           VARCHAR(255) NOT NULL,
	adverse_events TEXT NOT NULL,
	severity       VARCHAR(50) NOT NULL,
	outcome        VARCHAR(50) NOT NULL,
	text_hash      VARCHAR(32),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_reports_text_hash ON reports (text_hash);
`

var reportColumns = []interface{}{
	"id", "report_text", "drug", "adverse_events", "severity", "outcome", "text_hash", "created_at",
}

// ReportAdapter implements ReportRepository on PostgreSQL
type ReportAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewReportAdapter creates a new report adapter. metrics may be nil.
func NewReportAdapter(client *postgres.Client, metrics *observability.Metrics) *ReportAdapter {
	return &ReportAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

var _ repositories.ReportRepository = (*ReportAdapter)(nil)

// EnsureSchema creates the reports table and its indexes if they are missing
func (a *ReportAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, reportsSchema); err != nil {
		return apperrors.NewInternalError("failed to create reports schema", err)
	}
	return nil
}

// Create inserts a report and fills in its generated ID and CreatedAt
func (a *ReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "reports.create", time.Since(start)) }()

	record := goqu.Record{
		"report_text":    report.ReportText,
		"drug":           report.Drug,
		"adverse_events": entities.JoinAdverseEvents(report.AdverseEvents),
		"severity":       report.Severity,
		"outcome":        report.Outcome,
		"text_hash":      sql.NullString{String: report.TextHash, Valid: report.TextHash != ""},
	}
	if !report.CreatedAt.IsZero() {
		record["created_at"] = report.CreatedAt.UTC()
	}

	query, args, err := a.db.Insert(reportsTable).
		Prepared(true).
		Rows(record).
		Returning("id", "created_at").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	var createdAt time.Time
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&report.ID, &createdAt); err != nil {
		return apperrors.NewInternalError("failed to create report", err)
	}
	report.CreatedAt = createdAt.UTC()

	return nil
}

// List returns reports newest first. A non-positive limit returns every report.
func (a *ReportAdapter) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	start := time.Now()
	defer func() { observability.RecordDBMetric(ctx, a.metrics, "reports.list", time.Since(start)) }()

	ds := a.db.Select(reportColumns...).
		From(reportsTable).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Prepared(true)
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build select query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reports", err)
	}
	defer rows.Close()

	reports := make([]*entities.Report, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan report", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate reports", err)
	}

	return reports, nil
}

func scanReport(rows *sql.Rows) (*entities.Report, error) {
	var (
		report        entities.Report
		adverseEvents string
		textHash      sql.NullString
	)
	if err := rows.Scan(
		&report.ID,
		&report.ReportText,
		&report.Drug,
		&adverseEvents,
		&report.Severity,
		&report.Outcome,
		&textHash,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}

	report.AdverseEvents = entities.SplitAdverseEvents(adverseEvents)
	report.TextHash = textHash.String
	report.CreatedAt = report.CreatedAt.UTC()
	return &report, nil
}
