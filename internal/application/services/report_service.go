package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/feyti/medreport/internal/adapters/documents"
	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/providers"
	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/extraction"
	"github.com/feyti/medreport/internal/infrastructure/observability"
	"github.com/feyti/medreport/internal/translation"
	apperrors "github.com/feyti/medreport/pkg/errors"
)

// extractionCacheTTL keeps extraction results for identical texts, in seconds
const extractionCacheTTL = 3600

// DefaultPageSize is used when a list or search request carries no limit
const DefaultPageSize = 50

func extractionCacheKey(hash string) string {
	return "extraction:" + hash
}

// DocumentDecoder turns uploaded file content into text
type DocumentDecoder interface {
	Decode(content []byte, format documents.Format) (string, error)
}

// Translator translates free text
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (*translation.Result, error)
}

// ProcessedReport is a stored report together with every extracted field
type ProcessedReport struct {
	*extraction.StructuredReport
	ID             int64     `json:"id"`
	OriginalReport string    `json:"original_report"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReportService runs the extraction pipeline and owns report storage.
// cache, events and search are optional and may be nil.
type ReportService struct {
	assembler  *extraction.Assembler
	repo       repositories.ReportRepository
	decoder    DocumentDecoder
	translator Translator
	cache      providers.CacheProvider
	events     providers.EventBus
	search     repositories.ReportSearchRepository
	metrics    *observability.Metrics
}

// NewReportService creates a new report service
func NewReportService(
	assembler *extraction.Assembler,
	repo repositories.ReportRepository,
	decoder DocumentDecoder,
	translator Translator,
	cache providers.CacheProvider,
	events providers.EventBus,
	search repositories.ReportSearchRepository,
	metrics *observability.Metrics,
) *ReportService {
	return &ReportService{
		assembler:  assembler,
		repo:       repo,
		decoder:    decoder,
		translator: translator,
		cache:      cache,
		events:     events,
		search:     search,
		metrics:    metrics,
	}
}

// SearchEnabled reports whether a search index is configured
func (s *ReportService) SearchEnabled() bool {
	return s.search != nil
}

// ProcessReport extracts the structured fields of text and stores the report
func (s *ReportService) ProcessReport(ctx context.Context, text string) (*ProcessedReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("Report text is required")
	}

	ctx, span := observability.StartSpan(ctx, "ReportService.ProcessReport")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	structured, err := s.extract(ctx, text)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	structured.Drug = entities.TruncateDrug(structured.Drug)
	report := &entities.Report{
		ReportText:    text,
		Drug:          structured.Drug,
		AdverseEvents: structured.AdverseEvents,
		Severity:      string(structured.Severity),
		Outcome:       string(structured.Outcome),
		TextHash:      structured.TextHash,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	s.metrics.RecordReportProcessed(ctx, report.Severity)

	logger.Info().
		Int64("report_id", report.ID).
		Str("drug", report.Drug).
		Str("severity", report.Severity).
		Str("outcome", report.Outcome).
		Int("adverse_events", len(report.AdverseEvents)).
		Msg("Processed report")

	s.publish(ctx, report)
	s.index(ctx, report)

	return &ProcessedReport{
		StructuredReport: structured,
		ID:               report.ID,
		OriginalReport:   report.ReportText,
		CreatedAt:        report.CreatedAt,
	}, nil
}

// ProcessDocument decodes an uploaded file and processes its text
func (s *ReportService) ProcessDocument(ctx context.Context, filename, contentType string, content []byte) (*ProcessedReport, error) {
	format, err := documents.DetectFormat(filename, contentType)
	if err != nil {
		return nil, err
	}

	text, err := s.decoder.Decode(content, format)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, apperrors.NewValidationError("No text could be extracted from the uploaded file")
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("filename", filename).
		Str("format", string(format)).
		Int("chars", len(text)).
		Msg("Decoded uploaded report")

	return s.ProcessReport(ctx, text)
}

// ListReports returns stored reports newest first
func (s *ReportService) ListReports(ctx context.Context, limit, offset int) ([]*entities.Report, error) {
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, repositories.ReportFilter{Limit: limit, Offset: offset})
}

// SearchReports runs a full-text query over indexed reports
func (s *ReportService) SearchReports(ctx context.Context, params repositories.ReportSearchParams) (*repositories.ReportSearchResult, error) {
	if s.search == nil {
		return nil, apperrors.NewUnavailableError("Report search is not enabled")
	}
	if params.Limit <= 0 {
		params.Limit = DefaultPageSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.search.Search(ctx, params)
}

// Translate translates text into targetLang
func (s *ReportService) Translate(ctx context.Context, text, targetLang string) (*translation.Result, error) {
	return s.translator.Translate(ctx, text, targetLang)
}

// extract serves repeated texts from the extraction cache
func (s *ReportService) extract(ctx context.Context, text string) (*extraction.StructuredReport, error) {
	if s.cache == nil {
		return s.assembler.Process(text)
	}

	key := extractionCacheKey(extraction.GenerateTextHash(text))
	logger := observability.LoggerFromContext(ctx)

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var structured extraction.StructuredReport
		if err := json.Unmarshal(cached, &structured); err == nil {
			structured.ProcessedAt = s.assembler.Now()
			observability.RecordCacheHit(ctx, s.metrics, "extraction")
			return &structured, nil
		}
		logger.Warn().Str("key", key).Msg("Discarding unreadable cached extraction")
	case !errors.Is(err, providers.ErrCacheMiss):
		logger.Warn().Err(err).Str("key", key).Msg("Extraction cache unavailable")
	}
	observability.RecordCacheMiss(ctx, s.metrics, "extraction")

	structured, err := s.assembler.Process(text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(structured); err == nil {
		if err := s.cache.Set(ctx, key, data, extractionCacheTTL); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache extraction")
		}
	}
	return structured, nil
}

func (s *ReportService) publish(ctx context.Context, report *entities.Report) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, providers.EventChannelReports, entities.NewReportEvent(report)); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Int64("report_id", report.ID).Msg("Failed to publish report event")
	}
}

func (s *ReportService) index(ctx context.Context, report *entities.Report) {
	if s.search == nil {
		return
	}
	if err := s.search.Index(ctx, report); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Int64("report_id", report.ID).Msg("Failed to index report")
	}
}
