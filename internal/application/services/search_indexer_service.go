package services

import (
	"context"
	"fmt"

	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/infrastructure/observability"
)

const defaultIndexBatchSize = 500

// IndexStats summarizes one reindex run
type IndexStats struct {
	Indexed int
	Failed  int
}

// SearchIndexerService rebuilds the search index from stored reports
type SearchIndexerService struct {
	reportRepo repositories.ReportRepository
	searchRepo repositories.ReportSearchRepository
	batchSize  int
}

// NewSearchIndexerService creates an indexer that pages through reportRepo in
// batches of batchSize (500 when batchSize <= 0).
func NewSearchIndexerService(reportRepo repositories.ReportRepository, searchRepo repositories.ReportSearchRepository, batchSize int) *SearchIndexerService {
	if batchSize <= 0 {
		batchSize = defaultIndexBatchSize
	}
	return &SearchIndexerService{
		reportRepo: reportRepo,
		searchRepo: searchRepo,
		batchSize:  batchSize,
	}
}

// Reindex indexes every stored report. A report that fails to index is
// logged and counted; a failed page read aborts the run.
func (s *SearchIndexerService) Reindex(ctx context.Context) (IndexStats, error) {
	logger := observability.LoggerFromContext(ctx)
	var stats IndexStats

	for offset := 0; ; offset += s.batchSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		reports, err := s.reportRepo.List(ctx, repositories.ReportFilter{Limit: s.batchSize, Offset: offset})
		if err != nil {
			return stats, fmt.Errorf("failed to list reports at offset %d: %w", offset, err)
		}

		for _, report := range reports {
			if err := s.searchRepo.Index(ctx, report); err != nil {
				stats.Failed++
				logger.Warn().Err(err).Int64("report_id", report.ID).Msg("Failed to index report")
				continue
			}
			stats.Indexed++
		}

		if len(reports) < s.batchSize {
			break
		}
	}

	logger.Info().Int("indexed", stats.Indexed).Int("failed", stats.Failed).Msg("Reindex complete")
	return stats, nil
}
