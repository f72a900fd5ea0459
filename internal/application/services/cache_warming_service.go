package services

import (
	"context"
	"fmt"
	"time"

	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/infrastructure/observability"
)

// CacheWarmingService preloads the report list pages the dashboard opens with
type CacheWarmingService struct {
	reportRepo repositories.ReportRepository
	pages      []repositories.ReportFilter
}

// NewCacheWarmingService creates a new cache warming service. reportRepo is
// expected to be the cached repository so List fills the cache.
func NewCacheWarmingService(reportRepo repositories.ReportRepository) *CacheWarmingService {
	return &CacheWarmingService{
		reportRepo: reportRepo,
		pages: []repositories.ReportFilter{
			{Limit: 0, Offset: 0},
			{Limit: DefaultPageSize, Offset: 0},
		},
	}
}

// WarmCache loads every configured page once
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	for _, page := range s.pages {
		reports, err := s.reportRepo.List(ctx, page)
		if err != nil {
			return fmt.Errorf("failed to warm report list (limit=%d offset=%d): %w", page.Limit, page.Offset, err)
		}
		logger.Debug().Int("limit", page.Limit).Int("reports", len(reports)).Msg("Warmed report list")
	}

	logger.Info().Dur("took", time.Since(start)).Int("pages", len(s.pages)).Msg("Cache warming completed")
	return nil
}
