package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/providers"
	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/infrastructure/observability"
)

// reportsListTTL is how long a list page stays cached, in seconds
const reportsListTTL = 60

// reportsGenerationKey names the current generation of list pages. Create
// replaces it, so a page cached under an older generation is never read again.
const reportsGenerationKey = "reports:generation"

// initialGeneration is used until the first Create writes a generation
const initialGeneration = "0"

const reportsListPattern = "reports:list:*"

func reportsListCacheKey(generation string, filter repositories.ReportFilter) string {
	return fmt.Sprintf("reports:list:%s:%d:%d", generation, filter.Limit, filter.Offset)
}

// CachedReportAdapter wraps a ReportRepository with a list-page cache.
// Every Create starts a new page generation.
type CachedReportAdapter struct {
	adapter repositories.ReportRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedReportAdapter creates a new cached report adapter
func NewCachedReportAdapter(adapter repositories.ReportRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.ReportRepository {
	return &CachedReportAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// Create stores the report, moves list pages to a new generation and drops
// the pages of earlier generations
func (a *CachedReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	if err := a.adapter.Create(ctx, report); err != nil {
		return err
	}

	logger := observability.LoggerFromContext(ctx)
	if err := a.cache.Set(ctx, reportsGenerationKey, []byte(uuid.NewString()), 0); err != nil {
		logger.Warn().Err(err).Msg("Failed to start a new report list generation")
	}
	if err := a.cache.DeletePattern(ctx, reportsListPattern); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate cached report lists")
	}
	return nil
}

// List serves a page from cache when possible
func (a *CachedReportAdapter) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	logger := observability.LoggerFromContext(ctx)

	generation, err := a.generation(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Report list cache unavailable")
		return a.adapter.List(ctx, filter)
	}
	cacheKey := reportsListCacheKey(generation, filter)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var reports []*entities.Report
		if err := json.Unmarshal(cached, &reports); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, "reports:list")
			return reports, nil
		}
		logger.Warn().Err(err).Str("key", cacheKey).Msg("Discarding unreadable cached report list")
	}
	observability.RecordCacheMiss(ctx, a.metrics, "reports:list")

	reports, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(reports); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, reportsListTTL); err != nil {
			logger.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache report list")
		}
	}

	return reports, nil
}

func (a *CachedReportAdapter) generation(ctx context.Context) (string, error) {
	data, err := a.cache.Get(ctx, reportsGenerationKey)
	if errors.Is(err, providers.ErrCacheMiss) {
		return initialGeneration, nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
