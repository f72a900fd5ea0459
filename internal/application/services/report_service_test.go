package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/feyti/medreport/internal/adapters/documents"
	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/providers"
	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/extraction"
	"github.com/feyti/medreport/internal/translation"
	apperrors "github.com/feyti/medreport/pkg/errors"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *entities.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) List(ctx context.Context, filter repositories.ReportFilter) ([]*entities.Report, error) {
	args := m.Called(ctx, filter)
	if reports, ok := args.Get(0).([]*entities.Report); ok {
		return reports, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) Index(ctx context.Context, report *entities.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockSearchRepository) Search(ctx context.Context, params repositories.ReportSearchParams) (*repositories.ReportSearchResult, error) {
	args := m.Called(ctx, params)
	if result, ok := args.Get(0).(*repositories.ReportSearchResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCacheProvider struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (m *MockCacheProvider) Set(_ context.Context, key string, value []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(_ context.Context, _ string) error {
	return nil
}

type MockEventBus struct {
	mu        sync.Mutex
	published []*entities.ReportEvent
	err       error
}

func (m *MockEventBus) Publish(_ context.Context, channel string, event *entities.ReportEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if channel == providers.EventChannelReports {
		m.published = append(m.published, event)
	}
	return nil
}

func (m *MockEventBus) Subscribe(_ context.Context, _ string) (<-chan *entities.ReportEvent, error) {
	return make(chan *entities.ReportEvent), nil
}

func (m *MockEventBus) Unsubscribe(_ context.Context, _ string) error { return nil }

func (m *MockEventBus) Close() error { return nil }

type stubDecoder struct {
	text string
	err  error
}

func (d stubDecoder) Decode(_ []byte, _ documents.Format) (string, error) {
	return d.text, d.err
}

func storeWithID(id int64, createdAt time.Time) func(mock.Arguments) {
	return func(args mock.Arguments) {
		report := args.Get(1).(*entities.Report)
		report.ID = id
		report.CreatedAt = createdAt
	}
}

func TestReportService_ProcessReport(t *testing.T) {
	repo := new(MockReportRepository)
	search := new(MockSearchRepository)
	bus := &MockEventBus{}
	created := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)

	text := "Patient took Drug X and experienced severe nausea and headache. Patient recovered."
	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.Report) bool {
		return r.ReportText == text && r.Drug == "Drug X" && r.Severity == "severe"
	})).Run(storeWithID(11, created)).Return(nil)
	search.On("Index", mock.Anything, mock.AnythingOfType("*entities.Report")).Return(nil)

	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, nil, bus, search, nil)
	result, err := service.ProcessReport(context.Background(), text)

	require.NoError(t, err)
	assert.Equal(t, int64(11), result.ID)
	assert.Equal(t, text, result.OriginalReport)
	assert.Equal(t, created, result.CreatedAt)
	assert.Equal(t, "Drug X", result.Drug)
	assert.Equal(t, []string{"headache", "nausea"}, result.AdverseEvents)
	assert.Equal(t, extraction.SeveritySevere, result.Severity)
	assert.Equal(t, extraction.OutcomeRecovered, result.Outcome)

	require.Len(t, bus.published, 1)
	assert.Equal(t, int64(11), bus.published[0].ReportID)
	assert.Equal(t, entities.ReportEventTypeProcessed, bus.published[0].EventType)
	repo.AssertExpectations(t)
	search.AssertExpectations(t)
}

func TestReportService_ProcessReportResponseShape(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Create", mock.Anything, mock.Anything).Run(storeWithID(1, time.Unix(0, 0).UTC())).Return(nil)

	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, nil, nil, nil, nil)
	result, err := service.ProcessReport(context.Background(), "Drug Y caused mild rash.")
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	for _, key := range []string{"id", "drug", "adverse_events", "severity", "outcome", "original_report", "summary", "text_hash", "patient_info", "diagnoses"} {
		assert.Contains(t, body, key)
	}
	assert.Equal(t, "Drug Y caused mild rash.", body["original_report"])
}

func TestReportService_RejectsEmptyText(t *testing.T) {
	repo := new(MockReportRepository)
	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, nil, nil, nil, nil)

	for _, text := range []string{"", "  \n\t"} {
		result, err := service.ProcessReport(context.Background(), text)

		assert.Nil(t, result)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "Report text is required", apperrors.MessageOf(err))
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportService_ExtractionFailureStoresNothing(t *testing.T) {
	repo := new(MockReportRepository)
	bus := &MockEventBus{}
	assembler := extraction.NewAssembler(extraction.WithClock(func() time.Time { panic("clock stopped") }))
	service := NewReportService(assembler, repo, nil, nil, nil, bus, nil, nil)

	result, err := service.ProcessReport(context.Background(), "Drug X caused fever.")

	assert.Nil(t, result)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, bus.published)
}

func TestReportService_StorageFailureSkipsSideChannels(t *testing.T) {
	repo := new(MockReportRepository)
	search := new(MockSearchRepository)
	bus := &MockEventBus{}
	repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.NewInternalError("failed to create report", errors.New("db down")))

	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, nil, bus, search, nil)
	_, err := service.ProcessReport(context.Background(), "Drug X caused fever.")

	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
	assert.Empty(t, bus.published)
	search.AssertNotCalled(t, "Index", mock.Anything, mock.Anything)
}

func TestReportService_SideChannelFailuresAreIgnored(t *testing.T) {
	repo := new(MockReportRepository)
	search := new(MockSearchRepository)
	bus := &MockEventBus{err: errors.New("redis unavailable")}
	repo.On("Create", mock.Anything, mock.Anything).Run(storeWithID(3, time.Now().UTC())).Return(nil)
	search.On("Index", mock.Anything, mock.Anything).Return(errors.New("typesense unavailable"))

	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, nil, bus, search, nil)
	result, err := service.ProcessReport(context.Background(), "Drug Z with moderate dizziness.")

	require.NoError(t, err)
	assert.Equal(t, int64(3), result.ID)
	search.AssertExpectations(t)
}

func TestReportService_UsesExtractionCache(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Create", mock.Anything, mock.Anything).Run(storeWithID(5, time.Now().UTC())).Return(nil)
	cache := NewMockCacheProvider()

	text := "Drug Q caused mild fatigue."
	cached, err := json.Marshal(&extraction.StructuredReport{
		Drug:          "Cached Drug",
		AdverseEvents: []string{"fatigue"},
		Severity:      extraction.SeverityMild,
		Outcome:       extraction.OutcomeUnknown,
		TextHash:      extraction.GenerateTextHash(text),
	})
	require.NoError(t, err)
	cache.data[extractionCacheKey(extraction.GenerateTextHash(text))] = cached

	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, cache, nil, nil, nil)
	result, err := service.ProcessReport(context.Background(), text)

	require.NoError(t, err)
	assert.Equal(t, "Cached Drug", result.Drug)
	repo.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(r *entities.Report) bool {
		return r.Drug == "Cached Drug"
	}))
}

func TestReportService_CachedExtractionIsRestamped(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	cache := NewMockCacheProvider()

	text := "Drug Q caused mild fatigue."
	cached, err := json.Marshal(&extraction.StructuredReport{
		Drug:        "Drug Q",
		TextHash:    extraction.GenerateTextHash(text),
		ProcessedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	cache.data[extractionCacheKey(extraction.GenerateTextHash(text))] = cached

	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	assembler := extraction.NewAssembler(extraction.WithClock(func() time.Time { return now }))
	service := NewReportService(assembler, repo, nil, nil, cache, nil, nil, nil)
	result, err := service.ProcessReport(context.Background(), text)

	require.NoError(t, err)
	assert.Equal(t, now, result.ProcessedAt)
}

func TestReportService_TruncatesLongDrugNames(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	text := "patient was taking " + strings.Repeat("x", 400) + " daily"
	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, nil, nil, nil, nil)
	result, err := service.ProcessReport(context.Background(), text)

	require.NoError(t, err)
	assert.Len(t, result.Drug, entities.MaxDrugLength)
	repo.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(r *entities.Report) bool {
		return len(r.Drug) == entities.MaxDrugLength
	}))
}

func TestReportService_PopulatesExtractionCache(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	cache := NewMockCacheProvider()

	text := "Drug Q caused mild fatigue."
	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, cache, nil, nil, nil)
	_, err := service.ProcessReport(context.Background(), text)
	require.NoError(t, err)

	data, ok := cache.data[extractionCacheKey(extraction.GenerateTextHash(text))]
	require.True(t, ok)
	var stored extraction.StructuredReport
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "Drug Q", stored.Drug)
}

func TestReportService_ProcessDocument(t *testing.T) {
	t.Run("invalid type", func(t *testing.T) {
		service := NewReportService(extraction.NewAssembler(), new(MockReportRepository), stubDecoder{}, nil, nil, nil, nil, nil)

		_, err := service.ProcessDocument(context.Background(), "scan.png", "image/png", []byte{0x89})

		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("no text", func(t *testing.T) {
		service := NewReportService(extraction.NewAssembler(), new(MockReportRepository), stubDecoder{text: ""}, nil, nil, nil, nil, nil)

		_, err := service.ProcessDocument(context.Background(), "empty.txt", "text/plain", []byte("   "))

		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("decoded text is processed", func(t *testing.T) {
		repo := new(MockReportRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.Report) bool {
			return r.ReportText == "Drug X caused rash."
		})).Return(nil)
		service := NewReportService(extraction.NewAssembler(), repo, stubDecoder{text: "Drug X caused rash."}, nil, nil, nil, nil, nil)

		result, err := service.ProcessDocument(context.Background(), "report.pdf", "application/pdf", []byte("%PDF"))

		require.NoError(t, err)
		assert.Equal(t, []string{"rash"}, result.AdverseEvents)
		repo.AssertExpectations(t)
	})
}

func TestReportService_ListReports(t *testing.T) {
	repo := new(MockReportRepository)
	reports := []*entities.Report{{ID: 2}, {ID: 1}}
	repo.On("List", mock.Anything, repositories.ReportFilter{Limit: 10, Offset: 0}).Return(reports, nil)

	service := NewReportService(extraction.NewAssembler(), repo, nil, nil, nil, nil, nil, nil)
	got, err := service.ListReports(context.Background(), 10, -4)

	require.NoError(t, err)
	assert.Equal(t, reports, got)
}

func TestReportService_SearchReports(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		service := NewReportService(extraction.NewAssembler(), new(MockReportRepository), nil, nil, nil, nil, nil, nil)

		_, err := service.SearchReports(context.Background(), repositories.ReportSearchParams{Query: "rash"})

		assert.True(t, apperrors.IsUnavailable(err))
		assert.False(t, service.SearchEnabled())
	})

	t.Run("applies default page size", func(t *testing.T) {
		search := new(MockSearchRepository)
		expected := &repositories.ReportSearchResult{Reports: []*entities.Report{{ID: 4}}, Found: 1}
		search.On("Search", mock.Anything, repositories.ReportSearchParams{Query: "rash", Limit: DefaultPageSize}).Return(expected, nil)
		service := NewReportService(extraction.NewAssembler(), new(MockReportRepository), nil, nil, nil, nil, search, nil)

		result, err := service.SearchReports(context.Background(), repositories.ReportSearchParams{Query: "rash"})

		require.NoError(t, err)
		assert.Equal(t, expected, result)
	})
}

func TestReportService_Translate(t *testing.T) {
	facade := translation.NewFacade(nil, translation.Config{}, nil)
	service := NewReportService(extraction.NewAssembler(), new(MockReportRepository), nil, facade, nil, nil, nil, nil)

	result, err := service.Translate(context.Background(), "Patient recovered", "sw")

	require.NoError(t, err)
	assert.Equal(t, "patient umepona", result.TranslatedText)
	assert.Equal(t, "Swahili", result.TargetLanguage)
}

func TestCacheWarmingService_WarmCache(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("List", mock.Anything, mock.Anything).Return([]*entities.Report{}, nil)

	require.NoError(t, NewCacheWarmingService(repo).WarmCache(context.Background()))
	repo.AssertNumberOfCalls(t, "List", 2)

	failing := new(MockReportRepository)
	failing.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	assert.Error(t, NewCacheWarmingService(failing).WarmCache(context.Background()))
}
