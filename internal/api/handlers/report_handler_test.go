package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/feyti/medreport/internal/api/handlers"
	"github.com/feyti/medreport/internal/application/services"
	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/repositories"
	"github.com/feyti/medreport/internal/extraction"
	apperrors "github.com/feyti/medreport/pkg/errors"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) ProcessReport(ctx context.Context, text string) (*services.ProcessedReport, error) {
	args := m.Called(ctx, text)
	if result, ok := args.Get(0).(*services.ProcessedReport); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) ProcessDocument(ctx context.Context, filename, contentType string, content []byte) (*services.ProcessedReport, error) {
	args := m.Called(ctx, filename, contentType, content)
	if result, ok := args.Get(0).(*services.ProcessedReport); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) ListReports(ctx context.Context, limit, offset int) ([]*entities.Report, error) {
	args := m.Called(ctx, limit, offset)
	if reports, ok := args.Get(0).([]*entities.Report); ok {
		return reports, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReportService) SearchReports(ctx context.Context, params repositories.ReportSearchParams) (*repositories.ReportSearchResult, error) {
	args := m.Called(ctx, params)
	if result, ok := args.Get(0).(*repositories.ReportSearchResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func processedReport() *services.ProcessedReport {
	return &services.ProcessedReport{
		StructuredReport: &extraction.StructuredReport{
			Drug:          "Drug X",
			AdverseEvents: []string{"nausea"},
			Severity:      extraction.SeveritySevere,
			Outcome:       extraction.OutcomeRecovered,
			TextHash:      "hash",
		},
		ID:             1,
		OriginalReport: "Drug X caused severe nausea. Patient recovered.",
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestReportHandler_ProcessReport(t *testing.T) {
	service := new(MockReportService)
	service.On("ProcessReport", mock.Anything, "Drug X caused severe nausea. Patient recovered.").Return(processedReport(), nil)
	handler := handlers.NewReportHandler(service, 0)

	req := httptest.NewRequest(http.MethodPost, "/process-report", strings.NewReader(`{"report":"Drug X caused severe nausea. Patient recovered."}`))
	w := httptest.NewRecorder()
	handler.ProcessReport(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Drug X", body["drug"])
	assert.Equal(t, []interface{}{"nausea"}, body["adverse_events"])
	assert.Equal(t, "severe", body["severity"])
	assert.Equal(t, "recovered", body["outcome"])
	assert.Equal(t, "Drug X caused severe nausea. Patient recovered.", body["original_report"])
}

func TestReportHandler_ProcessReportErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			body:       `{"report":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "empty report",
			body:       `{"report":""}`,
			serviceErr: apperrors.NewValidationError("Report text is required"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Report text is required",
		},
		{
			name:       "unexpected failure",
			body:       `{"report":"Drug X"}`,
			serviceErr: apperrors.NewInternalError("failed to create report", errors.New("pq: connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Error processing report",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockReportService)
			if tt.serviceErr != nil {
				service.On("ProcessReport", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}
			handler := handlers.NewReportHandler(service, 0)

			w := httptest.NewRecorder()
			handler.ProcessReport(w, httptest.NewRequest(http.MethodPost, "/process-report", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantError, decodeBody(t, w)["error"])
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}

func multipartUpload(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-report", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestReportHandler_UploadReport(t *testing.T) {
	content := []byte("Drug X caused severe nausea. Patient recovered.")
	service := new(MockReportService)
	service.On("ProcessDocument", mock.Anything, "report.txt", "text/plain", content).Return(processedReport(), nil)
	handler := handlers.NewReportHandler(service, 1<<20)

	w := httptest.NewRecorder()
	handler.UploadReport(w, multipartUpload(t, "report.txt", "text/plain", content))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Drug X", decodeBody(t, w)["drug"])
	service.AssertExpectations(t)
}

func TestReportHandler_UploadReportRejects(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		handler := handlers.NewReportHandler(new(MockReportService), 1<<20)
		req := httptest.NewRequest(http.MethodPost, "/upload-report", strings.NewReader("report=Drug X"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := httptest.NewRecorder()
		handler.UploadReport(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized file", func(t *testing.T) {
		service := new(MockReportService)
		handler := handlers.NewReportHandler(service, 1<<20)

		w := httptest.NewRecorder()
		handler.UploadReport(w, multipartUpload(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), 1<<20+1)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "File too large. Maximum size is 1MB", decodeBody(t, w)["error"])
		service.AssertNotCalled(t, "ProcessDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid type", func(t *testing.T) {
		service := new(MockReportService)
		service.On("ProcessDocument", mock.Anything, "scan.png", "image/png", mock.Anything).
			Return(nil, apperrors.NewValidationError("Invalid file type. Please upload PDF, DOCX, DOC or TXT files."))
		handler := handlers.NewReportHandler(service, 1<<20)

		w := httptest.NewRecorder()
		handler.UploadReport(w, multipartUpload(t, "scan.png", "image/png", []byte{0x89, 0x50}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid file type. Please upload PDF, DOCX, DOC or TXT files.", decodeBody(t, w)["error"])
	})
}

func TestReportHandler_ListReports(t *testing.T) {
	created := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	service := new(MockReportService)
	service.On("ListReports", mock.Anything, 0, 0).Return([]*entities.Report{
		{ID: 2, Drug: "Drug B", AdverseEvents: []string{"fever", "rash"}, Severity: "mild", Outcome: "ongoing", ReportText: "b", CreatedAt: created.Add(time.Minute)},
		{ID: 1, Drug: "Drug A", Severity: "severe", Outcome: "fatal", ReportText: "a", CreatedAt: created},
	}, nil)
	handler := handlers.NewReportHandler(service, 0)

	w := httptest.NewRecorder()
	handler.ListReports(w, httptest.NewRequest(http.MethodGet, "/reports", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, float64(2), body[0]["id"])
	assert.Equal(t, []interface{}{"fever", "rash"}, body[0]["adverse_events"])
	assert.Equal(t, "b", body[0]["original_report"])
	assert.Equal(t, "2024-05-02T08:31:00Z", body[0]["created_at"])
	assert.Equal(t, []interface{}{}, body[1]["adverse_events"])
	assert.NotContains(t, body[0], "text_hash")
}

func TestReportHandler_ListReportsPaging(t *testing.T) {
	service := new(MockReportService)
	service.On("ListReports", mock.Anything, 5, 10).Return([]*entities.Report{}, nil)
	handler := handlers.NewReportHandler(service, 0)

	w := httptest.NewRecorder()
	handler.ListReports(w, httptest.NewRequest(http.MethodGet, "/reports?limit=5&offset=10", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	handler.ListReports(w, httptest.NewRequest(http.MethodGet, "/reports?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandler_SearchReports(t *testing.T) {
	t.Run("results", func(t *testing.T) {
		service := new(MockReportService)
		service.On("SearchReports", mock.Anything, repositories.ReportSearchParams{Query: "rash", Severity: "mild", Limit: 10}).
			Return(&repositories.ReportSearchResult{Reports: []*entities.Report{{ID: 4, Drug: "Drug D"}}, Found: 1}, nil)
		handler := handlers.NewReportHandler(service, 0)

		w := httptest.NewRecorder()
		handler.SearchReports(w, httptest.NewRequest(http.MethodGet, "/reports/search?q=rash&severity=mild&limit=10", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(1), body["found"])
		assert.Len(t, body["reports"], 1)
	})

	t.Run("search disabled", func(t *testing.T) {
		service := new(MockReportService)
		service.On("SearchReports", mock.Anything, mock.Anything).Return(nil, apperrors.NewUnavailableError("Report search is not enabled"))
		handler := handlers.NewReportHandler(service, 0)

		w := httptest.NewRecorder()
		handler.SearchReports(w, httptest.NewRequest(http.MethodGet, "/reports/search?q=rash", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "Report search is not enabled", decodeBody(t, w)["error"])
	})
}
