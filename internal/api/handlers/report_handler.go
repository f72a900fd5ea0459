package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/feyti/medreport/internal/application/services"
	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/repositories"
)

// multipartOverhead is allowed on top of the file limit for form boundaries and headers
const multipartOverhead = 1 << 20

// ReportService is the part of services.ReportService the HTTP layer uses
type ReportService interface {
	ProcessReport(ctx context.Context, text string) (*services.ProcessedReport, error)
	ProcessDocument(ctx context.Context, filename, contentType string, content []byte) (*services.ProcessedReport, error)
	ListReports(ctx context.Context, limit, offset int) ([]*entities.Report, error)
	SearchReports(ctx context.Context, params repositories.ReportSearchParams) (*repositories.ReportSearchResult, error)
}

// ReportHandler handles report extraction and listing endpoints
type ReportHandler struct {
	service        ReportService
	maxUploadBytes int64
}

// defaultMaxUploadBytes applies when no upload limit is configured
const defaultMaxUploadBytes = 10 << 20

// NewReportHandler creates a new report handler. maxUploadBytes bounds both
// uploaded files and JSON report bodies.
func NewReportHandler(service ReportService, maxUploadBytes int64) *ReportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ReportHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

type processReportRequest struct {
	Report string `json:"report"`
}

// reportResponse is one row of GET /reports
type reportResponse struct {
	ID             int64    `json:"id"`
	Drug           string   `json:"drug"`
	AdverseEvents  []string `json:"adverse_events"`
	Severity       string   `json:"severity"`
	Outcome        string   `json:"outcome"`
	OriginalReport string   `json:"original_report"`
	CreatedAt      string   `json:"created_at"`
}

func toReportResponses(reports []*entities.Report) []reportResponse {
	out := make([]reportResponse, 0, len(reports))
	for _, report := range reports {
		events := report.AdverseEvents
		if events == nil {
			events = []string{}
		}
		out = append(out, reportResponse{
			ID:             report.ID,
			Drug:           report.Drug,
			AdverseEvents:  events,
			Severity:       report.Severity,
			Outcome:        report.Outcome,
			OriginalReport: report.ReportText,
			CreatedAt:      report.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

// ProcessReport handles POST /process-report
func (h *ReportHandler) ProcessReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req processReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Report is too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.ProcessReport(r.Context(), req.Report)
	if err != nil {
		respondWithAppError(w, r, err, "Error processing report")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// UploadReport handles POST /upload-report with a multipart "file" field
func (h *ReportHandler) UploadReport(w http.ResponseWriter, r *http.Request) {
	tooLargeMessage := fmt.Sprintf("File too large. Maximum size is %dMB", h.maxUploadBytes>>20)
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusBadRequest, tooLargeMessage)
			return
		}
		respondWithError(w, http.StatusBadRequest, "A file is required in the \"file\" field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	if int64(len(content)) > h.maxUploadBytes {
		respondWithError(w, http.StatusBadRequest, tooLargeMessage)
		return
	}

	result, err := h.service.ProcessDocument(r.Context(), header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		respondWithAppError(w, r, err, "Error processing uploaded report")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// ListReports handles GET /reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	reports, err := h.service.ListReports(r.Context(), limit, offset)
	if err != nil {
		respondWithAppError(w, r, err, "Error listing reports")
		return
	}

	respondWithJSON(w, http.StatusOK, toReportResponses(reports))
}

// SearchReports handles GET /reports/search
func (h *ReportHandler) SearchReports(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 0)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	query := r.URL.Query()
	result, err := h.service.SearchReports(r.Context(), repositories.ReportSearchParams{
		Query:    query.Get("q"),
		Severity: query.Get("severity"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondWithAppError(w, r, err, "Error searching reports")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": toReportResponses(result.Reports),
		"found":   result.Found,
	})
}
