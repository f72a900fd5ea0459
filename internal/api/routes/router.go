package routes

import (
	"net/http"

	"github.com/feyti/medreport/internal/api/handlers"
	"github.com/feyti/medreport/internal/api/middleware"
	"github.com/feyti/medreport/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	reportHandler      *handlers.ReportHandler
	translationHandler *handlers.TranslationHandler
	healthHandler      *handlers.HealthHandler
	sseHandler         *handlers.SSEHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. sseHandler may be nil when no event bus is
// configured.
func NewRouter(
	reportHandler *handlers.ReportHandler,
	translationHandler *handlers.TranslationHandler,
	healthHandler *handlers.HealthHandler,
	sseHandler *handlers.SSEHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		reportHandler:      reportHandler,
		translationHandler: translationHandler,
		healthHandler:      healthHandler,
		sseHandler:         sseHandler,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /{$}", r.healthHandler.Root)

	// Report endpoints
	r.mux.HandleFunc("POST /process-report", r.reportHandler.ProcessReport)
	r.mux.HandleFunc("POST /upload-report", r.reportHandler.UploadReport)
	r.mux.HandleFunc("GET /reports", r.reportHandler.ListReports)
	r.mux.HandleFunc("GET /reports/search", r.reportHandler.SearchReports)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /reports/stream", r.sseHandler.StreamReports)
	}

	r.mux.HandleFunc("POST /translate", r.translationHandler.Translate)

	// Observability sits directly on the mux so it can read the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.RecoveryMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.Compression(handler)

	// CORS wraps everything so preflights never reach the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
