package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/feyti/medreport/internal/domain/entities"
	"github.com/feyti/medreport/internal/domain/providers"
	"github.com/feyti/medreport/internal/infrastructure/observability"
)

const sseHeartbeatInterval = 30 * time.Second

// SSEHandler streams processed reports to dashboards over Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration
	clients   atomic.Int64
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		heartbeat: sseHeartbeatInterval,
	}
}

// StreamReports handles GET /reports/stream. An optional ?severity= narrows
// the stream to one severity.
func (h *SSEHandler) StreamReports(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)
	severity := r.URL.Query().Get("severity")

	eventChan, err := h.eventBus.Subscribe(ctx, providers.EventChannelReports)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to subscribe to report events")
		respondWithError(w, http.StatusServiceUnavailable, "report stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clients := h.clients.Add(1)
	defer h.clients.Add(-1)
	logger.Debug().Int64("clients", clients).Str("severity", severity).Msg("Report stream client connected")

	h.sendEvent(ctx, w, "connected", map[string]interface{}{
		"severity":  severity,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Report stream client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(ctx, w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if !matchesSeverity(event, severity) {
				continue
			}
			h.sendEvent(ctx, w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

func matchesSeverity(event *entities.ReportEvent, severity string) bool {
	return event != nil && (severity == "" || event.Severity == severity)
}

func (h *SSEHandler) sendEvent(ctx context.Context, w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event", eventType).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected stream clients
func (h *SSEHandler) ClientCount() int {
	return int(h.clients.Load())
}
