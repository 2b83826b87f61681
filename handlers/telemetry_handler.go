package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/upb/agent-cost-control/middleware"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/services/telemetry"
	"github.com/upb/agent-cost-control/utils"
	"go.uber.org/zap"
)

// TelemetryService ingests execution events and summarizes cost
type TelemetryService interface {
	Ingest(ctx context.Context, req telemetry.IngestRequest) (*models.ExecutionEvent, error)
	Summary(ctx context.Context, days int) (*telemetry.CostSummary, error)
}

// TelemetryHandler handles telemetry requests
type TelemetryHandler struct {
	svc    TelemetryService
	logger *zap.Logger
}

// NewTelemetryHandler creates a new TelemetryHandler
func NewTelemetryHandler(svc TelemetryService, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{svc: svc, logger: logger}
}

// HandleIngestEvent handles POST /telemetry/execution-event
func (h *TelemetryHandler) HandleIngestEvent(w http.ResponseWriter, r *http.Request) {
	var req telemetry.IngestRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	event, err := h.svc.Ingest(r.Context(), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, event)
}

// HandleCostSummary handles GET /telemetry/cost-summary?days=N
func (h *TelemetryHandler) HandleCostSummary(w http.ResponseWriter, r *http.Request) {
	days := telemetry.DefaultWindow
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "days must be an integer", map[string]interface{}{"days": raw})
			return
		}
		days = n
	}

	summary, err := h.svc.Summary(r.Context(), days)
	if err != nil {
		h.logger.Debug("cost summary failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, summary)
}
