package handlers

import (
	"context"
	"net/http"

	"github.com/upb/agent-cost-control/services/guardrail"
	"github.com/upb/agent-cost-control/utils"
	"go.uber.org/zap"
)

// GuardrailEvaluator evaluates a proposed execution against budget
type GuardrailEvaluator interface {
	Evaluate(ctx context.Context, req guardrail.Request) (*guardrail.Result, error)
}

// GuardrailHandler handles guardrail requests
type GuardrailHandler struct {
	svc    GuardrailEvaluator
	logger *zap.Logger
}

// NewGuardrailHandler creates a new GuardrailHandler
func NewGuardrailHandler(svc GuardrailEvaluator, logger *zap.Logger) *GuardrailHandler {
	return &GuardrailHandler{svc: svc, logger: logger}
}

// HandleEvaluate handles POST /guardrail/evaluate. A verdict of BLOCK is
// still a 200; the caller decides what to do with it.
func (h *GuardrailHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req guardrail.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.svc.Evaluate(r.Context(), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}
