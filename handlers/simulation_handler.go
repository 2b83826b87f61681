package handlers

import (
	"context"
	"net/http"

	"github.com/upb/agent-cost-control/middleware"
	"github.com/upb/agent-cost-control/services/simulator"
	"github.com/upb/agent-cost-control/utils"
	"go.uber.org/zap"
)

// Simulator projects workflow costs
type Simulator interface {
	Simulate(ctx context.Context, p simulator.Params) (*simulator.CostBreakdown, error)
}

// SimulationHandler handles cost simulation requests
type SimulationHandler struct {
	svc    Simulator
	logger *zap.Logger
}

// NewSimulationHandler creates a new SimulationHandler
func NewSimulationHandler(svc Simulator, logger *zap.Logger) *SimulationHandler {
	return &SimulationHandler{svc: svc, logger: logger}
}

// HandleSimulate handles POST /simulate/workflow-cost
func (h *SimulationHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var params simulator.Params
	if err := utils.DecodeJSON(r, &params); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&params); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	breakdown, err := h.svc.Simulate(r.Context(), params)
	if err != nil {
		h.logger.Debug("simulation rejected",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, breakdown)
}
