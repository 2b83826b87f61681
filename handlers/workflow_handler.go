package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/services/workflow"
	"github.com/upb/agent-cost-control/utils"
	"go.uber.org/zap"
)

// WorkflowService registers and reads workflows
type WorkflowService interface {
	Create(ctx context.Context, req workflow.CreateRequest) (*models.Workflow, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Workflow, error)
}

// WorkflowHandler handles workflow requests
type WorkflowHandler struct {
	svc    WorkflowService
	logger *zap.Logger
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(svc WorkflowService, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{svc: svc, logger: logger}
}

// HandleCreateWorkflow handles POST /workflows
func (h *WorkflowHandler) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req workflow.CreateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	wf, err := h.svc.Create(r.Context(), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, wf)
}

// HandleGetWorkflow handles GET /workflows/{workflowID}
func (h *WorkflowHandler) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUUID(chi.URLParam(r, "workflowID"), "workflow_id")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	wf, err := h.svc.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, wf)
}
