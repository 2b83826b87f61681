package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/agent-cost-control/middleware"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/services/policy"
	"github.com/upb/agent-cost-control/utils"
	"go.uber.org/zap"
)

// PolicyService defines the interface for budget policy operations
type PolicyService interface {
	Create(ctx context.Context, req policy.CreateRequest) (*models.BudgetPolicy, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*models.BudgetPolicy, error)
	Latest(ctx context.Context, customerID string) (*models.BudgetPolicy, error)
}

// PolicyHandler handles budget policy requests
type PolicyHandler struct {
	svc    PolicyService
	logger *zap.Logger
}

// NewPolicyHandler creates a new PolicyHandler
func NewPolicyHandler(svc PolicyService, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{svc: svc, logger: logger}
}

// HandleCreatePolicy handles POST /policies/create
func (h *PolicyHandler) HandleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policy.CreateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("policy created",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("policy_id", created.PolicyID.String()))

	_ = utils.WriteCreated(w, created)
}

// HandleListPolicies handles GET /policies/{customerID}
func (h *PolicyHandler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.svc.ListByCustomer(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, policies)
}

// HandleActivePolicy handles GET /policies/{customerID}/active
func (h *PolicyHandler) HandleActivePolicy(w http.ResponseWriter, r *http.Request) {
	active, err := h.svc.Latest(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, active)
}
