// Package workflow registers the workflows that execution events belong to.
package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

// CreateRequest carries the fields of a new workflow. WorkflowID is optional;
// callers that already hold an ID may register it.
type CreateRequest struct {
	WorkflowID   *uuid.UUID `json:"workflow_id,omitempty"`
	CustomerID   string     `json:"customer_id" validate:"required,max=255"`
	WorkflowName string     `json:"workflow_name" validate:"required,max=255"`
	TaskType     *string    `json:"task_type,omitempty" validate:"omitempty,max=100"`
}

// Service handles workflow registration and lookup
type Service struct {
	workflows repositories.WorkflowRepository
	logger    *zap.Logger
}

// NewService creates a new workflow Service
func NewService(workflows repositories.WorkflowRepository, logger *zap.Logger) *Service {
	return &Service{workflows: workflows, logger: logger}
}

// Create stores a new workflow
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Workflow, error) {
	fields := map[string]string{}
	if req.CustomerID == "" {
		fields["customer_id"] = "customer_id is required"
	}
	if req.WorkflowName == "" {
		fields["workflow_name"] = "workflow_name is required"
	}
	if req.WorkflowID != nil && *req.WorkflowID == uuid.Nil {
		fields["workflow_id"] = "workflow_id must not be the nil UUID"
	}
	if len(fields) > 0 {
		return nil, services.ValidationFailed(services.ErrInvalidInput.Message, fields)
	}

	wf := models.NewWorkflow(req.CustomerID, req.WorkflowName, req.TaskType)
	if req.WorkflowID != nil {
		wf.WorkflowID = *req.WorkflowID
	}

	if err := s.workflows.Create(ctx, wf); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.NewDomainError(services.ErrorTypeConflict, services.ErrDuplicateWorkflow.Message, err).
				WithDetail("workflow_id", wf.WorkflowID.String())
		}
		return nil, services.WrapInternal("failed to create workflow", err)
	}

	s.logger.Info("workflow registered",
		zap.String("workflow_id", wf.WorkflowID.String()),
		zap.String("customer_id", wf.CustomerID))

	return wf, nil
}

// Get returns a workflow by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	wf, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.NewDomainError(services.ErrorTypeNotFound, services.ErrWorkflowNotFound.Message, err).
				WithDetail("workflow_id", id.String())
		}
		return nil, services.WrapInternal("failed to load workflow", err)
	}
	return wf, nil
}
