package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/services"
	"github.com/upb/agent-cost-control/services/workflow"
	"go.uber.org/zap"
)

type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) Create(ctx context.Context, req workflow.CreateRequest) (*models.Workflow, error) {
	args := m.Called(ctx, req)
	if wf := args.Get(0); wf != nil {
		return wf.(*models.Workflow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkflowService) Get(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if wf := args.Get(0); wf != nil {
		return wf.(*models.Workflow), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestWorkflowHandler_HandleCreateWorkflow(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockWorkflowService)
		h := NewWorkflowHandler(svc, zap.NewNop())
		wf := &models.Workflow{
			WorkflowID:   uuid.New(),
			CustomerID:   "acme",
			WorkflowName: "nightly-report",
			CreatedAt:    time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		}
		svc.On("Create", mock.Anything, mock.MatchedBy(func(r workflow.CreateRequest) bool {
			return r.CustomerID == "acme" && r.WorkflowName == "nightly-report" && r.WorkflowID == nil
		})).Return(wf, nil)

		w := serve(http.MethodPost, "/workflows", "/workflows",
			`{"customer_id":"acme","workflow_name":"nightly-report"}`, h.HandleCreateWorkflow)

		assert.Equal(t, http.StatusCreated, w.Code)
		var got models.Workflow
		decodeInto(t, w, &got)
		assert.Equal(t, wf.WorkflowID, got.WorkflowID)
		svc.AssertExpectations(t)
	})

	t.Run("missing name", func(t *testing.T) {
		svc := new(MockWorkflowService)
		h := NewWorkflowHandler(svc, zap.NewNop())

		w := serve(http.MethodPost, "/workflows", "/workflows", `{"customer_id":"acme"}`, h.HandleCreateWorkflow)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Details, "workflow_name")
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate id", func(t *testing.T) {
		svc := new(MockWorkflowService)
		h := NewWorkflowHandler(svc, zap.NewNop())
		svc.On("Create", mock.Anything, mock.Anything).Return(nil,
			services.NewDomainError(services.ErrorTypeConflict, "workflow already exists", nil))

		id := uuid.New()
		w := serve(http.MethodPost, "/workflows", "/workflows",
			`{"workflow_id":"`+id.String()+`","customer_id":"acme","workflow_name":"x"}`, h.HandleCreateWorkflow)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestWorkflowHandler_HandleGetWorkflow(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		svc := new(MockWorkflowService)
		h := NewWorkflowHandler(svc, zap.NewNop())
		svc.On("Get", mock.Anything, id).Return(&models.Workflow{WorkflowID: id, CustomerID: "acme", WorkflowName: "x"}, nil)

		w := serve(http.MethodGet, "/workflows/{workflowID}", "/workflows/"+id.String(), "", h.HandleGetWorkflow)

		assert.Equal(t, http.StatusOK, w.Code)
		var got models.Workflow
		decodeInto(t, w, &got)
		assert.Equal(t, "acme", got.CustomerID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockWorkflowService)
		h := NewWorkflowHandler(svc, zap.NewNop())
		svc.On("Get", mock.Anything, id).Return(nil,
			services.NewDomainError(services.ErrorTypeNotFound, "workflow not found", nil))

		w := serve(http.MethodGet, "/workflows/{workflowID}", "/workflows/"+id.String(), "", h.HandleGetWorkflow)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "workflow not found", decodeError(t, w).Message)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := new(MockWorkflowService)
		h := NewWorkflowHandler(svc, zap.NewNop())

		w := serve(http.MethodGet, "/workflows/{workflowID}", "/workflows/not-a-uuid", "", h.HandleGetWorkflow)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Message, "workflow_id must be a valid UUID")
		svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}
