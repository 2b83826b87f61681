package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

// MockWorkflowRepository is a mock implementation of WorkflowRepository
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) Create(ctx context.Context, wf *models.Workflow) error {
	args := m.Called(ctx, wf)
	return args.Error(0)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if wf := args.Get(0); wf != nil {
		return wf.(*models.Workflow), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWorkflowRepository) ExistsForCustomer(ctx context.Context, customerID string) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkflowRepository) WithTx(tx repositories.Transaction) repositories.WorkflowRepository {
	return m
}

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	repo := new(MockWorkflowRepository)
	svc := NewService(repo, zap.NewNop())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Workflow")).Return(nil)

	wf, err := svc.Create(context.Background(), CreateRequest{
		CustomerID:   "acme",
		WorkflowName: "nightly-report",
		TaskType:     strPtr("data-analysis"),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, wf.WorkflowID)
	assert.Equal(t, "nightly-report", wf.WorkflowName)
	assert.Equal(t, "data-analysis", *wf.TaskType)
	repo.AssertExpectations(t)
}

func TestService_Create_KeepsCallerID(t *testing.T) {
	repo := new(MockWorkflowRepository)
	svc := NewService(repo, zap.NewNop())
	id := uuid.New()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(wf *models.Workflow) bool {
		return wf.WorkflowID == id
	})).Return(nil)

	wf, err := svc.Create(context.Background(), CreateRequest{WorkflowID: &id, CustomerID: "acme", WorkflowName: "wf"})

	require.NoError(t, err)
	assert.Equal(t, id, wf.WorkflowID)
}

func TestService_Create_Errors(t *testing.T) {
	nilID := uuid.Nil

	tests := []struct {
		name    string
		req     CreateRequest
		repoErr error
		check   func(error) bool
	}{
		{"missing customer", CreateRequest{WorkflowName: "wf"}, nil, services.IsValidationError},
		{"missing name", CreateRequest{CustomerID: "acme"}, nil, services.IsValidationError},
		{"nil id", CreateRequest{WorkflowID: &nilID, CustomerID: "acme", WorkflowName: "wf"}, nil, services.IsValidationError},
		{"duplicate", CreateRequest{CustomerID: "acme", WorkflowName: "wf"}, fmt.Errorf("insert: %w", repositories.ErrDuplicate), services.IsConflictError},
		{"store failure", CreateRequest{CustomerID: "acme", WorkflowName: "wf"}, errors.New("boom"), services.IsInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockWorkflowRepository)
			svc := NewService(repo, zap.NewNop())
			if tt.repoErr != nil {
				repo.On("Create", mock.Anything, mock.Anything).Return(tt.repoErr)
			}

			wf, err := svc.Create(context.Background(), tt.req)

			assert.Nil(t, wf)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestService_Get(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		repo := new(MockWorkflowRepository)
		svc := NewService(repo, zap.NewNop())
		want := &models.Workflow{WorkflowID: id, CustomerID: "acme", WorkflowName: "wf"}
		repo.On("GetByID", mock.Anything, id).Return(want, nil)

		wf, err := svc.Get(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, want, wf)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockWorkflowRepository)
		svc := NewService(repo, zap.NewNop())
		repo.On("GetByID", mock.Anything, id).Return(nil, fmt.Errorf("get workflow: %w", repositories.ErrNotFound))

		_, err := svc.Get(context.Background(), id)

		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrWorkflowNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockWorkflowRepository)
		svc := NewService(repo, zap.NewNop())
		repo.On("GetByID", mock.Anything, id).Return(nil, errors.New("boom"))

		_, err := svc.Get(context.Background(), id)

		assert.True(t, services.IsInternalError(err))
	})
}
