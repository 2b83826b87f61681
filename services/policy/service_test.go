package policy

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

// MockPolicyRepository is a mock implementation of PolicyRepository
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, policy *models.BudgetPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyRepository) LatestForCustomer(ctx context.Context, customerID string) (*models.BudgetPolicy, error) {
	args := m.Called(ctx, customerID)
	if policy := args.Get(0); policy != nil {
		return policy.(*models.BudgetPolicy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPolicyRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.BudgetPolicy, error) {
	args := m.Called(ctx, customerID)
	if policies := args.Get(0); policies != nil {
		return policies.([]*models.BudgetPolicy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPolicyRepository) WithTx(tx repositories.Transaction) repositories.PolicyRepository {
	return m
}

func validCreate() CreateRequest {
	return CreateRequest{
		CustomerID:          "acme",
		DailyBudgetLimit:    50,
		WorkflowBudgetLimit: 5,
		StepLimitPerAgent:   10,
	}
}

func TestPolicyService_Create(t *testing.T) {
	repo := new(MockPolicyRepository)
	svc := NewPolicyService(repo, nil, zap.NewNop())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.BudgetPolicy) bool {
		return p.CustomerID == "acme" && p.DailyBudgetLimit == 50 && p.StepLimitPerAgent == 10
	})).Return(nil)

	policy, err := svc.Create(context.Background(), validCreate())

	require.NoError(t, err)
	assert.NotEmpty(t, policy.PolicyID)
	assert.False(t, policy.CreatedAt.IsZero())
	assert.Equal(t, 5.0, policy.WorkflowBudgetLimit)
	repo.AssertExpectations(t)
}

func TestPolicyService_Create_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateRequest)
		wantField string
	}{
		{"missing customer", func(r *CreateRequest) { r.CustomerID = "" }, "customer_id"},
		{"zero daily limit", func(r *CreateRequest) { r.DailyBudgetLimit = 0 }, "daily_budget_limit"},
		{"infinite daily limit", func(r *CreateRequest) { r.DailyBudgetLimit = math.Inf(1) }, "daily_budget_limit"},
		{"negative workflow limit", func(r *CreateRequest) { r.WorkflowBudgetLimit = -1 }, "workflow_budget_limit"},
		{"zero step limit", func(r *CreateRequest) { r.StepLimitPerAgent = 0 }, "step_limit_per_agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPolicyRepository)
			svc := NewPolicyService(repo, nil, zap.NewNop())

			req := validCreate()
			tt.mutate(&req)

			policy, err := svc.Create(context.Background(), req)

			assert.Nil(t, policy)
			require.Error(t, err)
			assert.True(t, services.IsValidationError(err))
			assert.Contains(t, services.GetErrorDetails(err), tt.wantField)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestPolicyService_Create_RepositoryError(t *testing.T) {
	repo := new(MockPolicyRepository)
	svc := NewPolicyService(repo, nil, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.Create(context.Background(), validCreate())

	require.Error(t, err)
	assert.True(t, services.IsInternalError(err))
}

func TestPolicyService_Create_InvalidatesCache(t *testing.T) {
	repo := new(MockPolicyRepository)
	cache := NewPolicyCache(10, time.Hour)
	svc := NewPolicyService(repo, cache, zap.NewNop())

	cache.Set("acme", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)

	_, ok := cache.Get("acme")
	assert.False(t, ok)
}

func TestPolicyService_ListByCustomer(t *testing.T) {
	t.Run("returns repository order", func(t *testing.T) {
		repo := new(MockPolicyRepository)
		svc := NewPolicyService(repo, nil, zap.NewNop())
		newer := models.NewBudgetPolicy("acme", 80, 8, 12)
		older := models.NewBudgetPolicy("acme", 50, 5, 10)

		repo.On("ListByCustomer", mock.Anything, "acme").Return([]*models.BudgetPolicy{newer, older}, nil)

		policies, err := svc.ListByCustomer(context.Background(), "acme")

		require.NoError(t, err)
		assert.Equal(t, []*models.BudgetPolicy{newer, older}, policies)
	})

	t.Run("empty is not nil", func(t *testing.T) {
		repo := new(MockPolicyRepository)
		svc := NewPolicyService(repo, nil, zap.NewNop())

		repo.On("ListByCustomer", mock.Anything, "nobody").Return(nil, nil)

		policies, err := svc.ListByCustomer(context.Background(), "nobody")

		require.NoError(t, err)
		assert.NotNil(t, policies)
		assert.Empty(t, policies)
	})
}

func TestPolicyService_LatestForCustomer_UsesCache(t *testing.T) {
	repo := new(MockPolicyRepository)
	svc := NewPolicyService(repo, NewPolicyCache(10, time.Hour), zap.NewNop())
	want := models.NewBudgetPolicy("acme", 50, 5, 10)

	repo.On("LatestForCustomer", mock.Anything, "acme").Return(want, nil).Once()

	for i := 0; i < 3; i++ {
		policy, err := svc.LatestForCustomer(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, want, policy)
	}

	repo.AssertNumberOfCalls(t, "LatestForCustomer", 1)
	assert.Equal(t, uint64(2), svc.GetCacheStats().Hits)
}

func TestPolicyService_LatestForCustomer_CachedMissClearedByInvalidate(t *testing.T) {
	repo := new(MockPolicyRepository)
	svc := NewPolicyService(repo, NewPolicyCache(10, time.Hour), zap.NewNop())
	seeded := models.NewBudgetPolicy("demo-customer", 50, 5, 10)

	repo.On("LatestForCustomer", mock.Anything, "demo-customer").Return(nil, nil).Once()
	policy, err := svc.LatestForCustomer(context.Background(), "demo-customer")
	require.NoError(t, err)
	assert.Nil(t, policy)

	// a policy written outside Create, then announced
	repo.On("LatestForCustomer", mock.Anything, "demo-customer").Return(seeded, nil).Once()
	svc.Invalidate("demo-customer")

	policy, err = svc.LatestForCustomer(context.Background(), "demo-customer")
	require.NoError(t, err)
	assert.Equal(t, seeded, policy)
	repo.AssertNumberOfCalls(t, "LatestForCustomer", 2)
}

func TestPolicyService_LatestForCustomer_RacingCreateIsNotCached(t *testing.T) {
	repo := new(MockPolicyRepository)
	svc := NewPolicyService(repo, NewPolicyCache(10, time.Hour), zap.NewNop())
	older := models.NewBudgetPolicy("acme", 50, 5, 10)
	newer := models.NewBudgetPolicy("acme", 80, 8, 12)

	// Create commits while the first lookup is still reading the old row
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("LatestForCustomer", mock.Anything, "acme").
		Run(func(mock.Arguments) {
			_, err := svc.Create(context.Background(), validCreate())
			require.NoError(t, err)
		}).
		Return(older, nil).Once()
	repo.On("LatestForCustomer", mock.Anything, "acme").Return(newer, nil).Once()

	policy, err := svc.LatestForCustomer(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, older, policy)

	policy, err = svc.LatestForCustomer(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, newer, policy)
	repo.AssertNumberOfCalls(t, "LatestForCustomer", 2)
}

func TestPolicyService_LatestForCustomer_WithoutCache(t *testing.T) {
	repo := new(MockPolicyRepository)
	svc := NewPolicyService(repo, nil, zap.NewNop())

	repo.On("LatestForCustomer", mock.Anything, "acme").Return(nil, nil)

	for i := 0; i < 2; i++ {
		policy, err := svc.LatestForCustomer(context.Background(), "acme")
		require.NoError(t, err)
		assert.Nil(t, policy)
	}

	repo.AssertNumberOfCalls(t, "LatestForCustomer", 2)
	assert.Equal(t, CacheStats{}, svc.GetCacheStats())
}

func TestPolicyService_Latest(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := new(MockPolicyRepository)
		svc := NewPolicyService(repo, nil, zap.NewNop())
		want := models.NewBudgetPolicy("acme", 50, 5, 10)

		repo.On("LatestForCustomer", mock.Anything, "acme").Return(want, nil)

		policy, err := svc.Latest(context.Background(), "acme")

		require.NoError(t, err)
		assert.Equal(t, want, policy)
	})

	t.Run("none is not found", func(t *testing.T) {
		repo := new(MockPolicyRepository)
		svc := NewPolicyService(repo, nil, zap.NewNop())

		repo.On("LatestForCustomer", mock.Anything, "nobody").Return(nil, nil)

		_, err := svc.Latest(context.Background(), "nobody")

		require.Error(t, err)
		assert.True(t, services.IsNotFoundError(err))
		assert.ErrorIs(t, err, services.ErrPolicyNotFound)
		assert.Equal(t, "nobody", services.GetErrorDetails(err)["customer_id"])
	})

	t.Run("repository failure is internal", func(t *testing.T) {
		repo := new(MockPolicyRepository)
		svc := NewPolicyService(repo, nil, zap.NewNop())

		repo.On("LatestForCustomer", mock.Anything, "acme").Return(nil, errors.New("timeout"))

		_, err := svc.Latest(context.Background(), "acme")

		require.Error(t, err)
		assert.True(t, services.IsInternalError(err))
	})
}
