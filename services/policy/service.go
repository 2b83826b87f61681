// Package policy manages per-customer budget policies.
package policy

import (
	"context"
	"math"
	"time"

	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

// CreateRequest carries the fields of a new budget policy
type CreateRequest struct {
	CustomerID          string  `json:"customer_id" validate:"required,max=255"`
	DailyBudgetLimit    float64 `json:"daily_budget_limit" validate:"gt=0"`
	WorkflowBudgetLimit float64 `json:"workflow_budget_limit" validate:"gt=0"`
	StepLimitPerAgent   int     `json:"step_limit_per_agent" validate:"gte=1"`
}

// Validate checks the limits. Handlers validate tags first; this guards
// callers that bypass them.
func (r CreateRequest) Validate() error {
	fields := map[string]string{}
	if r.CustomerID == "" {
		fields["customer_id"] = "customer_id is required"
	}
	if !positiveFinite(r.DailyBudgetLimit) {
		fields["daily_budget_limit"] = "must be greater than 0"
	}
	if !positiveFinite(r.WorkflowBudgetLimit) {
		fields["workflow_budget_limit"] = "must be greater than 0"
	}
	if r.StepLimitPerAgent < 1 {
		fields["step_limit_per_agent"] = "must be at least 1"
	}
	if len(fields) > 0 {
		return services.ValidationFailed(services.ErrInvalidPolicy.Message, fields)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// PolicyService handles budget policy creation and lookup.
// The newest policy row of a customer is its active policy.
type PolicyService struct {
	policyRepo repositories.PolicyRepository
	cache      *PolicyCache
	logger     *zap.Logger
}

// NewPolicyService creates a new PolicyService instance. cache may be nil,
// in which case every lookup reads the repository.
func NewPolicyService(policyRepo repositories.PolicyRepository, cache *PolicyCache, logger *zap.Logger) *PolicyService {
	return &PolicyService{
		policyRepo: policyRepo,
		cache:      cache,
		logger:     logger,
	}
}

// Create stores a new policy, which immediately becomes the customer's active one
func (s *PolicyService) Create(ctx context.Context, req CreateRequest) (*models.BudgetPolicy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	policy := models.NewBudgetPolicy(req.CustomerID, req.DailyBudgetLimit, req.WorkflowBudgetLimit, req.StepLimitPerAgent)
	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, services.WrapInternal("failed to create budget policy", err)
	}

	s.Invalidate(policy.CustomerID)

	s.logger.Info("budget policy created",
		zap.String("policy_id", policy.PolicyID.String()),
		zap.String("customer_id", policy.CustomerID),
		zap.Float64("daily_budget_limit", policy.DailyBudgetLimit),
		zap.Float64("workflow_budget_limit", policy.WorkflowBudgetLimit),
		zap.Int("step_limit_per_agent", policy.StepLimitPerAgent))

	return policy, nil
}

// ListByCustomer returns every policy row of a customer, newest first
func (s *PolicyService) ListByCustomer(ctx context.Context, customerID string) ([]*models.BudgetPolicy, error) {
	policies, err := s.policyRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, services.WrapInternal("failed to list budget policies", err)
	}
	if policies == nil {
		policies = []*models.BudgetPolicy{}
	}
	return policies, nil
}

// LatestForCustomer returns the active policy, or nil when the customer has none.
// Results, including the absence of a policy, are cached when a cache is configured.
func (s *PolicyService) LatestForCustomer(ctx context.Context, customerID string) (*models.BudgetPolicy, error) {
	if s.cache == nil {
		return s.policyRepo.LatestForCustomer(ctx, customerID)
	}

	if policy, ok := s.cache.Get(customerID); ok {
		s.logger.Debug("policy cache hit", zap.String("customer_id", customerID))
		return policy, nil
	}

	epoch := s.cache.Epoch()
	policy, err := s.policyRepo.LatestForCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if !s.cache.SetIfUnchanged(customerID, policy, epoch) {
		s.logger.Debug("policy changed during lookup, not cached", zap.String("customer_id", customerID))
	}
	return policy, nil
}

// Latest is LatestForCustomer for callers that treat a missing policy as an error
func (s *PolicyService) Latest(ctx context.Context, customerID string) (*models.BudgetPolicy, error) {
	policy, err := s.LatestForCustomer(ctx, customerID)
	if err != nil {
		return nil, services.WrapInternal("failed to load budget policy", err)
	}
	if policy == nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, services.ErrPolicyNotFound.Message, nil).
			WithDetail("customer_id", customerID)
	}
	return policy, nil
}

// Invalidate drops the cached policy of a customer. Callers that write
// policies without going through Create must call it after committing.
func (s *PolicyService) Invalidate(customerID string) {
	if s.cache != nil {
		s.cache.Invalidate(customerID)
	}
}

// GetCacheStats returns cache statistics, or zero stats when caching is off
func (s *PolicyService) GetCacheStats() CacheStats {
	if s.cache == nil {
		return CacheStats{}
	}
	return s.cache.Stats()
}

// StartCacheCleanup runs the cache cleanup worker until stopCh is closed.
// It blocks; run it in its own goroutine.
// It returns immediately when caching is off.
func (s *PolicyService) StartCacheCleanup(interval time.Duration, stopCh <-chan struct{}) {
	if s.cache == nil {
		return
	}
	s.cache.StartCleanupWorker(interval, stopCh)
}
