package guardrail

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/internal/observability"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

// PolicySource returns the active policy of a customer, or nil when there is none.
type PolicySource interface {
	LatestForCustomer(ctx context.Context, customerID string) (*models.BudgetPolicy, error)
}

// Service evaluates guardrail requests against stored policies and spend.
type Service struct {
	policies    PolicySource
	events      repositories.EventRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
	globalSpend bool
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGlobalSpend sums daily spend across all customers instead of the requesting one.
func WithGlobalSpend(global bool) Option {
	return func(s *Service) { s.globalSpend = global }
}

// NewService creates a new guardrail Service. metrics may be nil.
func NewService(policies PolicySource, events repositories.EventRepository, metrics *observability.Metrics, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		policies: policies,
		events:   events,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate loads the customer's policy and today's spend, then applies the rules.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Result, error) {
	fields := map[string]string{}
	if req.CustomerID == "" {
		fields["customer_id"] = "customer_id is required"
	}
	if req.WorkflowID == uuid.Nil {
		fields["workflow_id"] = "workflow_id is required"
	}
	if req.AgentID == "" {
		fields["agent_id"] = "agent_id is required"
	}
	if len(fields) > 0 {
		return nil, services.ValidationFailed(services.ErrInvalidInput.Message, fields)
	}

	now := s.now().UTC()

	policy, err := s.policies.LatestForCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, services.WrapInternal("failed to load budget policy", err)
	}

	var dailySpend float64
	if policy != nil {
		scope := req.CustomerID
		if s.globalSpend {
			scope = ""
		}
		dailySpend, err = s.events.SumCostSince(ctx, scope, StartOfDay(now))
		if err != nil {
			return nil, services.WrapInternal("failed to compute daily spend", err)
		}
	}

	result := Evaluate(policy, dailySpend, req, now)

	s.metrics.RecordGuardrailDecision(string(result.Status), string(result.CostPressure))
	logFields := []zap.Field{
		zap.String("customer_id", req.CustomerID),
		zap.String("workflow_id", req.WorkflowID.String()),
		zap.String("agent_id", req.AgentID),
		zap.String("status", string(result.Status)),
		zap.String("cost_pressure", string(result.CostPressure)),
		zap.Float64("daily_spend", result.DailySpend),
	}
	switch {
	case policy == nil:
		s.logger.Warn("no budget policy configured, failing open", logFields...)
	case result.Status == StatusBlock:
		s.logger.Warn("guardrail blocked execution", append(logFields, zap.String("reason", result.Reason))...)
	default:
		s.logger.Debug("guardrail evaluated", logFields...)
	}

	return &result, nil
}
