package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/internal/observability"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

// IngestRequest carries the fields a caller reports for one agent step.
type IngestRequest struct {
	WorkflowID         uuid.UUID `json:"workflow_id" validate:"required"`
	AgentID            string    `json:"agent_id" validate:"required,max=255"`
	ModelName          string    `json:"model_name" validate:"required,max=100"`
	TokensIn           int       `json:"tokens_in" validate:"gte=0"`
	TokensOut          int       `json:"tokens_out" validate:"gte=0"`
	ToolCalls          int       `json:"tool_calls" validate:"gte=0"`
	ToolCostTotal      float64   `json:"tool_cost_total" validate:"gte=0"`
	ExecutionCostTotal *float64  `json:"execution_cost_total" validate:"required,gte=0"`
	LatencyMs          *int      `json:"latency_ms,omitempty" validate:"omitempty,gte=0"`
	ConfidenceScore    *float64  `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Validate checks the invariants of an event independently of how it arrived.
func (r IngestRequest) Validate() error {
	fields := map[string]string{}
	if r.WorkflowID == uuid.Nil {
		fields["workflow_id"] = "workflow_id is required"
	}
	if r.AgentID == "" {
		fields["agent_id"] = "agent_id is required"
	}
	if r.ModelName == "" {
		fields["model_name"] = "model_name is required"
	}
	if r.TokensIn < 0 || r.TokensOut < 0 {
		fields["tokens"] = "token counts must be non-negative"
	}
	if r.ToolCalls < 0 {
		fields["tool_calls"] = "tool_calls must be non-negative"
	}
	if r.ToolCostTotal < 0 {
		fields["tool_cost_total"] = "tool_cost_total must be non-negative"
	}
	switch {
	case r.ExecutionCostTotal == nil:
		fields["execution_cost_total"] = "execution_cost_total is required"
	case *r.ExecutionCostTotal < 0:
		fields["execution_cost_total"] = "execution_cost_total must be non-negative"
	}
	if r.LatencyMs != nil && *r.LatencyMs < 0 {
		fields["latency_ms"] = "latency_ms must be non-negative"
	}
	if r.ConfidenceScore != nil && (*r.ConfidenceScore < 0 || *r.ConfidenceScore > 1) {
		fields["confidence_score"] = "confidence_score must be between 0 and 1"
	}
	if len(fields) > 0 {
		return services.ValidationFailed(services.ErrInvalidEvent.Message, fields)
	}
	return nil
}

// Service ingests events and builds windowed cost summaries.
type Service struct {
	events      repositories.EventRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
	defaultDays int
	maxDays     int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithWindowBounds sets the default and maximum summary window in days.
func WithWindowBounds(defaultDays, maxDays int) Option {
	return func(s *Service) {
		s.defaultDays = defaultDays
		s.maxDays = maxDays
	}
}

// NewService creates a new telemetry Service. metrics may be nil.
func NewService(events repositories.EventRepository, metrics *observability.Metrics, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		events:      events,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
		defaultDays: 7,
		maxDays:     90,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores one execution event, assigning its id and timestamp.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*models.ExecutionEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event := &models.ExecutionEvent{
		WorkflowID:         req.WorkflowID,
		AgentID:            req.AgentID,
		ModelName:          req.ModelName,
		TokensIn:           req.TokensIn,
		TokensOut:          req.TokensOut,
		ToolCalls:          req.ToolCalls,
		ToolCostTotal:      req.ToolCostTotal,
		ExecutionCostTotal: *req.ExecutionCostTotal,
		LatencyMs:          req.LatencyMs,
		ConfidenceScore:    req.ConfidenceScore,
	}
	event.EnsureIdentity(s.now())

	if err := s.events.Append(ctx, event); err != nil {
		switch {
		case errors.Is(err, repositories.ErrReferenceMissing):
			return nil, services.NewDomainError(services.ErrorTypeNotFound, services.ErrWorkflowNotFound.Message, err).
				WithDetail("workflow_id", req.WorkflowID.String())
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, services.NewDomainError(services.ErrorTypeConflict, services.ErrDuplicateExecution.Message, err)
		}
		return nil, services.WrapInternal("failed to store execution event", err)
	}

	s.metrics.RecordEvent(event.ModelName, event.ExecutionCostTotal)
	s.logger.Info("execution event ingested",
		zap.String("execution_id", event.ExecutionID.String()),
		zap.String("workflow_id", event.WorkflowID.String()),
		zap.String("agent_id", event.AgentID),
		zap.Float64("execution_cost_total", event.ExecutionCostTotal),
	)
	return event, nil
}

// DefaultWindow asks Summary for the configured default window.
const DefaultWindow = -1

// Summary aggregates the events of the last days days. Pass DefaultWindow
// when the caller did not choose one; any other value outside [1, max] is
// rejected.
func (s *Service) Summary(ctx context.Context, days int) (*CostSummary, error) {
	if days == DefaultWindow {
		days = s.defaultDays
	}
	if days < 1 || days > s.maxDays {
		return nil, services.ValidationFailed(services.ErrInvalidWindow.Message, map[string]string{
			"days": fmt.Sprintf("must be between 1 and %d, got %d", s.maxDays, days),
		})
	}

	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	events, err := s.events.EventsInWindow(ctx, since)
	if err != nil {
		return nil, services.WrapInternal("failed to load execution events", err)
	}

	summary := Summarize(events)
	if summary.SpikeDetected {
		s.metrics.RecordSpike()
		s.logger.Warn("daily cost spike detected",
			zap.Int("days", days),
			zap.Int("trend_days", len(summary.CostTrend)),
		)
	}
	return &summary, nil
}
