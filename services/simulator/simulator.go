// Package simulator projects the cost of a hypothetical multi-agent workflow.
package simulator

import (
	"context"
	"math"

	"github.com/upb/agent-cost-control/internal/money"
	"github.com/upb/agent-cost-control/internal/observability"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

const (
	RunsPerDay   = 10
	DaysPerMonth = 30
)

// Params describes the shape of a workflow to simulate.
type Params struct {
	NumAgents            int     `json:"num_agents" validate:"gte=0"`
	AvgStepsPerAgent     int     `json:"avg_steps_per_agent" validate:"gte=0"`
	TokensPerStep        int     `json:"tokens_per_step" validate:"gte=0"`
	ModelCostPer1KTokens float64 `json:"model_cost_per_1k_tokens" validate:"gte=0"`
	ToolCallsPerStep     int     `json:"tool_calls_per_step" validate:"gte=0"`
	ToolCostPerCall      float64 `json:"tool_cost_per_call" validate:"gte=0"`
}

// CostBreakdown is the projected cost of one workflow run and of a month of runs.
type CostBreakdown struct {
	CostPerStep       float64 `json:"cost_per_step"`
	CostPerAgent      float64 `json:"cost_per_agent"`
	CostPerWorkflow   float64 `json:"cost_per_workflow"`
	MonthlyProjection float64 `json:"monthly_projection"`
	TokenCostPerStep  float64 `json:"token_cost_per_step"`
	ToolCostPerStep   float64 `json:"tool_cost_per_step"`
}

// Simulate validates p and returns its rounded cost breakdown.
// Money fields carry 6 decimal places, the monthly projection 2.
func Simulate(p Params) (CostBreakdown, error) {
	if err := p.Validate(); err != nil {
		return CostBreakdown{}, err
	}
	return breakdown(p).rounded(), nil
}

// Validate rejects negative counts or rates and non-finite rates.
func (p Params) Validate() error {
	fields := map[string]string{}
	counts := map[string]int{
		"num_agents":          p.NumAgents,
		"avg_steps_per_agent": p.AvgStepsPerAgent,
		"tokens_per_step":     p.TokensPerStep,
		"tool_calls_per_step": p.ToolCallsPerStep,
	}
	for name, v := range counts {
		if v < 0 {
			fields[name] = name + " must be non-negative"
		}
	}
	rates := map[string]float64{
		"model_cost_per_1k_tokens": p.ModelCostPer1KTokens,
		"tool_cost_per_call":       p.ToolCostPerCall,
	}
	for name, v := range rates {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			fields[name] = name + " must be a finite number"
		case v < 0:
			fields[name] = name + " must be non-negative"
		}
	}
	if len(fields) > 0 {
		return services.ValidationFailed(services.ErrInvalidSimulation.Message, fields)
	}
	return nil
}

// breakdown computes the unrounded figures.
func breakdown(p Params) CostBreakdown {
	tokenCost := float64(p.TokensPerStep) / 1000 * p.ModelCostPer1KTokens
	toolCost := float64(p.ToolCallsPerStep) * p.ToolCostPerCall
	perStep := tokenCost + toolCost
	perAgent := perStep * float64(p.AvgStepsPerAgent)
	perWorkflow := perAgent * float64(p.NumAgents)

	return CostBreakdown{
		CostPerStep:       perStep,
		CostPerAgent:      perAgent,
		CostPerWorkflow:   perWorkflow,
		MonthlyProjection: perWorkflow * RunsPerDay * DaysPerMonth,
		TokenCostPerStep:  tokenCost,
		ToolCostPerStep:   toolCost,
	}
}

func (b CostBreakdown) rounded() CostBreakdown {
	return CostBreakdown{
		CostPerStep:       money.Round(b.CostPerStep, money.SimulationPlaces),
		CostPerAgent:      money.Round(b.CostPerAgent, money.SimulationPlaces),
		CostPerWorkflow:   money.Round(b.CostPerWorkflow, money.SimulationPlaces),
		MonthlyProjection: money.Round(b.MonthlyProjection, money.ProjectionPlaces),
		TokenCostPerStep:  money.Round(b.TokenCostPerStep, money.SimulationPlaces),
		ToolCostPerStep:   money.Round(b.ToolCostPerStep, money.SimulationPlaces),
	}
}

// Service serves simulations and counts them.
type Service struct {
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewService creates a new simulation Service. metrics may be nil.
func NewService(metrics *observability.Metrics, logger *zap.Logger) *Service {
	return &Service{
		metrics: metrics,
		logger:  logger,
	}
}

// Simulate runs a simulation for a boundary caller.
func (s *Service) Simulate(ctx context.Context, p Params) (*CostBreakdown, error) {
	result, err := Simulate(p)
	if err != nil {
		s.logger.Debug("simulation rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.RecordSimulation()
	s.logger.Debug("workflow cost simulated",
		zap.Int("num_agents", p.NumAgents),
		zap.Int("avg_steps_per_agent", p.AvgStepsPerAgent),
		zap.Float64("cost_per_workflow", result.CostPerWorkflow),
	)
	return &result, nil
}
