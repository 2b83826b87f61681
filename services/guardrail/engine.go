// Package guardrail decides whether a proposed execution fits a customer's budget.
package guardrail

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/internal/money"
	"github.com/upb/agent-cost-control/models"
)

// Status is the verdict of an evaluation.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusWarn  Status = "WARN"
	StatusBlock Status = "BLOCK"
)

// Pressure is the forecast-based cost pressure tier.
type Pressure string

const (
	PressureGreen Pressure = "GREEN"
	PressureAmber Pressure = "AMBER"
	PressureRed   Pressure = "RED"
)

const (
	hoursPerDay = 24
	// minHoursElapsed keeps velocity finite in the first hour of the day.
	minHoursElapsed = 1.0

	warnRatio  = 0.8
	amberRatio = 0.7
	redRatio   = 1.0
)

// Reasons that do not depend on numbers.
const (
	ReasonWithinBudget = "Within budget"
	ReasonNoPolicy     = "No policy configured — defaulting to PASS"
)

// Request is a proposed execution.
type Request struct {
	CustomerID    string    `json:"customer_id" validate:"required,max=255"`
	WorkflowID    uuid.UUID `json:"workflow_id" validate:"required"`
	ExecutionCost float64   `json:"execution_cost" validate:"gte=0"`
	StepCount     int       `json:"step_count" validate:"gte=0"`
	AgentID       string    `json:"agent_id" validate:"required,max=255"`
}

// Result is the verdict together with the spend figures it was based on.
type Result struct {
	Status              Status   `json:"status"`
	Reason              string   `json:"reason"`
	DailySpend          float64  `json:"daily_spend"`
	DailyBudgetLimit    float64  `json:"daily_budget_limit"`
	WorkflowBudgetLimit float64  `json:"workflow_budget_limit"`
	CostPressure        Pressure `json:"cost_pressure"`
	SpendVelocity       float64  `json:"spend_velocity"`
}

// StartOfDay returns UTC midnight of the day containing now.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HoursElapsed returns the hours since UTC midnight, never less than one.
func HoursElapsed(now time.Time) float64 {
	return math.Max(now.Sub(StartOfDay(now)).Hours(), minHoursElapsed)
}

// SpendVelocity is the day's spend per elapsed hour.
func SpendVelocity(dailySpend float64, now time.Time) float64 {
	return dailySpend / HoursElapsed(now)
}

// ForecastSpend extrapolates the day's spend linearly to midnight.
func ForecastSpend(dailySpend float64, now time.Time) float64 {
	return dailySpend + SpendVelocity(dailySpend, now)*(hoursPerDay-HoursElapsed(now))
}

// ClassifyPressure maps a forecast against the daily limit onto a tier.
// A non-positive limit has no meaningful ratio and is GREEN.
func ClassifyPressure(forecast, dailyLimit float64) Pressure {
	if dailyLimit <= 0 {
		return PressureGreen
	}
	ratio := forecast / dailyLimit
	switch {
	case ratio >= redRatio:
		return PressureRed
	case ratio >= amberRatio:
		return PressureAmber
	default:
		return PressureGreen
	}
}

// Evaluate applies policy to a request given the spend since UTC midnight.
// A nil policy fails open with a PASS and zeroed figures.
//
// Rules are checked in order and the first match wins: the execution over the
// workflow limit, the day over the daily limit, the day above 80% of it, and
// the step count over the per-agent limit. Cost pressure is derived from the
// forecast rather than the current spend.
func Evaluate(policy *models.BudgetPolicy, dailySpend float64, req Request, now time.Time) Result {
	if policy == nil {
		return Result{
			Status:       StatusPass,
			Reason:       ReasonNoPolicy,
			CostPressure: PressureGreen,
		}
	}

	status, reason := verdict(policy, dailySpend, req)

	return Result{
		Status:              status,
		Reason:              reason,
		DailySpend:          money.Round(dailySpend, money.SummaryPlaces),
		DailyBudgetLimit:    policy.DailyBudgetLimit,
		WorkflowBudgetLimit: policy.WorkflowBudgetLimit,
		CostPressure:        ClassifyPressure(ForecastSpend(dailySpend, now), policy.DailyBudgetLimit),
		SpendVelocity:       money.Round(SpendVelocity(dailySpend, now), money.SummaryPlaces),
	}
}

func verdict(policy *models.BudgetPolicy, dailySpend float64, req Request) (Status, string) {
	switch {
	case req.ExecutionCost > policy.WorkflowBudgetLimit:
		return StatusBlock, fmt.Sprintf("Execution cost $%.4f exceeds workflow budget limit $%.2f",
			req.ExecutionCost, policy.WorkflowBudgetLimit)
	case dailySpend > policy.DailyBudgetLimit:
		return StatusBlock, fmt.Sprintf("Daily spend $%.4f exceeds daily budget $%.2f",
			dailySpend, policy.DailyBudgetLimit)
	case dailySpend > policy.DailyBudgetLimit*warnRatio:
		return StatusWarn, fmt.Sprintf("Daily spend $%.4f is at %.0f%% of daily budget",
			dailySpend, dailySpend/policy.DailyBudgetLimit*100)
	case req.StepCount > policy.StepLimitPerAgent:
		return StatusWarn, fmt.Sprintf("Step count %d exceeds agent step limit %d",
			req.StepCount, policy.StepLimitPerAgent)
	default:
		return StatusPass, ReasonWithinBudget
	}
}
