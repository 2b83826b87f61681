package models

import (
	"time"

	"github.com/google/uuid"
)

// BudgetPolicy holds the spending limits of one customer. A customer may own
// several rows; the most recently created one is the active policy.
type BudgetPolicy struct {
	PolicyID            uuid.UUID `json:"policy_id" db:"policy_id"`
	CustomerID          string    `json:"customer_id" db:"customer_id"`
	DailyBudgetLimit    float64   `json:"daily_budget_limit" db:"daily_budget_limit"`
	WorkflowBudgetLimit float64   `json:"workflow_budget_limit" db:"workflow_budget_limit"`
	StepLimitPerAgent   int       `json:"step_limit_per_agent" db:"step_limit_per_agent"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the BudgetPolicy model
func (BudgetPolicy) TableName() string {
	return "budget_policies"
}

// NewBudgetPolicy creates a new BudgetPolicy instance
func NewBudgetPolicy(customerID string, dailyLimit, workflowLimit float64, stepLimit int) *BudgetPolicy {
	return &BudgetPolicy{
		PolicyID:            uuid.New(),
		CustomerID:          customerID,
		DailyBudgetLimit:    dailyLimit,
		WorkflowBudgetLimit: workflowLimit,
		StepLimitPerAgent:   stepLimit,
		CreatedAt:           time.Now().UTC(),
	}
}
