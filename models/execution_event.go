package models

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionEvent is the cost/usage record of one agent step.
// ExecutionCostTotal is the authoritative cost figure for aggregation; it is
// caller-supplied and not required to equal ToolCostTotal plus token cost.
type ExecutionEvent struct {
	ExecutionID        uuid.UUID `json:"execution_id" db:"execution_id"`
	WorkflowID         uuid.UUID `json:"workflow_id" db:"workflow_id"`
	AgentID            string    `json:"agent_id" db:"agent_id"`
	ModelName          string    `json:"model_name" db:"model_name"`
	TokensIn           int       `json:"tokens_in" db:"tokens_in"`
	TokensOut          int       `json:"tokens_out" db:"tokens_out"`
	ToolCalls          int       `json:"tool_calls" db:"tool_calls"`
	ToolCostTotal      float64   `json:"tool_cost_total" db:"tool_cost_total"`
	ExecutionCostTotal float64   `json:"execution_cost_total" db:"execution_cost_total"`
	LatencyMs          *int      `json:"latency_ms" db:"latency_ms"`
	ConfidenceScore    *float64  `json:"confidence_score" db:"confidence_score"`
	Timestamp          time.Time `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the ExecutionEvent model
func (ExecutionEvent) TableName() string {
	return "execution_events"
}

// TotalTokens returns tokens in plus tokens out
func (e *ExecutionEvent) TotalTokens() int {
	return e.TokensIn + e.TokensOut
}

// EnsureIdentity assigns an execution ID and an ingestion timestamp when absent.
func (e *ExecutionEvent) EnsureIdentity(now time.Time) {
	if e.ExecutionID == uuid.Nil {
		e.ExecutionID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now.UTC()
	}
}
