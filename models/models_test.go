package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Workflow tests
func TestNewWorkflow(t *testing.T) {
	taskType := "code-review"

	wf := NewWorkflow("acme", "workflow-code-review", &taskType)

	assert.NotEqual(t, uuid.Nil, wf.WorkflowID)
	assert.Equal(t, "acme", wf.CustomerID)
	assert.Equal(t, "workflow-code-review", wf.WorkflowName)
	require.NotNil(t, wf.TaskType)
	assert.Equal(t, taskType, *wf.TaskType)
	assert.False(t, wf.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, wf.CreatedAt.Location())
}

func TestWorkflow_TableName(t *testing.T) {
	assert.Equal(t, "workflows", Workflow{}.TableName())
}

func TestWorkflow_JSONOmitsEmptyTaskType(t *testing.T) {
	wf := NewWorkflow("acme", "adhoc", nil)

	data, err := json.Marshal(wf)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "task_type")
}

// BudgetPolicy tests
func TestNewBudgetPolicy(t *testing.T) {
	policy := NewBudgetPolicy("acme", 50, 5, 10)

	assert.NotEqual(t, uuid.Nil, policy.PolicyID)
	assert.Equal(t, "acme", policy.CustomerID)
	assert.Equal(t, 50.0, policy.DailyBudgetLimit)
	assert.Equal(t, 5.0, policy.WorkflowBudgetLimit)
	assert.Equal(t, 10, policy.StepLimitPerAgent)
	assert.False(t, policy.CreatedAt.IsZero())
}

func TestBudgetPolicy_TableName(t *testing.T) {
	assert.Equal(t, "budget_policies", BudgetPolicy{}.TableName())
}

// ExecutionEvent tests
func TestExecutionEvent_TableName(t *testing.T) {
	assert.Equal(t, "execution_events", ExecutionEvent{}.TableName())
}

func TestExecutionEvent_TotalTokens(t *testing.T) {
	event := ExecutionEvent{TokensIn: 1200, TokensOut: 800}
	assert.Equal(t, 2000, event.TotalTokens())
}

func TestExecutionEvent_EnsureIdentity(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 30, 0, 0, time.FixedZone("EST", -5*3600))

	t.Run("assigns missing id and timestamp", func(t *testing.T) {
		event := &ExecutionEvent{}
		event.EnsureIdentity(now)

		assert.NotEqual(t, uuid.Nil, event.ExecutionID)
		assert.True(t, event.Timestamp.Equal(now))
		assert.Equal(t, time.UTC, event.Timestamp.Location())
	})

	t.Run("keeps caller supplied values", func(t *testing.T) {
		id := uuid.New()
		ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		event := &ExecutionEvent{ExecutionID: id, Timestamp: ts}
		event.EnsureIdentity(now)

		assert.Equal(t, id, event.ExecutionID)
		assert.Equal(t, ts, event.Timestamp)
	})
}

func TestExecutionEvent_JSONOptionalFields(t *testing.T) {
	latency := 420
	event := ExecutionEvent{
		ExecutionID:        uuid.New(),
		WorkflowID:         uuid.New(),
		AgentID:            "planner-agent",
		ModelName:          "gpt-4o",
		ExecutionCostTotal: 0.0125,
		LatencyMs:          &latency,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(420), decoded["latency_ms"])
	assert.Nil(t, decoded["confidence_score"])
	assert.Contains(t, decoded, "confidence_score")
}
