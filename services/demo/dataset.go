package demo

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/internal/money"
	"github.com/upb/agent-cost-control/models"
)

// DefaultCustomerID owns the demo data when the caller names no customer.
const DefaultCustomerID = "demo-customer"

const (
	historyDays            = 14
	toolCostPlaces   int32 = 4
	confidencePlaces int32 = 2
)

// ModelTier pairs a model with its price per 1k tokens.
type ModelTier struct {
	Name           string
	CostPer1KToken float64
}

// ModelTiers are the models demo runs are priced with.
var ModelTiers = []ModelTier{
	{"gpt-4-turbo", 0.01},
	{"gpt-4o", 0.005},
	{"gpt-3.5-turbo", 0.0015},
	{"claude-3-opus", 0.015},
	{"claude-3-sonnet", 0.003},
}

// AgentNames are the agents a demo run draws from.
var AgentNames = []string{
	"planner-agent",
	"research-agent",
	"writer-agent",
	"reviewer-agent",
	"tool-agent",
	"summarizer-agent",
	"validator-agent",
	"router-agent",
}

// WorkflowTypes yields one demo workflow each.
var WorkflowTypes = []string{
	"content-generation",
	"data-analysis",
	"customer-support",
	"code-review",
	"document-processing",
}

// Dataset is everything one seeding writes.
type Dataset struct {
	Workflows []*models.Workflow
	Events    []*models.ExecutionEvent
	Policy    *models.BudgetPolicy
}

// Generate builds two weeks of synthetic history for a customer. Output is a
// pure function of rng state and now, and no event is stamped after now.
func Generate(rng *rand.Rand, customerID string, now time.Time) Dataset {
	now = now.UTC()
	ds := Dataset{}

	for _, taskType := range WorkflowTypes {
		taskType := taskType
		ds.Workflows = append(ds.Workflows, &models.Workflow{
			WorkflowID:   newUUID(rng),
			CustomerID:   customerID,
			WorkflowName: "workflow-" + taskType,
			TaskType:     &taskType,
			CreatedAt:    now.AddDate(0, 0, -intBetween(rng, 0, historyDays)),
		})
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for dayOffset := 0; dayOffset < historyDays; dayOffset++ {
		day := today.AddDate(0, 0, -dayOffset)
		runs := intBetween(rng, 3, 12)

		for r := 0; r < runs; r++ {
			wf := ds.Workflows[rng.Intn(len(ds.Workflows))]
			agents := sampleAgents(rng, intBetween(rng, 2, 8))
			tier := ModelTiers[rng.Intn(len(ModelTiers))]

			for _, agentID := range agents {
				steps := intBetween(rng, 1, 6)
				for s := 0; s < steps; s++ {
					ds.Events = append(ds.Events, generateEvent(rng, wf.WorkflowID, agentID, tier, day, now))
				}
			}
		}
	}

	ds.Policy = &models.BudgetPolicy{
		PolicyID:            newUUID(rng),
		CustomerID:          customerID,
		DailyBudgetLimit:    50,
		WorkflowBudgetLimit: 5,
		StepLimitPerAgent:   10,
		CreatedAt:           now,
	}

	return ds
}

func generateEvent(rng *rand.Rand, workflowID uuid.UUID, agentID string, tier ModelTier, day, now time.Time) *models.ExecutionEvent {
	tokensIn := intBetween(rng, 500, 3000)
	tokensOut := intBetween(rng, 200, 2000)
	toolCalls := intBetween(rng, 0, 4)
	toolCost := money.Round(float64(toolCalls)*floatBetween(rng, 0.01, 0.50), toolCostPlaces)
	tokenCost := float64(tokensIn+tokensOut) / 1000 * tier.CostPer1KToken
	latency := intBetween(rng, 100, 5000)
	confidence := money.Round(floatBetween(rng, 0.6, 1.0), confidencePlaces)

	ts := day.Add(time.Duration(intBetween(rng, 0, 23))*time.Hour +
		time.Duration(intBetween(rng, 0, 59))*time.Minute)
	if ts.After(now) {
		ts = now
	}

	return &models.ExecutionEvent{
		ExecutionID:        newUUID(rng),
		WorkflowID:         workflowID,
		AgentID:            agentID,
		ModelName:          tier.Name,
		TokensIn:           tokensIn,
		TokensOut:          tokensOut,
		ToolCalls:          toolCalls,
		ToolCostTotal:      toolCost,
		ExecutionCostTotal: money.Round(tokenCost+toolCost, money.SimulationPlaces),
		LatencyMs:          &latency,
		ConfidenceScore:    &confidence,
		Timestamp:          ts,
	}
}

// sampleAgents picks n distinct agents.
func sampleAgents(rng *rand.Rand, n int) []string {
	if n > len(AgentNames) {
		n = len(AgentNames)
	}
	picked := make([]string, 0, n)
	for _, i := range rng.Perm(len(AgentNames))[:n] {
		picked = append(picked, AgentNames[i])
	}
	return picked
}

// intBetween returns a uniform int in [lo, hi].
func intBetween(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func floatBetween(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// newUUID draws a version 4 UUID from rng so datasets are reproducible.
func newUUID(rng *rand.Rand) uuid.UUID {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// rand.Rand reads never fail
		panic(fmt.Sprintf("demo: uuid from rng: %v", err))
	}
	return id
}
