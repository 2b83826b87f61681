// Package telemetry ingests execution events and summarizes their cost.
package telemetry

import (
	"sort"

	"github.com/upb/agent-cost-control/internal/money"
	"github.com/upb/agent-cost-control/models"
)

// dayLayout buckets events by UTC calendar day.
const dayLayout = "2006-01-02"

// spikeFactor is how many times the mean daily cost a day must exceed to count as a spike.
const spikeFactor = 2

// TrendPoint is the summed cost of one calendar day.
type TrendPoint struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

// CostSummary aggregates a window of execution events.
type CostSummary struct {
	TotalCost           float64            `json:"total_cost"`
	TotalExecutions     int                `json:"total_executions"`
	AvgCostPerExecution float64            `json:"avg_cost_per_execution"`
	TotalTokens         int                `json:"total_tokens"`
	CostByAgent         map[string]float64 `json:"cost_by_agent"`
	CostByWorkflow      map[string]float64 `json:"cost_by_workflow"`
	CostTrend           []TrendPoint       `json:"cost_trend"`
	SpikeDetected       bool               `json:"spike_detected"`
}

// emptySummary is the summary of a window without events.
func emptySummary() CostSummary {
	return CostSummary{
		CostByAgent:    map[string]float64{},
		CostByWorkflow: map[string]float64{},
		CostTrend:      []TrendPoint{},
	}
}

// Summarize aggregates events that were already filtered to the window.
// Money figures are rounded to 4 decimal places; events are not modified.
func Summarize(events []*models.ExecutionEvent) CostSummary {
	if len(events) == 0 {
		return emptySummary()
	}

	var total float64
	var tokens int
	byAgent := make(map[string]float64)
	byWorkflow := make(map[string]float64)
	byDay := make(map[string]float64)

	for _, e := range events {
		cost := e.ExecutionCostTotal
		total += cost
		tokens += e.TotalTokens()
		byAgent[e.AgentID] += cost
		byWorkflow[e.WorkflowID.String()] += cost
		byDay[e.Timestamp.UTC().Format(dayLayout)] += cost
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	trend := make([]TrendPoint, 0, len(days))
	daily := make([]float64, 0, len(days))
	for _, day := range days {
		daily = append(daily, byDay[day])
		trend = append(trend, TrendPoint{Date: day, Cost: money.Round(byDay[day], money.SummaryPlaces)})
	}

	return CostSummary{
		TotalCost:           money.Round(total, money.SummaryPlaces),
		TotalExecutions:     len(events),
		AvgCostPerExecution: money.Round(total/float64(len(events)), money.SummaryPlaces),
		TotalTokens:         tokens,
		CostByAgent:         roundValues(byAgent),
		CostByWorkflow:      roundValues(byWorkflow),
		CostTrend:           trend,
		SpikeDetected:       detectSpike(daily),
	}
}

// detectSpike reports whether any day exceeds twice the mean daily cost.
// One day alone has no baseline and never spikes.
func detectSpike(daily []float64) bool {
	if len(daily) < 2 {
		return false
	}
	var sum float64
	for _, cost := range daily {
		sum += cost
	}
	mean := sum / float64(len(daily))
	for _, cost := range daily {
		if cost > mean*spikeFactor {
			return true
		}
	}
	return false
}

func roundValues(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = money.Round(v, money.SummaryPlaces)
	}
	return out
}
