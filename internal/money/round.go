// Package money holds the rounding rules applied to every monetary figure the
// service reports.
package money

import "github.com/shopspring/decimal"

// Reporting precisions
const (
	SimulationPlaces int32 = 6 // per-step, per-agent and per-workflow simulation output
	ProjectionPlaces int32 = 2 // monthly projection
	SummaryPlaces    int32 = 4 // aggregation and guardrail output
)

// Round rounds v to the given number of decimal places, half away from zero,
// operating on the shortest decimal representation of v.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
