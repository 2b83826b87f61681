// Package snapshot periodically publishes today's global spend and velocity.
package snapshot

import (
	"context"
	"time"

	"github.com/upb/agent-cost-control/internal/money"
	"github.com/upb/agent-cost-control/internal/observability"
	"github.com/upb/agent-cost-control/services/guardrail"
	"go.uber.org/zap"
)

// SpendSource sums event cost since a point in time. An empty customerID
// means every customer.
type SpendSource interface {
	SumCostSince(ctx context.Context, customerID string, since time.Time) (float64, error)
}

// Snapshot is one reading of the day's spend.
type Snapshot struct {
	TakenAt       time.Time `json:"taken_at"`
	DailySpend    float64   `json:"daily_spend"`
	SpendVelocity float64   `json:"spend_velocity"`
	Forecast      float64   `json:"forecast"`
}

// Collector reads spend and publishes it. It never writes to the store.
type Collector struct {
	spend   SpendSource
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewCollector creates a Collector. metrics may be nil.
func NewCollector(spend SpendSource, metrics *observability.Metrics, logger *zap.Logger) *Collector {
	return &Collector{
		spend:   spend,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Collect takes one snapshot and publishes it to the gauges.
func (c *Collector) Collect(ctx context.Context) (Snapshot, error) {
	now := c.now().UTC()

	spend, err := c.spend.SumCostSince(ctx, "", guardrail.StartOfDay(now))
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		TakenAt:       now,
		DailySpend:    money.Round(spend, money.SummaryPlaces),
		SpendVelocity: money.Round(guardrail.SpendVelocity(spend, now), money.SummaryPlaces),
		Forecast:      money.Round(guardrail.ForecastSpend(spend, now), money.SummaryPlaces),
	}

	c.metrics.SetSpendSnapshot(snap.DailySpend, snap.SpendVelocity)
	c.logger.Info("spend snapshot",
		zap.Float64("daily_spend", snap.DailySpend),
		zap.Float64("spend_velocity", snap.SpendVelocity),
		zap.Float64("forecast", snap.Forecast))

	return snap, nil
}
