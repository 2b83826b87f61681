package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/agent-cost-control/internal/observability"
	"go.uber.org/zap"
)

type stubSpend struct {
	total      float64
	err        error
	customerID string
	since      time.Time
}

func (s *stubSpend) SumCostSince(_ context.Context, customerID string, since time.Time) (float64, error) {
	s.customerID = customerID
	s.since = since
	return s.total, s.err
}

func TestCollector_Collect(t *testing.T) {
	source := &stubSpend{total: 45}
	metrics := observability.NewMetrics()
	c := NewCollector(source, metrics, zap.NewNop())
	c.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }

	snap, err := c.Collect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", source.customerID, "snapshot spans all customers")
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), source.since)
	assert.Equal(t, 45.0, snap.DailySpend)
	assert.Equal(t, 3.75, snap.SpendVelocity)
	assert.Equal(t, 90.0, snap.Forecast)
	assert.Equal(t, 45.0, testutil.ToFloat64(metrics.DailySpend))
	assert.Equal(t, 3.75, testutil.ToFloat64(metrics.SpendVelocity))
}

func TestCollector_Collect_Error(t *testing.T) {
	metrics := observability.NewMetrics()
	c := NewCollector(&stubSpend{err: errors.New("db down")}, metrics, zap.NewNop())

	_, err := c.Collect(context.Background())

	require.Error(t, err)
	assert.Zero(t, testutil.ToFloat64(metrics.DailySpend))
}

func TestScheduler_EmptyScheduleDisabled(t *testing.T) {
	s := NewScheduler(NewCollector(&stubSpend{}, nil, zap.NewNop()), "", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(NewCollector(&stubSpend{}, nil, zap.NewNop()), "every five minutes", zap.NewNop())

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
	assert.False(t, s.IsRunning())
}

func TestScheduler_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(NewCollector(&stubSpend{}, nil, zap.NewNop()), "*/5 * * * *", zap.NewNop())

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.NextRun())

	cancel()

	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}
