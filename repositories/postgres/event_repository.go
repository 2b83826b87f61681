package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"go.uber.org/zap"
)

const eventColumns = `execution_id, workflow_id, agent_id, model_name, tokens_in, tokens_out,
		tool_calls, tool_cost_total, execution_cost_total, latency_ms, confidence_score, timestamp`

// EventRepository implements the repositories.EventRepository interface
type EventRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewEventRepository creates a new execution event repository
func NewEventRepository(db *DB, logger *zap.Logger) repositories.EventRepository {
	return &EventRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts a new execution event
func (r *EventRepository) Append(ctx context.Context, event *models.ExecutionEvent) error {
	query := `
		INSERT INTO execution_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var latency sql.NullInt64
	if event.LatencyMs != nil {
		latency = sql.NullInt64{Int64: int64(*event.LatencyMs), Valid: true}
	}
	var confidence sql.NullFloat64
	if event.ConfidenceScore != nil {
		confidence = sql.NullFloat64{Float64: *event.ConfidenceScore, Valid: true}
	}

	executor := executorFor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		event.ExecutionID,
		event.WorkflowID,
		event.AgentID,
		event.ModelName,
		event.TokensIn,
		event.TokensOut,
		event.ToolCalls,
		event.ToolCostTotal,
		event.ExecutionCostTotal,
		latency,
		confidence,
		event.Timestamp,
	)
	if err != nil {
		return translateError("failed to append execution event", err)
	}

	r.logger.Debug("execution event appended",
		zap.String("execution_id", event.ExecutionID.String()),
		zap.String("workflow_id", event.WorkflowID.String()),
	)
	return nil
}

// SumCostSince sums event cost since a point in time, scoped to a customer's
// workflows unless customerID is empty.
func (r *EventRepository) SumCostSince(ctx context.Context, customerID string, since time.Time) (float64, error) {
	var (
		query string
		args  []interface{}
	)
	if customerID == "" {
		query = `
			SELECT COALESCE(SUM(execution_cost_total), 0)
			FROM execution_events
			WHERE timestamp >= $1
		`
		args = []interface{}{since}
	} else {
		query = `
			SELECT COALESCE(SUM(e.execution_cost_total), 0)
			FROM execution_events e
			JOIN workflows w ON w.workflow_id = e.workflow_id
			WHERE w.customer_id = $1 AND e.timestamp >= $2
		`
		args = []interface{}{customerID, since}
	}

	var total float64
	executor := executorFor(ctx, r.db, r.tx)
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum event cost: %w", err)
	}
	return total, nil
}

// EventsInWindow returns the events recorded since a point in time, oldest first
func (r *EventRepository) EventsInWindow(ctx context.Context, since time.Time) ([]*models.ExecutionEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM execution_events
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
	`

	executor := executorFor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.ExecutionEvent, 0)
	for rows.Next() {
		event := &models.ExecutionEvent{}
		var latency sql.NullInt64
		var confidence sql.NullFloat64
		err := rows.Scan(
			&event.ExecutionID,
			&event.WorkflowID,
			&event.AgentID,
			&event.ModelName,
			&event.TokensIn,
			&event.TokensOut,
			&event.ToolCalls,
			&event.ToolCostTotal,
			&event.ExecutionCostTotal,
			&latency,
			&confidence,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution event: %w", err)
		}
		if latency.Valid {
			v := int(latency.Int64)
			event.LatencyMs = &v
		}
		if confidence.Valid {
			v := confidence.Float64
			event.ConfidenceScore = &v
		}
		event.Timestamp = event.Timestamp.UTC()
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution events: %w", err)
	}

	return events, nil
}

// Count returns the number of stored events
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var n int
	executor := executorFor(ctx, r.db, r.tx)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM execution_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count execution events: %w", err)
	}
	return n, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *EventRepository) WithTx(tx repositories.Transaction) repositories.EventRepository {
	return &EventRepository{
		db:     r.db,
		tx:     asTransaction(tx),
		logger: r.logger,
	}
}
