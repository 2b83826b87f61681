package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"go.uber.org/zap"
)

// WorkflowRepository implements the repositories.WorkflowRepository interface
type WorkflowRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *DB, logger *zap.Logger) repositories.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new workflow
func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.Workflow) error {
	query := `
		INSERT INTO workflows (workflow_id, customer_id, workflow_name, task_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	var taskType sql.NullString
	if workflow.TaskType != nil {
		taskType = sql.NullString{String: *workflow.TaskType, Valid: true}
	}

	executor := executorFor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		workflow.WorkflowID,
		workflow.CustomerID,
		workflow.WorkflowName,
		taskType,
		workflow.CreatedAt,
	)
	if err != nil {
		return translateError("failed to create workflow", err)
	}

	r.logger.Debug("workflow created", zap.String("workflow_id", workflow.WorkflowID.String()))
	return nil
}

// GetByID retrieves a workflow by ID
func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error) {
	query := `
		SELECT workflow_id, customer_id, workflow_name, task_type, created_at
		FROM workflows
		WHERE workflow_id = $1
	`

	executor := executorFor(ctx, r.db, r.tx)
	workflow := &models.Workflow{}
	var taskType sql.NullString

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&workflow.WorkflowID,
		&workflow.CustomerID,
		&workflow.WorkflowName,
		&taskType,
		&workflow.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workflow %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if taskType.Valid {
		workflow.TaskType = &taskType.String
	}

	return workflow, nil
}

// ExistsForCustomer reports whether a customer has any workflow
func (r *WorkflowRepository) ExistsForCustomer(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	executor := executorFor(ctx, r.db, r.tx)
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM workflows WHERE customer_id = $1)`,
		customerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check workflows: %w", err)
	}
	return exists, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *WorkflowRepository) WithTx(tx repositories.Transaction) repositories.WorkflowRepository {
	return &WorkflowRepository{
		db:     r.db,
		tx:     asTransaction(tx),
		logger: r.logger,
	}
}
