package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/agent-cost-control/models"
	"github.com/upb/agent-cost-control/repositories"
	"go.uber.org/zap"
)

// PolicyRepository implements the repositories.PolicyRepository interface
type PolicyRepository struct {
	db     *DB
	tx     *Transaction
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *DB, logger *zap.Logger) repositories.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new policy
func (r *PolicyRepository) Create(ctx context.Context, policy *models.BudgetPolicy) error {
	query := `
		INSERT INTO budget_policies (policy_id, customer_id, daily_budget_limit, workflow_budget_limit, step_limit_per_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := executorFor(ctx, r.db, r.tx)
	_, err := executor.ExecContext(ctx, query,
		policy.PolicyID,
		policy.CustomerID,
		policy.DailyBudgetLimit,
		policy.WorkflowBudgetLimit,
		policy.StepLimitPerAgent,
		policy.CreatedAt,
	)
	if err != nil {
		return translateError("failed to create policy", err)
	}

	r.logger.Debug("policy created",
		zap.String("policy_id", policy.PolicyID.String()),
		zap.String("customer_id", policy.CustomerID),
	)
	return nil
}

// LatestForCustomer returns the most recently created policy, or nil if the customer has none
func (r *PolicyRepository) LatestForCustomer(ctx context.Context, customerID string) (*models.BudgetPolicy, error) {
	query := `
		SELECT policy_id, customer_id, daily_budget_limit, workflow_budget_limit, step_limit_per_agent, created_at
		FROM budget_policies
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	executor := executorFor(ctx, r.db, r.tx)
	policy := &models.BudgetPolicy{}
	err := executor.QueryRowContext(ctx, query, customerID).Scan(
		&policy.PolicyID,
		&policy.CustomerID,
		&policy.DailyBudgetLimit,
		&policy.WorkflowBudgetLimit,
		&policy.StepLimitPerAgent,
		&policy.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest policy: %w", err)
	}

	return policy, nil
}

// ListByCustomer returns every policy of a customer, newest first
func (r *PolicyRepository) ListByCustomer(ctx context.Context, customerID string) ([]*models.BudgetPolicy, error) {
	query := `
		SELECT policy_id, customer_id, daily_budget_limit, workflow_budget_limit, step_limit_per_agent, created_at
		FROM budget_policies
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	executor := executorFor(ctx, r.db, r.tx)
	rows, err := executor.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	policies := make([]*models.BudgetPolicy, 0)
	for rows.Next() {
		policy := &models.BudgetPolicy{}
		if err := rows.Scan(
			&policy.PolicyID,
			&policy.CustomerID,
			&policy.DailyBudgetLimit,
			&policy.WorkflowBudgetLimit,
			&policy.StepLimitPerAgent,
			&policy.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	return policies, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *PolicyRepository) WithTx(tx repositories.Transaction) repositories.PolicyRepository {
	return &PolicyRepository{
		db:     r.db,
		tx:     asTransaction(tx),
		logger: r.logger,
	}
}
