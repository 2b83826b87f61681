package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/agent-cost-control/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// EventRepository is the append-only store of execution events.
type EventRepository interface {
	// Append stores a new event. ExecutionID and Timestamp must already be set.
	Append(ctx context.Context, event *models.ExecutionEvent) error

	// SumCostSince sums execution_cost_total of events at or after since.
	// An empty customerID sums across all customers. Returns 0 when nothing matches.
	SumCostSince(ctx context.Context, customerID string, since time.Time) (float64, error)

	// EventsInWindow returns every event with timestamp at or after since, oldest first.
	EventsInWindow(ctx context.Context, since time.Time) ([]*models.ExecutionEvent, error)

	// Count returns the number of stored events
	Count(ctx context.Context) (int, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) EventRepository
}

// PolicyRepository handles budget policy data operations.
// The most recently created policy of a customer is the active one.
type PolicyRepository interface {
	// Create stores a new policy row
	Create(ctx context.Context, policy *models.BudgetPolicy) error

	// LatestForCustomer returns the newest policy of a customer, or nil when there is none
	LatestForCustomer(ctx context.Context, customerID string) (*models.BudgetPolicy, error)

	// ListByCustomer returns all policies of a customer, newest first
	ListByCustomer(ctx context.Context, customerID string) ([]*models.BudgetPolicy, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) PolicyRepository
}

// WorkflowRepository handles workflow data operations
type WorkflowRepository interface {
	// Create stores a new workflow
	Create(ctx context.Context, workflow *models.Workflow) error

	// GetByID retrieves a workflow by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error)

	// ExistsForCustomer reports whether the customer owns at least one workflow
	ExistsForCustomer(ctx context.Context, customerID string) (bool, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) WorkflowRepository
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Events    EventRepository
	Policies  PolicyRepository
	Workflows WorkflowRepository
}
