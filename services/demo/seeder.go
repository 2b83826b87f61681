// Package demo seeds synthetic workflow history for trying the service out.
package demo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/upb/agent-cost-control/repositories"
	"github.com/upb/agent-cost-control/services"
	"go.uber.org/zap"
)

// SeedResult is returned by Seed.
type SeedResult struct {
	Message string `json:"message"`
	Seeded  bool   `json:"seeded"`
}

// PolicyInvalidator drops cached policy lookups of a customer.
type PolicyInvalidator interface {
	Invalidate(customerID string)
}

// Seeder writes a generated Dataset in a single transaction.
type Seeder struct {
	txMgr    repositories.TransactionManager
	repos    *repositories.Repositories
	policies PolicyInvalidator
	logger   *zap.Logger
	now      func() time.Time

	mu  sync.Mutex // guards rng and serializes seeding
	rng *rand.Rand
}

// Option customizes a Seeder.
type Option func(*Seeder)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// WithRand replaces the random source, making the seeded data reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Seeder) { s.rng = rng }
}

// NewSeeder creates a Seeder. policies is told about the seeded policy once
// the transaction commits; it may be nil when nothing caches policies.
func NewSeeder(txMgr repositories.TransactionManager, repos *repositories.Repositories, policies PolicyInvalidator, logger *zap.Logger, opts ...Option) *Seeder {
	s := &Seeder{
		txMgr:    txMgr,
		repos:    repos,
		policies: policies,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Seed writes demo data for customerID unless the customer already owns a
// workflow. An empty customerID means DefaultCustomerID.
func (s *Seeder) Seed(ctx context.Context, customerID string) (*SeedResult, error) {
	if customerID == "" {
		customerID = DefaultCustomerID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repos.Workflows.ExistsForCustomer(ctx, customerID)
	if err != nil {
		return nil, services.WrapInternal("failed to check existing demo data", err)
	}
	if exists {
		s.logger.Info("demo data already present", zap.String("customer_id", customerID))
		return &SeedResult{Message: "Demo data already exists", Seeded: false}, nil
	}

	ds := Generate(s.rng, customerID, s.now())

	result, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*SeedResult, error) {
		workflows := s.repos.Workflows.WithTx(tx)
		events := s.repos.Events.WithTx(tx)
		policies := s.repos.Policies.WithTx(tx)

		for _, wf := range ds.Workflows {
			if err := workflows.Create(ctx, wf); err != nil {
				return nil, fmt.Errorf("create workflow %s: %w", wf.WorkflowName, err)
			}
		}
		for _, ev := range ds.Events {
			if err := events.Append(ctx, ev); err != nil {
				return nil, fmt.Errorf("append event: %w", err)
			}
		}
		if err := policies.Create(ctx, ds.Policy); err != nil {
			return nil, fmt.Errorf("create policy: %w", err)
		}
		return &SeedResult{
			Message: fmt.Sprintf("Seeded %d workflows, %d events, 1 policy", len(ds.Workflows), len(ds.Events)),
			Seeded:  true,
		}, nil
	})
	if err != nil {
		return nil, services.WrapInternal("failed to seed demo data", err)
	}

	if s.policies != nil {
		s.policies.Invalidate(customerID)
	}

	s.logger.Info("demo data seeded",
		zap.String("customer_id", customerID),
		zap.Int("workflows", len(ds.Workflows)),
		zap.Int("events", len(ds.Events)))

	return result, nil
}
