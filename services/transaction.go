package services

import (
	"context"
	"fmt"

	"github.com/upb/agent-cost-control/repositories"
)

// TxFunc is the unit of work run by WithTransactionResult.
type TxFunc[T any] func(ctx context.Context, tx repositories.Transaction) (T, error)

// WithTransaction runs fn in a transaction, committing when it returns nil
// and rolling back otherwise.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	_, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context, tx repositories.Transaction) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	})
	return err
}

// WithTransactionResult runs fn in a transaction and returns its result.
// The result is only meaningful when the error is nil. A panic in fn rolls
// back and is re-raised.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn TxFunc[T]) (T, error) {
	var zero T

	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			if !committed {
				_ = tx.Rollback()
			}
			panic(p)
		}
	}()

	result, err := fn(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return zero, fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return zero, err
	}

	committed = true
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
