package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/agent-cost-control/repositories"
)

type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return m.Called(ctx, fn).Error(0)
}

type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Commit() error            { return m.Called().Error(0) }
func (m *MockTransaction) Rollback() error          { return m.Called().Error(0) }
func (m *MockTransaction) Context() context.Context { return context.Background() }

func TestWithTransactionResult(t *testing.T) {
	opErr := errors.New("append event: constraint violated")

	tests := []struct {
		name        string
		beginErr    error
		fnErr       error
		commitErr   error
		rollbackErr error
		wantResult  int
		wantErr     string
		wantCommit  bool
		wantRollbk  bool
	}{
		{name: "commits and returns the result", wantResult: 1203, wantCommit: true},
		{name: "begin fails", beginErr: errors.New("pool exhausted"), wantErr: "failed to begin transaction"},
		{name: "work fails and rolls back", fnErr: opErr, wantErr: opErr.Error(), wantRollbk: true},
		{name: "rollback fails too", fnErr: opErr, rollbackErr: errors.New("conn reset"), wantErr: "rollback error", wantRollbk: true},
		{name: "commit fails", commitErr: errors.New("serialization failure"), wantErr: "failed to commit transaction", wantCommit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			txMgr := new(MockTransactionManager)
			tx := new(MockTransaction)

			if tt.beginErr != nil {
				txMgr.On("Begin", ctx).Return(nil, tt.beginErr)
			} else {
				txMgr.On("Begin", ctx).Return(tx, nil)
			}
			tx.On("Commit").Return(tt.commitErr)
			tx.On("Rollback").Return(tt.rollbackErr)

			got, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context, _ repositories.Transaction) (int, error) {
				if tt.fnErr != nil {
					return 7, tt.fnErr
				}
				return 1203, nil
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Zero(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantResult, got)
			}
			if tt.wantCommit {
				tx.AssertCalled(t, "Commit")
			} else {
				tx.AssertNotCalled(t, "Commit")
			}
			if tt.wantRollbk {
				tx.AssertCalled(t, "Rollback")
			} else {
				tx.AssertNotCalled(t, "Rollback")
			}
		})
	}
}

func TestWithTransactionResult_PanicRollsBack(t *testing.T) {
	ctx := context.Background()
	txMgr := new(MockTransactionManager)
	tx := new(MockTransaction)
	txMgr.On("Begin", ctx).Return(tx, nil)
	tx.On("Rollback").Return(nil)

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = WithTransactionResult(ctx, txMgr, func(context.Context, repositories.Transaction) (string, error) {
			panic("boom")
		})
	})
	tx.AssertCalled(t, "Rollback")
	tx.AssertNotCalled(t, "Commit")
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits", func(t *testing.T) {
		txMgr := new(MockTransactionManager)
		tx := new(MockTransaction)
		txMgr.On("Begin", ctx).Return(tx, nil)
		tx.On("Commit").Return(nil)

		err := WithTransaction(ctx, txMgr, func(context.Context, repositories.Transaction) error { return nil })

		require.NoError(t, err)
		tx.AssertExpectations(t)
	})

	t.Run("returns the work error unchanged", func(t *testing.T) {
		txMgr := new(MockTransactionManager)
		tx := new(MockTransaction)
		opErr := errors.New("create policy: duplicate")
		txMgr.On("Begin", ctx).Return(tx, nil)
		tx.On("Rollback").Return(nil)

		err := WithTransaction(ctx, txMgr, func(context.Context, repositories.Transaction) error { return opErr })

		assert.Same(t, opErr, err)
		tx.AssertNotCalled(t, "Commit")
	})
}
