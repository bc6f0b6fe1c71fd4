package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Beginner starts transactions. Satisfied by *pgxpool.Pool.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager provides transaction management capabilities.
type TxManager struct {
	db     Beginner
	logger *zap.Logger
}

// NewTxManager creates a new transaction manager.
func NewTxManager(db Beginner, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// TxFunc is a function that runs within a transaction.
// If it returns an error, the transaction is rolled back.
type TxFunc func(ctx context.Context, tx pgx.Tx) error

// WithTransaction executes fn within a transaction, committing on success
// and rolling back on error.
func (tm *TxManager) WithTransaction(ctx context.Context, fn TxFunc) error {
	tx, err := tm.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// No-op if commit succeeds
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			tm.logger.Error("failed to rollback transaction", zap.Error(err))
		}
	}()

	if err := fn(ctx, tx); err != nil {
		tm.logger.Debug("transaction rolling back due to error", zap.Error(err))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
