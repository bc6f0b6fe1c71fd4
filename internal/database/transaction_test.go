package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"
)

func TestTxManager_Commit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE settings").WithArgs("x").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback() // deferred rollback after commit is a no-op

	tm := NewTxManager(mock, zap.NewNop())
	err = tm.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "UPDATE settings SET value = $1", "x")
		return err
	})
	if err != nil {
		t.Fatalf("expected commit to succeed, got %v", err)
	}
}

func TestTxManager_RollbackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tm := NewTxManager(mock, zap.NewNop())
	wantErr := errors.New("boom")
	err = tm.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTxManager_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	tm := NewTxManager(mock, zap.NewNop())
	err = tm.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		t.Fatal("fn must not run when begin fails")
		return nil
	})
	if err == nil {
		t.Fatal("expected error when begin fails")
	}
}
