package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/database"
	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

func TestSettingsRepository_Get_Absent(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSettingsRepository(mock, nil)

	mock.ExpectQuery("SELECT(?s:.*)FROM settings WHERE key").
		WithArgs("model_api_key").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "key", "value", "value_type", "category", "description",
			"created_at", "updated_at",
		}))

	got, err := repo.Get(context.Background(), "model_api_key")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent key, got %+v", got)
	}
}

func TestSettingsRepository_Get(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSettingsRepository(mock, nil)

	now := time.Now()
	mock.ExpectQuery("SELECT(?s:.*)FROM settings WHERE key").
		WithArgs(domain.SettingKeyBusinessName).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "key", "value", "value_type", "category", "description",
			"created_at", "updated_at",
		}).AddRow(
			uuid.New(), domain.SettingKeyBusinessName, "Vision-Sync",
			domain.SettingTypeString, domain.SettingCategoryBusiness, "", now, now,
		))

	got, err := repo.Get(context.Background(), domain.SettingKeyBusinessName)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got == nil || got.Value != "Vision-Sync" {
		t.Fatalf("expected stored value, got %+v", got)
	}
}

func TestSettingsRepository_Set_Upserts(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSettingsRepository(mock, nil)

	mock.ExpectExec(`INSERT INTO settings(?s:.*)ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("max_reply_words", "90").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Set(context.Background(), "max_reply_words", "90"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSettingsRepository_SetMany_SingleTransaction(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSettingsRepository(mock, database.NewTxManager(mock, zap.NewNop()))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("business_name", "Vision-Sync").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err := repo.SetMany(context.Background(), map[string]string{
		"business_name": "Vision-Sync",
	})
	if err != nil {
		t.Fatalf("SetMany returned error: %v", err)
	}
}

func TestSettingsRepository_SetMany_Empty(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSettingsRepository(mock, database.NewTxManager(mock, zap.NewNop()))

	// No Begin expected; an empty map must not touch the database.
	if err := repo.SetMany(context.Background(), nil); err != nil {
		t.Fatalf("SetMany returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
