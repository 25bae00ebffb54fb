package database

import (
	"context"
	"time"

	"github.com/spendwise/spendwise/internal/domain"
	"github.com/spendwise/spendwise/internal/observability"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	start := time.Now()
	err := db.AutoMigrate(
		&domain.User{},
		&domain.ExpenseCategory{},
		&domain.Expense{},
		&domain.Income{},
		&domain.Budget{},
		&domain.Savings{},
		&domain.RecurringExpense{},
	)
	observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "success")
	return nil
}
