package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain"
)

var ErrRecurringExpenseNotFound = errors.New("recurring expense not found")

type RecurringExpenseRepository interface {
	OwnedRepository[domain.RecurringExpense]
}

func NewRecurringExpenseRepository(db *gorm.DB) RecurringExpenseRepository {
	return newGormOwnedRepository[domain.RecurringExpense](db, "recurring_expense", "next_due_date asc, id asc", ErrRecurringExpenseNotFound)
}
