package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain"
)

var ErrExpenseCategoryNotFound = errors.New("expense category not found")

type ExpenseCategoryRepository interface {
	OwnedRepository[domain.ExpenseCategory]
}

func NewExpenseCategoryRepository(db *gorm.DB) ExpenseCategoryRepository {
	return newGormOwnedRepository[domain.ExpenseCategory](db, "expense_category", "name asc", ErrExpenseCategoryNotFound)
}
