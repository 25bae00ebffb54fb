package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain"
)

var ErrBudgetNotFound = errors.New("budget not found")

type BudgetRepository interface {
	OwnedRepository[domain.Budget]
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return newGormOwnedRepository[domain.Budget](db, "budget", "start_date desc, id desc", ErrBudgetNotFound)
}
