package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain"
)

var ErrIncomeNotFound = errors.New("income not found")

type IncomeRepository interface {
	OwnedRepository[domain.Income]
}

func NewIncomeRepository(db *gorm.DB) IncomeRepository {
	return newGormOwnedRepository[domain.Income](db, "income", "date desc, id desc", ErrIncomeNotFound)
}
