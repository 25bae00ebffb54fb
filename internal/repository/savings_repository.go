package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain"
)

var ErrSavingsNotFound = errors.New("savings record not found")

type SavingsRepository interface {
	OwnedRepository[domain.Savings]
}

func NewSavingsRepository(db *gorm.DB) SavingsRepository {
	return newGormOwnedRepository[domain.Savings](db, "savings", "date desc, id desc", ErrSavingsNotFound)
}
