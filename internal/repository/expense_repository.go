package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/domain"
	"github.com/spendwise/spendwise/internal/observability"
)

var ErrExpenseNotFound = errors.New("expense not found")

type ExpenseFilter struct {
	CategoryID *uint
	From       *time.Time
	To         *time.Time
}

type ExpenseRepository interface {
	OwnedRepository[domain.Expense]
	ListPaged(userID uint, filter ExpenseFilter, req PageRequest) (PageResult[domain.Expense], error)
}

type GormExpenseRepository struct {
	*gormOwnedRepository[domain.Expense]
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &GormExpenseRepository{
		gormOwnedRepository: newGormOwnedRepository[domain.Expense](db, "expense", "date desc, id desc", ErrExpenseNotFound),
		db:                  db,
	}
}

func (r *GormExpenseRepository) ListPaged(userID uint, filter ExpenseFilter, req PageRequest) (PageResult[domain.Expense], error) {
	normalized := normalizePageRequest(req)
	result := PageResult[domain.Expense]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	base := r.db.Model(&domain.Expense{}).Where("user_id = ?", userID)
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.From != nil {
		base = base.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		base = base.Where("date <= ?", *filter.To)
	}

	if err := base.Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "expense", "list_paged", "error")
		return PageResult[domain.Expense]{}, err
	}
	offset := (normalized.Page - 1) * normalized.PageSize
	if err := base.Order("date desc, id desc").Offset(offset).Limit(normalized.PageSize).Find(&result.Items).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "expense", "list_paged", "error")
		return PageResult[domain.Expense]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, normalized.PageSize)
	observability.RecordRepositoryOperation(context.Background(), "expense", "list_paged", "success")
	return result, nil
}
