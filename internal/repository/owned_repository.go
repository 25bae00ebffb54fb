package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/spendwise/spendwise/internal/observability"
)

// OwnedRepository is the access pattern shared by every finance record:
// all reads and writes are scoped to the owning user, so a row belonging
// to someone else is indistinguishable from a missing row.
type OwnedRepository[T any] interface {
	Create(rec *T) error
	FindByID(userID, id uint) (*T, error)
	ListByUser(userID uint) ([]T, error)
	DeleteByID(userID, id uint) error
}

type gormOwnedRepository[T any] struct {
	db       *gorm.DB
	entity   string
	order    string
	notFound error
}

func newGormOwnedRepository[T any](db *gorm.DB, entity, order string, notFound error) *gormOwnedRepository[T] {
	return &gormOwnedRepository[T]{db: db, entity: entity, order: order, notFound: notFound}
}

func (r *gormOwnedRepository[T]) Create(rec *T) error {
	if err := r.db.Create(rec).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), r.entity, "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), r.entity, "create", "success")
	return nil
}

func (r *gormOwnedRepository[T]) FindByID(userID, id uint) (*T, error) {
	var rec T
	err := r.db.Where("user_id = ? AND id = ?", userID, id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), r.entity, "find_by_id", "not_found")
			return nil, r.notFound
		}
		observability.RecordRepositoryOperation(context.Background(), r.entity, "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), r.entity, "find_by_id", "success")
	return &rec, nil
}

func (r *gormOwnedRepository[T]) ListByUser(userID uint) ([]T, error) {
	recs := []T{}
	err := r.db.Where("user_id = ?", userID).Order(r.order).Find(&recs).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), r.entity, "list_by_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), r.entity, "list_by_user", "success")
	return recs, nil
}

func (r *gormOwnedRepository[T]) DeleteByID(userID, id uint) error {
	var zero T
	res := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&zero)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), r.entity, "delete_by_id", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(context.Background(), r.entity, "delete_by_id", "not_found")
		return r.notFound
	}
	observability.RecordRepositoryOperation(context.Background(), r.entity, "delete_by_id", "success")
	return nil
}
