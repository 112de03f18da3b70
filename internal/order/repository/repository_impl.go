package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/order/domain"
	"github.com/karimoff96/Multilang/internal/rbac"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, id snowflake.ID, filter rbac.FilterSpec) (*domain.Order, error) {
	var order domain.Order
	stmt := db.WithContext(ctx).
		Where("id = ?", id)
	stmt = filter.Apply(stmt, rbac.Columns{})
	err := stmt.
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter rbac.FilterSpec) ([]domain.Order, error) {
	var items []domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	stmt = filter.Apply(stmt, rbac.Columns{})
	err := stmt.Order("created_at DESC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.OrderStatus) error {
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}
