package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/billing/domain"
	orderdomain "github.com/karimoff96/Multilang/internal/order/domain"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateTariff(ctx context.Context, db *gorm.DB, tariff *domain.Tariff) error {
	return db.WithContext(ctx).Create(tariff).Error
}

func (r *repo) FindTariff(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) FindTariffByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		Limit(1).
		Find(&tariff).Error
	if err != nil {
		return nil, err
	}
	if tariff.ID == 0 {
		return nil, nil
	}
	return &tariff, nil
}

func (r *repo) ListTariffs(ctx context.Context, db *gorm.DB) ([]domain.Tariff, error) {
	var items []domain.Tariff
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("price ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CreateSubscription(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *repo) FindSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) FindCurrentSubscription(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).
		Where("org_id = ? AND status <> ?", orgID, domain.SubscriptionStatusCancelled).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) UpdateSubscription(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	if sub == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{
			"status":      sub.Status,
			"auto_renew":  sub.AutoRenew,
			"canceled_at": sub.CanceledAt,
			"updated_at":  sub.UpdatedAt,
		}).Error
}

func (r *repo) CreateHistory(ctx context.Context, db *gorm.DB, event *domain.SubscriptionHistory) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.SubscriptionHistory, error) {
	var items []domain.SubscriptionHistory
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountActiveBranches(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&tenantdomain.Branch{}).
		Where("org_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	return count, err
}

func (r *repo) CountActiveStaff(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&tenantdomain.Staff{}).
		Where("org_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	return count, err
}

func (r *repo) CountOrdersSince(ctx context.Context, db *gorm.DB, orgID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&orderdomain.Order{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).
		Count(&count).Error
	return count, err
}
