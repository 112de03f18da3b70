package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists tariffs, subscriptions and their history. Usage
// counts are read through here as well so the gate recomputes them at
// check time instead of trusting a stored counter.
type Repository interface {
	CreateTariff(ctx context.Context, db *gorm.DB, tariff *Tariff) error
	FindTariff(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tariff, error)
	FindTariffByCode(ctx context.Context, db *gorm.DB, code string) (*Tariff, error)
	ListTariffs(ctx context.Context, db *gorm.DB) ([]Tariff, error)

	CreateSubscription(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	// FindCurrentSubscription returns the organization's newest
	// non-cancelled subscription, or nil when none exists.
	FindCurrentSubscription(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Subscription, error)
	UpdateSubscription(ctx context.Context, db *gorm.DB, sub *Subscription) error

	CreateHistory(ctx context.Context, db *gorm.DB, event *SubscriptionHistory) error
	ListHistory(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]SubscriptionHistory, error)

	CountActiveBranches(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
	CountActiveStaff(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)
	CountOrdersSince(ctx context.Context, db *gorm.DB, orgID snowflake.ID, since time.Time) (int64, error)
}
