// Package domain contains persistence models for tariffs and subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Feature codes gated by tariffs. The set is open; tariffs store codes as
// JSON so new features need no migration.
const (
	FeatureMarketingBroadcasts = "marketing_broadcasts"
	FeatureFinancialReports    = "financial_reports"
	FeatureDataExport          = "data_export"
	FeatureAnalytics           = "analytics"
	FeatureAPIAccess           = "api_access"
)

// Quota kinds a tariff can limit.
const (
	QuotaBranches      = "branches"
	QuotaStaff         = "staff"
	QuotaMonthlyOrders = "orders"
)

// Tariff is a platform-owned catalog entry: feature entitlements plus
// numeric limits. A nil limit means unlimited.
type Tariff struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	Code             string            `gorm:"type:text;not null;uniqueIndex"`
	Name             string            `gorm:"type:text;not null"`
	Description      string            `gorm:"type:text"`
	Price            int64             `gorm:"not null;default:0"`
	DurationDays     int               `gorm:"not null"`
	IsTrial          bool              `gorm:"not null;default:false"`
	Features         datatypes.JSONMap `gorm:"type:jsonb"`
	MaxBranches      *int              `gorm:""`
	MaxStaff         *int              `gorm:""`
	MaxMonthlyOrders *int              `gorm:""`
	Active           bool              `gorm:"not null;default:true"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tariff) TableName() string { return "tariffs" }

// HasFeature reports whether the tariff entitles the feature code.
func (t *Tariff) HasFeature(code string) bool {
	if t == nil || t.Features == nil {
		return false
	}
	v, ok := t.Features[code]
	if !ok {
		return false
	}
	enabled, ok := v.(bool)
	return ok && enabled
}

// LimitFor returns the tariff limit for a quota kind; nil means unlimited.
// Unknown kinds are unlimited rather than denied, the gate only guards
// kinds the catalog prices.
func (t *Tariff) LimitFor(kind string) *int {
	if t == nil {
		return nil
	}
	switch kind {
	case QuotaBranches:
		return t.MaxBranches
	case QuotaStaff:
		return t.MaxStaff
	case QuotaMonthlyOrders:
		return t.MaxMonthlyOrders
	default:
		return nil
	}
}

// Subscription binds an organization to a tariff for a time window.
type Subscription struct {
	ID         snowflake.ID       `gorm:"primaryKey"`
	OrgID      snowflake.ID       `gorm:"not null;index"`
	TariffID   snowflake.ID       `gorm:"not null;index"`
	Status     SubscriptionStatus `gorm:"type:text;not null"`
	Trial      bool               `gorm:"not null;default:false"`
	AutoRenew  bool               `gorm:"not null;default:false"`
	AmountPaid int64              `gorm:"not null;default:0"`
	StartAt    time.Time          `gorm:"not null"`
	EndAt      time.Time          `gorm:"not null"`
	CanceledAt *time.Time         `gorm:""`
	CreatedAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// EffectiveStatus computes the subscription status as a pure function of
// the clock against the stored dates. Cancellation and pending activation
// are explicit transitions; expiry is never written back, it is derived on
// every read so a lapsed subscription denies the instant its end passes.
func (s *Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s == nil {
		return SubscriptionStatusExpired
	}
	if s.Status == SubscriptionStatusCancelled || s.CanceledAt != nil {
		return SubscriptionStatusCancelled
	}
	if s.Status == SubscriptionStatusPending {
		return SubscriptionStatusPending
	}
	if now.Before(s.StartAt) {
		return SubscriptionStatusPending
	}
	if !now.Before(s.EndAt) {
		return SubscriptionStatusExpired
	}
	return SubscriptionStatusActive
}

// IsActive reports whether the subscription grants entitlements at now.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.EffectiveStatus(now) == SubscriptionStatusActive
}

// SubscriptionHistory is an append-only event log of subscription
// transitions.
type SubscriptionHistory struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	OrgID          snowflake.ID      `gorm:"not null;index"`
	SubscriptionID snowflake.ID      `gorm:"not null;index"`
	Action         string            `gorm:"type:text;not null"`
	Detail         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SubscriptionHistory) TableName() string { return "subscription_history" }

// History actions.
const (
	HistoryActivated      = "activated"
	HistoryCancelled      = "cancelled"
	HistoryRenewed        = "renewed"
	HistoryTrialConverted = "trial_converted"
)

// UsageCounter is derived at check time from the tenant hierarchy and the
// order log; it is never stored.
type UsageCounter struct {
	Branches      int64 `json:"branches"`
	Staff         int64 `json:"staff"`
	MonthlyOrders int64 `json:"monthly_orders"`
}

// For returns the counter value for a quota kind.
func (u UsageCounter) For(kind string) int64 {
	switch kind {
	case QuotaBranches:
		return u.Branches
	case QuotaStaff:
		return u.Staff
	case QuotaMonthlyOrders:
		return u.MonthlyOrders
	default:
		return 0
	}
}
