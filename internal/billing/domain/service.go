package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ActivateRequest struct {
	OrgID      snowflake.ID `json:"org_id"`
	TariffCode string       `json:"tariff_code"`
	AutoRenew  bool         `json:"auto_renew"`
	AmountPaid int64        `json:"amount_paid"`
}

type CancelRequest struct {
	OrgID snowflake.ID `json:"org_id"`
}

type RenewRequest struct {
	OrgID      snowflake.ID `json:"org_id"`
	AmountPaid int64        `json:"amount_paid"`
}

type ConvertTrialRequest struct {
	OrgID      snowflake.ID `json:"org_id"`
	TariffCode string       `json:"tariff_code"`
	AmountPaid int64        `json:"amount_paid"`
}

type TariffResponse struct {
	ID               string         `json:"id"`
	Code             string         `json:"code"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Price            int64          `json:"price"`
	DurationDays     int            `json:"duration_days"`
	IsTrial          bool           `json:"is_trial"`
	Features         map[string]any `json:"features,omitempty"`
	MaxBranches      *int           `json:"max_branches,omitempty"`
	MaxStaff         *int           `json:"max_staff,omitempty"`
	MaxMonthlyOrders *int           `json:"max_monthly_orders,omitempty"`
}

type SubscriptionResponse struct {
	ID         string             `json:"id"`
	OrgID      string             `json:"org_id"`
	TariffCode string             `json:"tariff_code"`
	Status     SubscriptionStatus `json:"status"`
	Trial      bool               `json:"trial"`
	AutoRenew  bool               `json:"auto_renew"`
	AmountPaid int64              `json:"amount_paid"`
	StartAt    time.Time          `json:"start_at"`
	EndAt      time.Time          `json:"end_at"`
}

// Service is the subscription gate plus the subscription lifecycle.
// FeatureAllowed and QuotaAllows are the two gate operations the guard
// composes; the rest manage the state machine pending → active →
// expired/cancelled, where renewal always creates a new record.
type Service interface {
	ListTariffs(ctx context.Context) ([]TariffResponse, error)
	GetTariff(ctx context.Context, code string) (TariffResponse, error)

	CurrentSubscription(ctx context.Context, orgID snowflake.ID) (SubscriptionResponse, error)
	Activate(ctx context.Context, req ActivateRequest) (SubscriptionResponse, error)
	Cancel(ctx context.Context, req CancelRequest) (SubscriptionResponse, error)
	Renew(ctx context.Context, req RenewRequest) (SubscriptionResponse, error)
	ConvertTrial(ctx context.Context, req ConvertTrialRequest) (SubscriptionResponse, error)

	FeatureAllowed(ctx context.Context, orgID snowflake.ID, code string) (bool, error)
	QuotaAllows(ctx context.Context, orgID snowflake.ID, kind string) (bool, error)
	Usage(ctx context.Context, orgID snowflake.ID) (UsageCounter, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidTariff       = errors.New("invalid_tariff")
	ErrTariffNotFound      = errors.New("tariff_not_found")
	ErrSubscriptionExists  = errors.New("subscription_exists")
	ErrNoSubscription      = errors.New("no_subscription")
	ErrNotTrial            = errors.New("not_trial")
	ErrInvalidTransition   = errors.New("invalid_transition")
)
