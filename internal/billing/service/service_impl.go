package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/billing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type ServiceImpl struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository

	// now is swappable so expiry can be tested without sleeping.
	now func() time.Time
}

func New(p Params) domain.Service {
	return &ServiceImpl{
		db:    p.DB,
		log:   p.Log.Named("billing.service"),
		genID: p.GenID,
		repo:  p.Repo,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ServiceImpl) ListTariffs(ctx context.Context) ([]domain.TariffResponse, error) {
	tariffs, err := s.repo.ListTariffs(ctx, s.db)
	if err != nil {
		s.log.Error("failed to list tariffs", zap.Error(err))
		return nil, err
	}
	out := make([]domain.TariffResponse, 0, len(tariffs))
	for i := range tariffs {
		out = append(out, toTariffResponse(&tariffs[i]))
	}
	return out, nil
}

func (s *ServiceImpl) GetTariff(ctx context.Context, code string) (domain.TariffResponse, error) {
	if code == "" {
		return domain.TariffResponse{}, domain.ErrInvalidTariff
	}
	tariff, err := s.repo.FindTariffByCode(ctx, s.db, code)
	if err != nil {
		return domain.TariffResponse{}, err
	}
	if tariff == nil {
		return domain.TariffResponse{}, domain.ErrTariffNotFound
	}
	return toTariffResponse(tariff), nil
}

func (s *ServiceImpl) CurrentSubscription(ctx context.Context, orgID snowflake.ID) (domain.SubscriptionResponse, error) {
	if orgID == 0 {
		return domain.SubscriptionResponse{}, domain.ErrInvalidOrganization
	}
	sub, err := s.repo.FindCurrentSubscription(ctx, s.db, orgID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if sub == nil {
		return domain.SubscriptionResponse{}, domain.ErrNoSubscription
	}
	tariff, err := s.repo.FindTariff(ctx, s.db, sub.TariffID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	return s.toSubscriptionResponse(sub, tariff), nil
}

// Activate starts a new subscription on the given tariff. An existing
// non-terminal subscription blocks activation; upgrades go through
// ConvertTrial or Cancel + Activate.
func (s *ServiceImpl) Activate(ctx context.Context, req domain.ActivateRequest) (domain.SubscriptionResponse, error) {
	if req.OrgID == 0 {
		return domain.SubscriptionResponse{}, domain.ErrInvalidOrganization
	}
	tariff, err := s.repo.FindTariffByCode(ctx, s.db, req.TariffCode)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if tariff == nil {
		return domain.SubscriptionResponse{}, domain.ErrTariffNotFound
	}

	now := s.now()
	current, err := s.repo.FindCurrentSubscription(ctx, s.db, req.OrgID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if current != nil && current.EffectiveStatus(now) == domain.SubscriptionStatusActive {
		return domain.SubscriptionResponse{}, domain.ErrSubscriptionExists
	}

	var sub *domain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub = &domain.Subscription{
			ID:         s.genID.Generate(),
			OrgID:      req.OrgID,
			TariffID:   tariff.ID,
			Status:     domain.SubscriptionStatusActive,
			Trial:      tariff.IsTrial,
			AutoRenew:  req.AutoRenew,
			AmountPaid: req.AmountPaid,
			StartAt:    now,
			EndAt:      now.AddDate(0, 0, tariff.DurationDays),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateSubscription(ctx, tx, sub); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, sub, domain.HistoryActivated, datatypes.JSONMap{
			"tariff_code": tariff.Code,
			"amount_paid": req.AmountPaid,
		})
	})
	if err != nil {
		s.log.Error("failed to activate subscription", zap.Error(err))
		return domain.SubscriptionResponse{}, err
	}

	s.log.Info("subscription activated",
		zap.String("org_id", req.OrgID.String()),
		zap.String("tariff_code", tariff.Code),
		zap.Bool("trial", sub.Trial),
	)
	return s.toSubscriptionResponse(sub, tariff), nil
}

// Cancel marks the current subscription cancelled. Cancelled is terminal;
// coming back means a new subscription.
func (s *ServiceImpl) Cancel(ctx context.Context, req domain.CancelRequest) (domain.SubscriptionResponse, error) {
	if req.OrgID == 0 {
		return domain.SubscriptionResponse{}, domain.ErrInvalidOrganization
	}
	sub, err := s.repo.FindCurrentSubscription(ctx, s.db, req.OrgID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if sub == nil {
		return domain.SubscriptionResponse{}, domain.ErrNoSubscription
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.markCancelled(ctx, tx, sub, now); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, sub, domain.HistoryCancelled, nil)
	})
	if err != nil {
		s.log.Error("failed to cancel subscription", zap.Error(err))
		return domain.SubscriptionResponse{}, err
	}

	tariff, err := s.repo.FindTariff(ctx, s.db, sub.TariffID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	return s.toSubscriptionResponse(sub, tariff), nil
}

// Renew creates a fresh subscription on the same tariff starting from the
// later of now and the current period end. The old record is never
// resurrected or extended.
func (s *ServiceImpl) Renew(ctx context.Context, req domain.RenewRequest) (domain.SubscriptionResponse, error) {
	if req.OrgID == 0 {
		return domain.SubscriptionResponse{}, domain.ErrInvalidOrganization
	}
	current, err := s.repo.FindCurrentSubscription(ctx, s.db, req.OrgID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if current == nil {
		return domain.SubscriptionResponse{}, domain.ErrNoSubscription
	}
	tariff, err := s.repo.FindTariff(ctx, s.db, current.TariffID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if tariff == nil {
		return domain.SubscriptionResponse{}, domain.ErrTariffNotFound
	}

	now := s.now()
	startAt := now
	if current.EndAt.After(now) {
		startAt = current.EndAt
	}

	var next *domain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if current.EffectiveStatus(now) == domain.SubscriptionStatusActive {
			// close out the running record so FindCurrentSubscription
			// returns the renewal
			if err := s.markCancelled(ctx, tx, current, now); err != nil {
				return err
			}
		}
		next = &domain.Subscription{
			ID:         s.genID.Generate(),
			OrgID:      req.OrgID,
			TariffID:   tariff.ID,
			Status:     domain.SubscriptionStatusActive,
			Trial:      false,
			AutoRenew:  current.AutoRenew,
			AmountPaid: req.AmountPaid,
			StartAt:    startAt,
			EndAt:      startAt.AddDate(0, 0, tariff.DurationDays),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateSubscription(ctx, tx, next); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, next, domain.HistoryRenewed, datatypes.JSONMap{
			"previous_subscription_id": current.ID.String(),
			"amount_paid":              req.AmountPaid,
		})
	})
	if err != nil {
		s.log.Error("failed to renew subscription", zap.Error(err))
		return domain.SubscriptionResponse{}, err
	}
	return s.toSubscriptionResponse(next, tariff), nil
}

// ConvertTrial cancels the running trial and starts a paid subscription in
// one transaction; entitlements reflect the new tariff immediately.
func (s *ServiceImpl) ConvertTrial(ctx context.Context, req domain.ConvertTrialRequest) (domain.SubscriptionResponse, error) {
	if req.OrgID == 0 {
		return domain.SubscriptionResponse{}, domain.ErrInvalidOrganization
	}
	trial, err := s.repo.FindCurrentSubscription(ctx, s.db, req.OrgID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if trial == nil {
		return domain.SubscriptionResponse{}, domain.ErrNoSubscription
	}
	if !trial.Trial {
		return domain.SubscriptionResponse{}, domain.ErrNotTrial
	}
	tariff, err := s.repo.FindTariffByCode(ctx, s.db, req.TariffCode)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if tariff == nil {
		return domain.SubscriptionResponse{}, domain.ErrTariffNotFound
	}
	if tariff.IsTrial {
		return domain.SubscriptionResponse{}, domain.ErrInvalidTransition
	}

	now := s.now()
	var paid *domain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.markCancelled(ctx, tx, trial, now); err != nil {
			return err
		}
		paid = &domain.Subscription{
			ID:         s.genID.Generate(),
			OrgID:      req.OrgID,
			TariffID:   tariff.ID,
			Status:     domain.SubscriptionStatusActive,
			Trial:      false,
			AutoRenew:  trial.AutoRenew,
			AmountPaid: req.AmountPaid,
			StartAt:    now,
			EndAt:      now.AddDate(0, 0, tariff.DurationDays),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.CreateSubscription(ctx, tx, paid); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, paid, domain.HistoryTrialConverted, datatypes.JSONMap{
			"trial_subscription_id": trial.ID.String(),
			"tariff_code":           tariff.Code,
			"amount_paid":           req.AmountPaid,
		})
	})
	if err != nil {
		s.log.Error("failed to convert trial", zap.Error(err))
		return domain.SubscriptionResponse{}, err
	}

	s.log.Info("trial converted",
		zap.String("org_id", req.OrgID.String()),
		zap.String("tariff_code", tariff.Code),
	)
	return s.toSubscriptionResponse(paid, tariff), nil
}

// FeatureAllowed reports whether the organization's current subscription
// is active and its tariff entitles the feature. No subscription, or a
// lapsed one, denies regardless of stored flags.
func (s *ServiceImpl) FeatureAllowed(ctx context.Context, orgID snowflake.ID, code string) (bool, error) {
	sub, tariff, err := s.activeSubscription(ctx, orgID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	return tariff.HasFeature(code), nil
}

// QuotaAllows reports whether the organization may create one more
// resource of the kind. A nil tariff limit is unlimited. The count is
// recomputed here, not cached; two concurrent creations can both pass and
// overshoot by one — accepted as a soft limit, reconciled on next check.
func (s *ServiceImpl) QuotaAllows(ctx context.Context, orgID snowflake.ID, kind string) (bool, error) {
	sub, tariff, err := s.activeSubscription(ctx, orgID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	limit := tariff.LimitFor(kind)
	if limit == nil {
		return true, nil
	}
	usage, err := s.Usage(ctx, orgID)
	if err != nil {
		return false, err
	}
	return usage.For(kind) < int64(*limit), nil
}

// Usage recomputes the organization's counters from the tenant hierarchy
// and the order log.
func (s *ServiceImpl) Usage(ctx context.Context, orgID snowflake.ID) (domain.UsageCounter, error) {
	if orgID == 0 {
		return domain.UsageCounter{}, domain.ErrInvalidOrganization
	}
	branches, err := s.repo.CountActiveBranches(ctx, s.db, orgID)
	if err != nil {
		return domain.UsageCounter{}, err
	}
	staff, err := s.repo.CountActiveStaff(ctx, s.db, orgID)
	if err != nil {
		return domain.UsageCounter{}, err
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	orders, err := s.repo.CountOrdersSince(ctx, s.db, orgID, monthStart)
	if err != nil {
		return domain.UsageCounter{}, err
	}
	return domain.UsageCounter{
		Branches:      branches,
		Staff:         staff,
		MonthlyOrders: orders,
	}, nil
}

// activeSubscription returns the current subscription and its tariff only
// when the subscription is effectively active; (nil, nil, nil) otherwise.
// Misconfiguration (subscription without tariff) also denies.
func (s *ServiceImpl) activeSubscription(ctx context.Context, orgID snowflake.ID) (*domain.Subscription, *domain.Tariff, error) {
	if orgID == 0 {
		return nil, nil, domain.ErrInvalidOrganization
	}
	sub, err := s.repo.FindCurrentSubscription(ctx, s.db, orgID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil || !sub.IsActive(s.now()) {
		return nil, nil, nil
	}
	tariff, err := s.repo.FindTariff(ctx, s.db, sub.TariffID)
	if err != nil {
		return nil, nil, err
	}
	if tariff == nil {
		return nil, nil, nil
	}
	return sub, tariff, nil
}

func (s *ServiceImpl) markCancelled(ctx context.Context, tx *gorm.DB, sub *domain.Subscription, now time.Time) error {
	sub.Status = domain.SubscriptionStatusCancelled
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	return s.repo.UpdateSubscription(ctx, tx, sub)
}

func (s *ServiceImpl) recordHistory(ctx context.Context, tx *gorm.DB, sub *domain.Subscription, action string, detail datatypes.JSONMap) error {
	return s.repo.CreateHistory(ctx, tx, &domain.SubscriptionHistory{
		ID:             s.genID.Generate(),
		OrgID:          sub.OrgID,
		SubscriptionID: sub.ID,
		Action:         action,
		Detail:         detail,
		CreatedAt:      s.now(),
	})
}

func (s *ServiceImpl) toSubscriptionResponse(sub *domain.Subscription, tariff *domain.Tariff) domain.SubscriptionResponse {
	resp := domain.SubscriptionResponse{
		ID:         sub.ID.String(),
		OrgID:      sub.OrgID.String(),
		Status:     sub.EffectiveStatus(s.now()),
		Trial:      sub.Trial,
		AutoRenew:  sub.AutoRenew,
		AmountPaid: sub.AmountPaid,
		StartAt:    sub.StartAt,
		EndAt:      sub.EndAt,
	}
	if tariff != nil {
		resp.TariffCode = tariff.Code
	}
	return resp
}

func toTariffResponse(t *domain.Tariff) domain.TariffResponse {
	return domain.TariffResponse{
		ID:               t.ID.String(),
		Code:             t.Code,
		Name:             t.Name,
		Description:      t.Description,
		Price:            t.Price,
		DurationDays:     t.DurationDays,
		IsTrial:          t.IsTrial,
		Features:         t.Features,
		MaxBranches:      t.MaxBranches,
		MaxStaff:         t.MaxStaff,
		MaxMonthlyOrders: t.MaxMonthlyOrders,
	}
}
