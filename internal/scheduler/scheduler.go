// Package scheduler runs the subscription renewal loop. Subscriptions
// flagged auto_renew are renewed once their period ends; everything else
// lapses on its own because effective status is derived from the clock.
package scheduler

import (
	"context"
	"errors"
	"time"

	auditdomain "github.com/karimoff96/Multilang/internal/audit/domain"
	billingdomain "github.com/karimoff96/Multilang/internal/billing/domain"
	"github.com/karimoff96/Multilang/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler dependencies are incomplete")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	BillingSvc billingdomain.Service
	AuditSvc   auditdomain.Service
	Config     Config `optional:"true"`
}

type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	billingSvc billingdomain.Service
	auditSvc   auditdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.BillingSvc == nil || p.AuditSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		billingSvc: p.BillingSvc,
		auditSvc:   p.AuditSvc,
	}, nil
}

// RunForever ticks the renewal job until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Error("renewal pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce renews every due auto-renew subscription in one batch. The
// consumed record's auto_renew flag is cleared so a pass never picks the
// same row twice; the renewal carries the flag forward.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	now := s.clock.Now()
	var due []billingdomain.Subscription
	err := s.db.WithContext(ctx).
		Where("auto_renew = ? AND status = ? AND canceled_at IS NULL AND trial = ? AND end_at <= ?",
			true, billingdomain.SubscriptionStatusActive, false, now).
		Order("end_at ASC").
		Limit(s.cfg.BatchSize).
		Find(&due).Error
	if err != nil {
		return err
	}

	for i := range due {
		if err := s.renew(ctx, &due[i]); err != nil {
			s.log.Error("auto renew failed",
				zap.String("org_id", due[i].OrgID.String()),
				zap.String("subscription_id", due[i].ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Scheduler) renew(ctx context.Context, expired *billingdomain.Subscription) error {
	renewed, err := s.billingSvc.Renew(ctx, billingdomain.RenewRequest{
		OrgID:      expired.OrgID,
		AmountPaid: expired.AmountPaid,
	})
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).
		Model(&billingdomain.Subscription{}).
		Where("id = ?", expired.ID).
		Update("auto_renew", false).Error
	if err != nil {
		return err
	}

	orgID := expired.OrgID
	subID := renewed.ID
	if auditErr := s.auditSvc.AuditLog(ctx, auditdomain.Event{
		OrgID:      &orgID,
		ActorType:  string(auditdomain.ActorTypeSystem),
		Action:     "subscription.auto_renew",
		TargetType: "subscription",
		TargetID:   &subID,
		Decision:   "renewed",
		Metadata: map[string]any{
			"previous_subscription_id": expired.ID.String(),
			"tariff_code":              renewed.TariffCode,
		},
	}); auditErr != nil {
		s.log.Warn("audit auto renew", zap.Error(auditErr))
	}

	s.log.Info("subscription renewed",
		zap.String("org_id", expired.OrgID.String()),
		zap.String("previous_subscription_id", expired.ID.String()),
		zap.String("subscription_id", renewed.ID),
	)
	return nil
}
