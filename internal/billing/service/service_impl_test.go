package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/karimoff96/Multilang/internal/billing/domain"
	"github.com/karimoff96/Multilang/internal/billing/repository"
	orderdomain "github.com/karimoff96/Multilang/internal/order/domain"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func setupBillingService(t *testing.T, node *snowflake.Node) (*ServiceImpl, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	err = db.AutoMigrate(
		&domain.Tariff{},
		&domain.Subscription{},
		&domain.SubscriptionHistory{},
		&tenantdomain.Branch{},
		&tenantdomain.Staff{},
		&orderdomain.Order{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	}).(*ServiceImpl)

	return svc, db
}

func seedTariff(t *testing.T, db *gorm.DB, node *snowflake.Node, code string, mutate func(*domain.Tariff)) *domain.Tariff {
	t.Helper()
	tariff := &domain.Tariff{
		ID:           node.Generate(),
		Code:         code,
		Name:         code,
		DurationDays: 30,
		Features:     datatypes.JSONMap{},
		Active:       true,
	}
	if mutate != nil {
		mutate(tariff)
	}
	if err := db.Create(tariff).Error; err != nil {
		t.Fatalf("seed tariff: %v", err)
	}
	return tariff
}

func intPtr(v int) *int { return &v }

func TestEffectiveStatusIsPureFunctionOfTime(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sub := &domain.Subscription{
		Status:  domain.SubscriptionStatusActive,
		StartAt: now.AddDate(0, 0, -10),
		EndAt:   now.AddDate(0, 0, 20),
	}

	assert.Equal(t, domain.SubscriptionStatusActive, sub.EffectiveStatus(now))
	assert.Equal(t, domain.SubscriptionStatusPending, sub.EffectiveStatus(now.AddDate(0, 0, -11)))
	assert.Equal(t, domain.SubscriptionStatusExpired, sub.EffectiveStatus(now.AddDate(0, 0, 20)))
	assert.Equal(t, domain.SubscriptionStatusExpired, sub.EffectiveStatus(sub.EndAt))

	cancelledAt := now
	sub.CanceledAt = &cancelledAt
	assert.Equal(t, domain.SubscriptionStatusCancelled, sub.EffectiveStatus(now))
}

func TestActivateCreatesSubscriptionWithHistory(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	seedTariff(t, db, node, "basic", func(tf *domain.Tariff) {
		tf.MaxBranches = intPtr(1)
	})

	resp, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "basic", AmountPaid: 1500})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusActive, resp.Status)
	assert.Equal(t, "basic", resp.TariffCode)
	assert.False(t, resp.Trial)

	// a second activation while the first is running is rejected
	_, err = svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "basic"})
	assert.ErrorIs(t, err, domain.ErrSubscriptionExists)

	var events []domain.SubscriptionHistory
	require.NoError(t, db.Where("org_id = ?", orgID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, domain.HistoryActivated, events[0].Action)
}

func TestFeatureAllowedRequiresActiveSubscriptionAndFlag(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	// no subscription denies everything
	allowed, err := svc.FeatureAllowed(ctx, orgID, domain.FeatureFinancialReports)
	require.NoError(t, err)
	assert.False(t, allowed)

	seedTariff(t, db, node, "pro", func(tf *domain.Tariff) {
		tf.Features = datatypes.JSONMap{
			domain.FeatureFinancialReports: true,
			domain.FeatureDataExport:       false,
		}
	})
	_, err = svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "pro"})
	require.NoError(t, err)

	allowed, err = svc.FeatureAllowed(ctx, orgID, domain.FeatureFinancialReports)
	require.NoError(t, err)
	assert.True(t, allowed)

	// stored-false and unknown codes both deny
	allowed, err = svc.FeatureAllowed(ctx, orgID, domain.FeatureDataExport)
	require.NoError(t, err)
	assert.False(t, allowed)
	allowed, err = svc.FeatureAllowed(ctx, orgID, domain.FeatureMarketingBroadcasts)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFeatureDeniedTheInstantSubscriptionLapses(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	seedTariff(t, db, node, "pro", func(tf *domain.Tariff) {
		tf.Features = datatypes.JSONMap{domain.FeatureAnalytics: true}
	})
	_, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "pro"})
	require.NoError(t, err)

	allowed, err := svc.FeatureAllowed(ctx, orgID, domain.FeatureAnalytics)
	require.NoError(t, err)
	assert.True(t, allowed)

	// jump the clock past the end date; no status-update job has run
	svc.now = func() time.Time { return time.Now().UTC().AddDate(0, 0, 31) }
	allowed, err = svc.FeatureAllowed(ctx, orgID, domain.FeatureAnalytics)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestQuotaAllowsNullLimitIsUnlimited(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	seedTariff(t, db, node, "enterprise", nil) // all limits nil
	_, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "enterprise"})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		branch := &tenantdomain.Branch{ID: node.Generate(), OrgID: orgID, Name: "b", Active: true}
		require.NoError(t, db.Create(branch).Error)
	}

	allowed, err := svc.QuotaAllows(ctx, orgID, domain.QuotaBranches)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestQuotaAllowsStrictlyLessThanLimit(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	seedTariff(t, db, node, "basic", func(tf *domain.Tariff) {
		tf.MaxBranches = intPtr(3)
	})
	_, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "basic"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&tenantdomain.Branch{ID: node.Generate(), OrgID: orgID, Name: "b", Active: true}).Error)
	}
	allowed, err := svc.QuotaAllows(ctx, orgID, domain.QuotaBranches)
	require.NoError(t, err)
	assert.True(t, allowed) // current = 2 < 3

	require.NoError(t, db.Create(&tenantdomain.Branch{ID: node.Generate(), OrgID: orgID, Name: "b", Active: true}).Error)
	allowed, err = svc.QuotaAllows(ctx, orgID, domain.QuotaBranches)
	require.NoError(t, err)
	assert.False(t, allowed) // current = 3 >= 3
}

func TestQuotaCountsOnlyCurrentMonthOrders(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()
	branchID := node.Generate()
	staffID := node.Generate()

	seedTariff(t, db, node, "basic", func(tf *domain.Tariff) {
		tf.MaxMonthlyOrders = intPtr(2)
	})
	_, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "basic"})
	require.NoError(t, err)

	lastMonth := time.Now().UTC().AddDate(0, -1, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&orderdomain.Order{
			ID: node.Generate(), OrgID: orgID, BranchID: branchID, CreatedBy: staffID,
			Status: orderdomain.OrderStatusCompleted, CreatedAt: lastMonth,
		}).Error)
	}

	allowed, err := svc.QuotaAllows(ctx, orgID, domain.QuotaMonthlyOrders)
	require.NoError(t, err)
	assert.True(t, allowed)

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&orderdomain.Order{
			ID: node.Generate(), OrgID: orgID, BranchID: branchID, CreatedBy: staffID,
			Status: orderdomain.OrderStatusOpen, CreatedAt: time.Now().UTC(),
		}).Error)
	}
	allowed, err = svc.QuotaAllows(ctx, orgID, domain.QuotaMonthlyOrders)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCancelIsTerminal(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	seedTariff(t, db, node, "basic", func(tf *domain.Tariff) {
		tf.Features = datatypes.JSONMap{domain.FeatureAnalytics: true}
	})
	_, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "basic"})
	require.NoError(t, err)

	resp, err := svc.Cancel(ctx, domain.CancelRequest{OrgID: orgID})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCancelled, resp.Status)

	allowed, err := svc.FeatureAllowed(ctx, orgID, domain.FeatureAnalytics)
	require.NoError(t, err)
	assert.False(t, allowed)

	_, err = svc.Cancel(ctx, domain.CancelRequest{OrgID: orgID})
	assert.ErrorIs(t, err, domain.ErrNoSubscription)

	// a fresh activation works; the old record stays cancelled
	_, err = svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "basic"})
	require.NoError(t, err)
}

func TestConvertTrialCreatesPaidSubscription(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	seedTariff(t, db, node, "trial", func(tf *domain.Tariff) {
		tf.IsTrial = true
		tf.DurationDays = 10
	})
	seedTariff(t, db, node, "pro", func(tf *domain.Tariff) {
		tf.Features = datatypes.JSONMap{domain.FeatureMarketingBroadcasts: true}
	})

	trialResp, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "trial"})
	require.NoError(t, err)
	assert.True(t, trialResp.Trial)

	allowed, err := svc.FeatureAllowed(ctx, orgID, domain.FeatureMarketingBroadcasts)
	require.NoError(t, err)
	assert.False(t, allowed)

	paidResp, err := svc.ConvertTrial(ctx, domain.ConvertTrialRequest{OrgID: orgID, TariffCode: "pro", AmountPaid: 4900})
	require.NoError(t, err)
	assert.False(t, paidResp.Trial)
	assert.Equal(t, "pro", paidResp.TariffCode)

	// original trial record is terminal
	var trial domain.Subscription
	require.NoError(t, db.Where("org_id = ? AND trial = ?", orgID, true).First(&trial).Error)
	assert.Equal(t, domain.SubscriptionStatusCancelled, trial.Status)

	// entitlements reflect the new tariff immediately
	allowed, err = svc.FeatureAllowed(ctx, orgID, domain.FeatureMarketingBroadcasts)
	require.NoError(t, err)
	assert.True(t, allowed)

	// converting twice fails: current subscription is no longer a trial
	_, err = svc.ConvertTrial(ctx, domain.ConvertTrialRequest{OrgID: orgID, TariffCode: "pro"})
	assert.ErrorIs(t, err, domain.ErrNotTrial)
}

func TestRenewCreatesNewRecord(t *testing.T) {
	node := mustNode(t)
	svc, db := setupBillingService(t, node)
	ctx := context.Background()
	orgID := node.Generate()

	seedTariff(t, db, node, "basic", nil)
	first, err := svc.Activate(ctx, domain.ActivateRequest{OrgID: orgID, TariffCode: "basic"})
	require.NoError(t, err)

	renewed, err := svc.Renew(ctx, domain.RenewRequest{OrgID: orgID, AmountPaid: 1500})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, renewed.ID)
	// renewal starts where the running period ends
	assert.WithinDuration(t, first.EndAt, renewed.StartAt, time.Second)

	var count int64
	require.NoError(t, db.Model(&domain.Subscription{}).Where("org_id = ?", orgID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
