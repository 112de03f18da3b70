// Package seed bootstraps the reference data the platform cannot run
// without: the system roles and the tariff catalog. Seeding is
// idempotent; existing rows are left untouched so operator edits to
// display names or prices survive restarts.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/karimoff96/Multilang/internal/billing/domain"
	"github.com/karimoff96/Multilang/internal/rbac"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureSystemRoles seeds the built-in roles. Master flags are stored as
// plain permission entries; the resolver expands them at check time.
func EnsureSystemRoles(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, role := range systemRoles(node) {
			var existing tenantdomain.Role
			err := tx.WithContext(ctx).Where("name = ?", role.Name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.WithContext(ctx).Create(&role).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureTariffCatalog seeds the default tariff catalog.
func EnsureTariffCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tariff := range defaultTariffs(node) {
			var existing billingdomain.Tariff
			err := tx.WithContext(ctx).Where("code = ?", tariff.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.WithContext(ctx).Create(&tariff).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func systemRoles(node *snowflake.Node) []tenantdomain.Role {
	now := time.Now().UTC()

	ownerFlags := datatypes.JSONMap{
		rbac.CapManageOrders:    true,
		rbac.CapManageStaff:     true,
		rbac.CapManageBranches:  true,
		rbac.CapManageFinances:  true,
		rbac.CapManageReports:   true,
		rbac.CapManageProducts:  true,
		rbac.CapManageCustomers: true,
		rbac.CapManageMarketing: true,
		rbac.CapManageSettings:  true,
	}

	managerFlags := datatypes.JSONMap{
		rbac.CapViewBranchOrders:     true,
		rbac.CapCreateOrders:         true,
		rbac.CapEditOrders:           true,
		rbac.CapAssignOrders:         true,
		rbac.CapUpdateOrderStatus:    true,
		rbac.CapCompleteOrders:       true,
		rbac.CapCancelOrders:         true,
		rbac.CapViewBranchStaff:      true,
		rbac.CapViewOwnBranch:        true,
		rbac.CapViewBranchCustomers:  true,
		rbac.CapViewCustomerDetails:  true,
		rbac.CapEditCustomers:        true,
		rbac.CapReceivePayments:      true,
		rbac.CapApplyDiscounts:       true,
		rbac.CapViewProducts:         true,
		rbac.CapViewStaffPerformance: true,
	}

	staffFlags := datatypes.JSONMap{
		rbac.CapViewOwnOrders:     true,
		rbac.CapCreateOrders:      true,
		rbac.CapUpdateOrderStatus: true,
		rbac.CapCompleteOrders:    true,
		rbac.CapViewOwnCustomers:  true,
		rbac.CapViewOwnBranch:     true,
		rbac.CapViewProducts:      true,
		rbac.CapReceivePayments:   true,
	}

	return []tenantdomain.Role{
		{
			ID:          node.Generate(),
			Name:        tenantdomain.RoleOwner,
			DisplayName: "Owner",
			SystemRole:  true,
			Permissions: ownerFlags,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          node.Generate(),
			Name:        tenantdomain.RoleManager,
			DisplayName: "Branch Manager",
			SystemRole:  true,
			Permissions: managerFlags,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          node.Generate(),
			Name:        tenantdomain.RoleStaff,
			DisplayName: "Staff",
			SystemRole:  true,
			Permissions: staffFlags,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func defaultTariffs(node *snowflake.Node) []billingdomain.Tariff {
	now := time.Now().UTC()

	return []billingdomain.Tariff{
		{
			ID:           node.Generate(),
			Code:         "trial",
			Name:         "Trial",
			Description:  "Ten day evaluation period.",
			Price:        0,
			DurationDays: 10,
			IsTrial:      true,
			Features: datatypes.JSONMap{
				billingdomain.FeatureAnalytics: true,
			},
			MaxBranches:      intPtr(1),
			MaxStaff:         intPtr(3),
			MaxMonthlyOrders: intPtr(100),
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               node.Generate(),
			Code:             "basic",
			Name:             "Basic",
			Description:      "Single branch operation.",
			Price:            29_00,
			DurationDays:     30,
			Features:         datatypes.JSONMap{},
			MaxBranches:      intPtr(1),
			MaxStaff:         intPtr(5),
			MaxMonthlyOrders: intPtr(500),
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:           node.Generate(),
			Code:         "pro",
			Name:         "Pro",
			Description:  "Multi branch with reporting and marketing.",
			Price:        99_00,
			DurationDays: 30,
			Features: datatypes.JSONMap{
				billingdomain.FeatureFinancialReports:    true,
				billingdomain.FeatureAnalytics:           true,
				billingdomain.FeatureDataExport:          true,
				billingdomain.FeatureMarketingBroadcasts: true,
			},
			MaxBranches:      intPtr(3),
			MaxStaff:         intPtr(20),
			MaxMonthlyOrders: intPtr(5000),
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:           node.Generate(),
			Code:         "enterprise",
			Name:         "Enterprise",
			Description:  "Unlimited usage, annual billing.",
			Price:        990_00,
			DurationDays: 365,
			Features: datatypes.JSONMap{
				billingdomain.FeatureFinancialReports:    true,
				billingdomain.FeatureAnalytics:           true,
				billingdomain.FeatureDataExport:          true,
				billingdomain.FeatureMarketingBroadcasts: true,
				billingdomain.FeatureAPIAccess:           true,
			},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func intPtr(v int) *int { return &v }
