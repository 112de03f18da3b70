package migration

import (
	auditdomain "github.com/karimoff96/Multilang/internal/audit/domain"
	billingdomain "github.com/karimoff96/Multilang/internal/billing/domain"
	"github.com/karimoff96/Multilang/internal/config"
	orderdomain "github.com/karimoff96/Multilang/internal/order/domain"
	"github.com/karimoff96/Multilang/internal/seed"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql/sqlite are dev conveniences; versioned SQL only
			// targets the supported production database.
			if err := conn.AutoMigrate(
				&tenantdomain.Organization{},
				&tenantdomain.Branch{},
				&tenantdomain.Role{},
				&tenantdomain.Staff{},
				&billingdomain.Tariff{},
				&billingdomain.Subscription{},
				&billingdomain.SubscriptionHistory{},
				&orderdomain.Order{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureSystemRoles(conn); err != nil {
			return err
		}
		return seed.EnsureTariffCatalog(conn)
	}),
)
