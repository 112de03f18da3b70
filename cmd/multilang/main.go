package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/audit"
	"github.com/karimoff96/Multilang/internal/billing"
	"github.com/karimoff96/Multilang/internal/clock"
	"github.com/karimoff96/Multilang/internal/config"
	"github.com/karimoff96/Multilang/internal/guard"
	"github.com/karimoff96/Multilang/internal/logger"
	"github.com/karimoff96/Multilang/internal/migration"
	"github.com/karimoff96/Multilang/internal/order"
	"github.com/karimoff96/Multilang/internal/ratelimit"
	"github.com/karimoff96/Multilang/internal/rbac"
	"github.com/karimoff96/Multilang/internal/scheduler"
	"github.com/karimoff96/Multilang/internal/server"
	"github.com/karimoff96/Multilang/internal/tenant"
	"github.com/karimoff96/Multilang/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Functional domains
		tenant.Module,
		rbac.Module,
		billing.Module,
		order.Module,
		audit.Module,
		guard.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		panic(err)
	}
	return node
}
