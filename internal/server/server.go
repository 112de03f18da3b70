package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/karimoff96/Multilang/internal/audit/domain"
	billingdomain "github.com/karimoff96/Multilang/internal/billing/domain"
	"github.com/karimoff96/Multilang/internal/config"
	"github.com/karimoff96/Multilang/internal/guard"
	orderdomain "github.com/karimoff96/Multilang/internal/order/domain"
	"github.com/karimoff96/Multilang/internal/ratelimit"
	"github.com/karimoff96/Multilang/internal/rbac"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	guard      *guard.Guard
	limiter    *ratelimit.APILimiter
	tenantSvc  tenantdomain.Service
	tenantRepo tenantdomain.Repository
	billingSvc billingdomain.Service
	orderSvc   orderdomain.Service
	auditSvc   auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Guard      *guard.Guard
	Limiter    *ratelimit.APILimiter `optional:"true"`
	TenantSvc  tenantdomain.Service
	TenantRepo tenantdomain.Repository
	BillingSvc billingdomain.Service
	OrderSvc   orderdomain.Service
	AuditSvc   auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("http.server"),
		genID:      p.GenID,
		guard:      p.Guard,
		limiter:    p.Limiter,
		tenantSvc:  p.TenantSvc,
		tenantRepo: p.TenantRepo,
		billingSvc: p.BillingSvc,
		orderSvc:   p.OrderSvc,
		auditSvc:   p.AuditSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// tariff catalog is public reference data
	api.GET("/tariffs", s.ListTariffs)

	// everything below acts on behalf of a staff member
	api.Use(s.StaffContext())
	api.Use(s.limiter.Middleware())

	api.POST("/organizations", s.CreateOrganization)

	org := api.Group("/organizations/:id")
	org.Use(s.OrganizationAccess())
	{
		org.GET("",
			s.guard.RequireCapability(guard.Request{
				Action: "organizations.get",
			}),
			s.GetOrganization)

		org.GET("/branches",
			s.guard.RequireCapability(guard.Request{
				Action:       "branches.list",
				ResourceKind: rbac.KindBranches,
			}),
			s.ListBranches)
		org.POST("/branches",
			s.guard.RequireCapability(guard.Request{
				Action:       "branches.create",
				Capabilities: []string{rbac.CapCreateBranches},
				ResourceKind: rbac.KindBranches,
				QuotaKind:    billingdomain.QuotaBranches,
			}),
			s.CreateBranch)

		org.GET("/staff",
			s.guard.RequireCapability(guard.Request{
				Action:       "staff.list",
				ResourceKind: rbac.KindStaff,
			}),
			s.ListStaff)
		org.POST("/staff",
			s.guard.RequireCapability(guard.Request{
				Action:       "staff.create",
				Capabilities: []string{rbac.CapManageStaff},
				ResourceKind: rbac.KindStaff,
				QuotaKind:    billingdomain.QuotaStaff,
			}),
			s.CreateStaff)
		org.DELETE("/staff/:staffId",
			s.guard.RequireCapability(guard.Request{
				Action:       "staff.deactivate",
				Capabilities: []string{rbac.CapDeleteStaff},
			}),
			s.DeactivateStaff)

		org.GET("/subscription",
			s.guard.RequireCapability(guard.Request{
				Action:       "subscription.get",
				Capabilities: []string{rbac.CapManageSettings},
			}),
			s.GetSubscription)
		org.POST("/subscription/activate",
			s.guard.RequireCapability(guard.Request{
				Action:       "subscription.activate",
				Capabilities: []string{rbac.CapManageSettings},
			}),
			s.ActivateSubscription)
		org.POST("/subscription/cancel",
			s.guard.RequireCapability(guard.Request{
				Action:       "subscription.cancel",
				Capabilities: []string{rbac.CapManageSettings},
			}),
			s.CancelSubscription)
		org.POST("/subscription/renew",
			s.guard.RequireCapability(guard.Request{
				Action:       "subscription.renew",
				Capabilities: []string{rbac.CapManageSettings},
			}),
			s.RenewSubscription)
		org.POST("/subscription/convert",
			s.guard.RequireCapability(guard.Request{
				Action:       "subscription.convert",
				Capabilities: []string{rbac.CapManageSettings},
			}),
			s.ConvertTrial)
		org.GET("/usage",
			s.guard.RequireCapability(guard.Request{
				Action:       "usage.get",
				Capabilities: []string{rbac.CapManageSettings},
			}),
			s.GetUsage)

		org.GET("/audit-logs",
			s.guard.RequireCapability(guard.Request{
				Action:       "audit.list",
				Capabilities: []string{rbac.CapManageSettings},
			}),
			s.ListAuditLogs)
	}

	api.GET("/roles", s.ListRoles)
	api.POST("/roles",
		s.guard.RequireCapability(guard.Request{
			Action:       "roles.create",
			Capabilities: []string{rbac.CapManageRoles},
		}),
		s.CreateRole)
	api.PATCH("/roles/:id",
		s.guard.RequireCapability(guard.Request{
			Action:       "roles.update",
			Capabilities: []string{rbac.CapManageRoles},
		}),
		s.UpdateRole)

	api.GET("/orders",
		s.guard.RequireCapability(guard.Request{
			Action:       "orders.list",
			ResourceKind: rbac.KindOrders,
		}),
		s.ListOrders)
	api.POST("/orders",
		s.guard.RequireCapability(guard.Request{
			Action:       "orders.create",
			Capabilities: []string{rbac.CapCreateOrders},
			ResourceKind: rbac.KindOrders,
			QuotaKind:    billingdomain.QuotaMonthlyOrders,
		}),
		s.CreateOrder)
	api.POST("/orders/:id/status",
		s.guard.RequireCapability(guard.Request{
			Action:       "orders.update_status",
			Capabilities: []string{rbac.CapUpdateOrderStatus},
			ResourceKind: rbac.KindOrders,
		}),
		s.UpdateOrderStatus)

	// feature-gated surfaces: the subscription gate runs before capabilities
	api.GET("/reports/orders",
		s.guard.RequireCapability(guard.Request{
			Action:       "reports.orders",
			Capabilities: []string{rbac.CapViewFinancialReports},
			FeatureCode:  billingdomain.FeatureFinancialReports,
			ResourceKind: rbac.KindOrders,
		}),
		s.OrdersReport)
	api.POST("/broadcasts",
		s.guard.RequireCapability(guard.Request{
			Action:       "broadcasts.send",
			Capabilities: []string{rbac.CapSendBroadcasts},
			FeatureCode:  billingdomain.FeatureMarketingBroadcasts,
		}),
		s.SendBroadcast)
}
