// Package guard is the policy enforcement point: every entry point asks it
// before acting. It composes the authorization resolver, the subscription
// gate and the scope resolver into one typed decision.
package guard

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/karimoff96/Multilang/internal/audit/domain"
	billingdomain "github.com/karimoff96/Multilang/internal/billing/domain"
	"github.com/karimoff96/Multilang/internal/observability/metrics"
	"github.com/karimoff96/Multilang/internal/rbac"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reason explains a deny. Denials are decisions, not errors.
type Reason string

const (
	ReasonNoPermission         Reason = "no_permission"
	ReasonInactiveSubscription Reason = "inactive_subscription"
	ReasonFeatureNotEntitled   Reason = "feature_not_entitled"
	ReasonQuotaExceeded        Reason = "quota_exceeded"
)

// Mode selects how a capability list combines.
type Mode string

const (
	ModeAll Mode = "all"
	ModeAny Mode = "any"
)

// Decision is the guard's verdict. Scope is only meaningful on an allow
// with a resource kind; an allowed decision with a NONE scope is a
// legitimate empty result, not a denial.
type Decision struct {
	Allowed bool
	Reason  Reason
	Scope   rbac.FilterSpec
}

// Allow builds an allowing decision carrying the scope filter.
func Allow(scope rbac.FilterSpec) Decision {
	return Decision{Allowed: true, Scope: scope}
}

// Deny builds a denying decision.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason, Scope: rbac.FilterSpec{Type: rbac.ScopeNone}}
}

// Request names everything one enforcement needs: the capabilities with
// their combination mode, an optional gated feature, an optional resource
// kind for scope resolution, and an optional quota kind for creations.
type Request struct {
	Action       string
	Capabilities []string
	Mode         Mode
	FeatureCode  string
	ResourceKind string
	QuotaKind    string
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	TenantRepo tenantdomain.Repository
	Resolver   *rbac.Resolver
	Scopes     *rbac.ScopeResolver
	Billing    billingdomain.Service
	Audit      auditdomain.Service
}

type Guard struct {
	db       *gorm.DB
	log      *zap.Logger
	tenants  tenantdomain.Repository
	resolver *rbac.Resolver
	scopes   *rbac.ScopeResolver
	billing  billingdomain.Service
	audit    auditdomain.Service
	metrics  *metrics.GuardMetrics
}

func New(p Params) *Guard {
	return &Guard{
		db:       p.DB,
		log:      p.Log.Named("guard"),
		tenants:  p.TenantRepo,
		resolver: p.Resolver,
		scopes:   p.Scopes,
		billing:  p.Billing,
		audit:    p.Audit,
		metrics:  metrics.Guard(),
	}
}

// Check runs the four axes in order: feature gate, capabilities, quota,
// scope. The first denying axis wins and nothing after it runs, so a deny
// never has side effects beyond its audit event. Superusers skip the
// subscription gates entirely.
func (g *Guard) Check(ctx context.Context, staff *tenantdomain.Staff, req Request) (Decision, error) {
	if staff == nil || !staff.Active {
		return g.deny(ctx, staff, req, ReasonNoPermission, nil), nil
	}

	if !staff.Superuser {
		if req.FeatureCode != "" {
			allowed, err := g.billing.FeatureAllowed(ctx, staff.OrgID, req.FeatureCode)
			if err != nil {
				return Deny(ReasonInactiveSubscription), err
			}
			if !allowed {
				reason := ReasonFeatureNotEntitled
				if active, aerr := g.subscriptionActive(ctx, staff.OrgID); aerr != nil {
					return Deny(ReasonInactiveSubscription), aerr
				} else if !active {
					reason = ReasonInactiveSubscription
				}
				return g.deny(ctx, staff, req, reason, nil), nil
			}
		}
	}

	role, err := g.loadRole(ctx, staff)
	if err != nil {
		return Deny(ReasonNoPermission), err
	}

	if len(req.Capabilities) > 0 {
		granted := false
		switch req.Mode {
		case ModeAny:
			granted = g.resolver.ResolveAny(staff, role, req.Capabilities...)
		default:
			granted = g.resolver.ResolveAll(staff, role, req.Capabilities...)
		}
		if !granted {
			return g.deny(ctx, staff, req, ReasonNoPermission, nil), nil
		}
	}

	if req.QuotaKind != "" && !staff.Superuser {
		allowed, err := g.billing.QuotaAllows(ctx, staff.OrgID, req.QuotaKind)
		if err != nil {
			return Deny(ReasonInactiveSubscription), err
		}
		if !allowed {
			active, aerr := g.subscriptionActive(ctx, staff.OrgID)
			if aerr != nil {
				return Deny(ReasonInactiveSubscription), aerr
			}
			reason := ReasonQuotaExceeded
			if !active {
				reason = ReasonInactiveSubscription
			} else {
				g.metrics.ObserveQuotaDeny(req.QuotaKind)
			}
			return g.deny(ctx, staff, req, reason, map[string]any{"quota_kind": req.QuotaKind}), nil
		}
	}

	var scope rbac.FilterSpec
	if req.ResourceKind != "" {
		scope = g.scopes.Scope(staff, role, req.ResourceKind)
	} else if staff.Superuser {
		scope = rbac.FilterSpec{Type: rbac.ScopeAll}
	} else {
		scope = rbac.FilterSpec{Type: rbac.ScopeOrganization, OrgID: staff.OrgID, StaffID: staff.ID}
	}

	g.metrics.ObserveAllow()
	if req.QuotaKind != "" {
		// quota-affecting creations are state-changing allows; record them
		g.emitAudit(ctx, staff, req, "allow", map[string]any{"quota_kind": req.QuotaKind})
	}
	return Allow(scope), nil
}

// loadRole snapshots the staff member's role. Superusers may have none; a
// missing role for anyone else resolves to deny inside the resolver.
func (g *Guard) loadRole(ctx context.Context, staff *tenantdomain.Staff) (*tenantdomain.Role, error) {
	if staff.RoleID == 0 {
		return nil, nil
	}
	return g.tenants.FindRole(ctx, g.db, staff.RoleID)
}

func (g *Guard) subscriptionActive(ctx context.Context, orgID snowflake.ID) (bool, error) {
	sub, err := g.billing.CurrentSubscription(ctx, orgID)
	if err != nil {
		if errors.Is(err, billingdomain.ErrNoSubscription) {
			return false, nil
		}
		return false, err
	}
	return sub.Status == billingdomain.SubscriptionStatusActive, nil
}

func (g *Guard) deny(ctx context.Context, staff *tenantdomain.Staff, req Request, reason Reason, metadata map[string]any) Decision {
	g.metrics.ObserveDeny(string(reason))
	g.emitAudit(ctx, staff, req, string(reason), metadata)
	return Deny(reason)
}

func (g *Guard) emitAudit(ctx context.Context, staff *tenantdomain.Staff, req Request, decision string, metadata map[string]any) {
	action := req.Action
	if action == "" {
		action = "guard.check"
	}
	event := auditdomain.Event{
		Action:     action,
		TargetType: req.ResourceKind,
		Decision:   decision,
		Metadata:   metadata,
	}
	if staff != nil {
		if staff.OrgID != 0 {
			orgID := staff.OrgID
			event.OrgID = &orgID
		}
		event.ActorType = string(auditdomain.ActorTypeStaff)
		actorID := staff.ID.String()
		event.ActorID = &actorID
	}
	if err := g.audit.AuditLog(ctx, event); err != nil {
		g.log.Warn("audit emission failed",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
