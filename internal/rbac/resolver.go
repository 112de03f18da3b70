package rbac

import (
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"go.uber.org/zap"
)

// Resolver answers capability questions from a staff member's role flags.
// Resolution is pure: no database reads, no side effects. Unknown
// capabilities and missing roles deny.
type Resolver struct {
	holder *VocabularyHolder
	log    *zap.Logger
}

func NewResolver(holder *VocabularyHolder, log *zap.Logger) *Resolver {
	return &Resolver{holder: holder, log: log.Named("rbac.resolver")}
}

// Resolve reports whether the staff member holds the capability.
//
// Order of consultation: superuser bypass, exact flag, master-flag
// inheritance, then the alias table. Master flags themselves never fall
// back to an alias; an absent master means the domain is closed.
func (r *Resolver) Resolve(staff *tenantdomain.Staff, role *tenantdomain.Role, capability string) bool {
	if staff == nil {
		return false
	}
	if staff.Superuser {
		return true
	}
	if role == nil {
		return false
	}

	vocab := r.holder.Get()

	if role.Grants(capability) {
		return true
	}
	if master, ok := vocab.MasterOf(capability); ok && role.Grants(master) {
		return true
	}
	if vocab.IsMaster(capability) {
		return false
	}
	if canonical, ok := vocab.CanonicalAlias(capability); ok {
		if role.Grants(canonical) {
			return true
		}
		if master, ok := vocab.MasterOf(canonical); ok && role.Grants(master) {
			return true
		}
	}
	return false
}

// ResolveAll reports whether every capability resolves to true. An empty
// list resolves to true.
func (r *Resolver) ResolveAll(staff *tenantdomain.Staff, role *tenantdomain.Role, capabilities ...string) bool {
	for _, c := range capabilities {
		if !r.Resolve(staff, role, c) {
			return false
		}
	}
	return true
}

// ResolveAny reports whether at least one capability resolves to true. An
// empty list resolves to false.
func (r *Resolver) ResolveAny(staff *tenantdomain.Staff, role *tenantdomain.Role, capabilities ...string) bool {
	for _, c := range capabilities {
		if r.Resolve(staff, role, c) {
			return true
		}
	}
	return false
}
