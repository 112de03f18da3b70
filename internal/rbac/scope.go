package rbac

import (
	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScopeType is the breadth of data a staff member may see for one
// resource kind.
type ScopeType string

const (
	ScopeAll          ScopeType = "ALL"          // no tenant filter (superuser only)
	ScopeOrganization ScopeType = "ORGANIZATION" // every row in the staff member's organization
	ScopeBranch       ScopeType = "BRANCH"       // rows belonging to the staff member's branch
	ScopeOwn          ScopeType = "OWN"          // rows the staff member created
	ScopeNone         ScopeType = "NONE"         // no rows
)

// FilterSpec is a declarative row filter produced by the scope resolver.
// Callers apply it to their queries instead of interpreting scopes
// themselves.
type FilterSpec struct {
	Type     ScopeType
	OrgID    snowflake.ID
	BranchID snowflake.ID
	StaffID  snowflake.ID
}

// Columns names the tenancy columns of the table a FilterSpec is applied
// to. Empty names fall back to the conventional ones.
type Columns struct {
	Org    string
	Branch string
	Owner  string
}

func (c Columns) withDefaults() Columns {
	if c.Org == "" {
		c.Org = "org_id"
	}
	if c.Branch == "" {
		c.Branch = "branch_id"
	}
	if c.Owner == "" {
		c.Owner = "created_by"
	}
	return c
}

// Apply narrows the statement to the rows the filter permits. NONE yields a
// contradiction so the query returns an empty set rather than leaking rows.
func (f FilterSpec) Apply(stmt *gorm.DB, cols Columns) *gorm.DB {
	cols = cols.withDefaults()
	switch f.Type {
	case ScopeAll:
		return stmt
	case ScopeOrganization:
		return stmt.Where(cols.Org+" = ?", f.OrgID)
	case ScopeBranch:
		return stmt.Where(cols.Org+" = ? AND "+cols.Branch+" = ?", f.OrgID, f.BranchID)
	case ScopeOwn:
		return stmt.Where(cols.Org+" = ? AND "+cols.Owner+" = ?", f.OrgID, f.StaffID)
	default:
		return stmt.Where("1 = 0")
	}
}

// Scope packages the filter as a gorm scope for repositories that compose
// queries with Scopes().
func (f FilterSpec) Scope(cols Columns) func(*gorm.DB) *gorm.DB {
	return func(stmt *gorm.DB) *gorm.DB {
		return f.Apply(stmt, cols)
	}
}

// ScopeResolver decides how wide a staff member's view of a resource kind
// is, using the vocabulary's per-kind scope rules.
type ScopeResolver struct {
	holder   *VocabularyHolder
	resolver *Resolver
	log      *zap.Logger
}

func NewScopeResolver(holder *VocabularyHolder, resolver *Resolver, log *zap.Logger) *ScopeResolver {
	return &ScopeResolver{holder: holder, resolver: resolver, log: log.Named("rbac.scope")}
}

// Scope resolves the widest visibility the staff member holds for the
// resource kind. Widths are consulted widest first; a kind with no scope
// rule yields NONE for everyone but superusers.
func (s *ScopeResolver) Scope(staff *tenantdomain.Staff, role *tenantdomain.Role, kind string) FilterSpec {
	if staff == nil {
		return FilterSpec{Type: ScopeNone}
	}
	if staff.Superuser {
		return FilterSpec{Type: ScopeAll}
	}

	spec := FilterSpec{Type: ScopeNone, OrgID: staff.OrgID, StaffID: staff.ID}
	if staff.BranchID != nil {
		spec.BranchID = *staff.BranchID
	}

	rule, ok := s.holder.Get().Scopes[kind]
	if !ok {
		return spec
	}

	if rule.All != "" && s.resolver.Resolve(staff, role, rule.All) && staff.OrgID != 0 {
		spec.Type = ScopeOrganization
		return spec
	}
	if rule.Own != "" && s.resolver.Resolve(staff, role, rule.Own) {
		spec.Type = ScopeOwn
		return spec
	}
	if rule.Branch != "" && staff.BranchID != nil && s.resolver.Resolve(staff, role, rule.Branch) {
		spec.Type = ScopeBranch
		return spec
	}
	return spec
}
