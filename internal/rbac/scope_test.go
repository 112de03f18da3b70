package rbac

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScopeResolver() *ScopeResolver {
	holder := NewStaticHolder(DefaultVocabulary())
	resolver := NewResolver(holder, zap.NewNop())
	return NewScopeResolver(holder, resolver, zap.NewNop())
}

func branchID(id snowflake.ID) *snowflake.ID { return &id }

func TestScopeSuperuserSeesEverything(t *testing.T) {
	s := newTestScopeResolver()
	staff := &tenantdomain.Staff{ID: 1, Superuser: true}

	spec := s.Scope(staff, nil, KindOrders)
	assert.Equal(t, ScopeAll, spec.Type)
}

func TestScopeViewAllCoversWholeOrganization(t *testing.T) {
	s := newTestScopeResolver()
	// branch-pinned, but view-all still widens to the organization
	staff := &tenantdomain.Staff{ID: 7, OrgID: 42, BranchID: branchID(5)}
	role := roleWith(map[string]bool{CapViewAllOrders: true})

	spec := s.Scope(staff, role, KindOrders)
	assert.Equal(t, ScopeOrganization, spec.Type)
	assert.Equal(t, snowflake.ID(42), spec.OrgID)
}

func TestScopeViewOwnNeverWidens(t *testing.T) {
	s := newTestScopeResolver()
	staff := &tenantdomain.Staff{ID: 7, OrgID: 42, BranchID: branchID(5)}
	role := roleWith(map[string]bool{CapViewOwnOrders: true})

	spec := s.Scope(staff, role, KindOrders)
	assert.Equal(t, ScopeOwn, spec.Type)
	assert.Equal(t, snowflake.ID(7), spec.StaffID)
	assert.Equal(t, snowflake.ID(42), spec.OrgID)
}

func TestScopeBranchRequiresPinning(t *testing.T) {
	s := newTestScopeResolver()
	role := roleWith(map[string]bool{CapViewBranchOrders: true})

	pinned := &tenantdomain.Staff{ID: 7, OrgID: 42, BranchID: branchID(5)}
	spec := s.Scope(pinned, role, KindOrders)
	assert.Equal(t, ScopeBranch, spec.Type)
	assert.Equal(t, snowflake.ID(5), spec.BranchID)

	unpinned := &tenantdomain.Staff{ID: 7, OrgID: 42}
	spec = s.Scope(unpinned, role, KindOrders)
	assert.Equal(t, ScopeNone, spec.Type)
}

func TestScopeMasterFlagGrantsWidestView(t *testing.T) {
	s := newTestScopeResolver()
	staff := &tenantdomain.Staff{ID: 7, OrgID: 42}
	role := roleWith(map[string]bool{CapManageOrders: true})

	spec := s.Scope(staff, role, KindOrders)
	assert.Equal(t, ScopeOrganization, spec.Type)
}

func TestScopeNoCapabilityYieldsNone(t *testing.T) {
	s := newTestScopeResolver()
	staff := &tenantdomain.Staff{ID: 7, OrgID: 42, BranchID: branchID(5)}
	role := roleWith(map[string]bool{CapEditOrders: true})

	spec := s.Scope(staff, role, KindOrders)
	assert.Equal(t, ScopeNone, spec.Type)

	spec = s.Scope(nil, role, KindOrders)
	assert.Equal(t, ScopeNone, spec.Type)
}

func TestScopeUnknownKindYieldsNone(t *testing.T) {
	s := newTestScopeResolver()
	staff := &tenantdomain.Staff{ID: 7, OrgID: 42}
	role := roleWith(map[string]bool{CapManageOrders: true})

	spec := s.Scope(staff, role, "warehouses")
	assert.Equal(t, ScopeNone, spec.Type)
}

func TestScopeStaffKindHasNoOwnBreadth(t *testing.T) {
	s := newTestScopeResolver()
	staff := &tenantdomain.Staff{ID: 7, OrgID: 42, BranchID: branchID(5)}

	orgWide := roleWith(map[string]bool{CapViewStaff: true})
	spec := s.Scope(staff, orgWide, KindStaff)
	assert.Equal(t, ScopeOrganization, spec.Type)

	branchOnly := roleWith(map[string]bool{CapViewBranchStaff: true})
	spec = s.Scope(staff, branchOnly, KindStaff)
	assert.Equal(t, ScopeBranch, spec.Type)
}

func TestScopeCrossTenantIsolation(t *testing.T) {
	s := newTestScopeResolver()
	role := roleWith(map[string]bool{CapViewAllOrders: true})

	a := s.Scope(&tenantdomain.Staff{ID: 1, OrgID: 100}, role, KindOrders)
	b := s.Scope(&tenantdomain.Staff{ID: 2, OrgID: 200}, role, KindOrders)

	require.Equal(t, ScopeOrganization, a.Type)
	require.Equal(t, ScopeOrganization, b.Type)
	assert.NotEqual(t, a.OrgID, b.OrgID)
}
