package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/karimoff96/Multilang/internal/tenant/domain"
	"github.com/karimoff96/Multilang/internal/tenant/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func setupTenantService(t *testing.T, node *snowflake.Node) (domain.Service, *gorm.DB) {
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
		&domain.Organization{},
		&domain.Branch{},
		&domain.Role{},
		&domain.Staff{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	return svc, db
}

func TestCreateOrganizationCreatesMainBranch(t *testing.T) {
	node := mustNode(t)
	svc, db := setupTenantService(t, node)
	ctx := context.Background()

	org, err := svc.CreateOrganization(ctx, domain.CreateOrganizationRequest{Name: "Plov Center"})
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, "plov-center", org.Slug)
	require.NotEmpty(t, org.MainBranchID)

	var branches []domain.Branch
	require.NoError(t, db.Find(&branches).Error)
	require.Len(t, branches, 1)
	assert.True(t, branches[0].IsMain)
	assert.Equal(t, org.MainBranchID, branches[0].ID.String())

	fetched, err := svc.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.MainBranchID, fetched.MainBranchID)
}

func TestCreateOrganizationRejectsEmptyName(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupTenantService(t, node)

	_, err := svc.CreateOrganization(context.Background(), domain.CreateOrganizationRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreateBranchRequiresExistingOrganization(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupTenantService(t, node)
	ctx := context.Background()

	_, err := svc.CreateBranch(ctx, domain.CreateBranchRequest{
		OrgID: node.Generate().String(),
		Name:  "Ghost Branch",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	org, err := svc.CreateOrganization(ctx, domain.CreateOrganizationRequest{Name: "Chaikhana"})
	require.NoError(t, err)

	branch, err := svc.CreateBranch(ctx, domain.CreateBranchRequest{OrgID: org.ID, Name: "Downtown"})
	require.NoError(t, err)
	assert.False(t, branch.IsMain)

	branches, err := svc.ListBranches(ctx, org.ID, nil)
	require.NoError(t, err)
	assert.Len(t, branches, 2)
}

func TestCreateStaffValidatesRoleAndBranch(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupTenantService(t, node)
	ctx := context.Background()

	org, err := svc.CreateOrganization(ctx, domain.CreateOrganizationRequest{Name: "Bakery"})
	require.NoError(t, err)

	_, err = svc.CreateStaff(ctx, domain.CreateStaffRequest{
		OrgID:    org.ID,
		RoleID:   node.Generate().String(),
		FullName: "Aziz Karimov",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		Name:        "cashier",
		Permissions: map[string]bool{"can_create_orders": true},
	})
	require.NoError(t, err)

	badBranch := node.Generate().String()
	_, err = svc.CreateStaff(ctx, domain.CreateStaffRequest{
		OrgID:    org.ID,
		BranchID: &badBranch,
		RoleID:   role.ID,
		FullName: "Aziz Karimov",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidBranch)

	staff, err := svc.CreateStaff(ctx, domain.CreateStaffRequest{
		OrgID:    org.ID,
		BranchID: &org.MainBranchID,
		RoleID:   role.ID,
		FullName: "Aziz Karimov",
	})
	require.NoError(t, err)
	require.NotNil(t, staff.BranchID)
	assert.Equal(t, org.MainBranchID, *staff.BranchID)
	assert.True(t, staff.Active)
}

func TestDeactivateStaffIsSoftAndOrgScoped(t *testing.T) {
	node := mustNode(t)
	svc, db := setupTenantService(t, node)
	ctx := context.Background()

	org, err := svc.CreateOrganization(ctx, domain.CreateOrganizationRequest{Name: "Car Wash"})
	require.NoError(t, err)
	other, err := svc.CreateOrganization(ctx, domain.CreateOrganizationRequest{Name: "Other Wash"})
	require.NoError(t, err)

	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{Name: "washer"})
	require.NoError(t, err)

	staff, err := svc.CreateStaff(ctx, domain.CreateStaffRequest{
		OrgID:    org.ID,
		RoleID:   role.ID,
		FullName: "Malika Yusupova",
	})
	require.NoError(t, err)

	// another tenant can never deactivate someone else's staff
	_, err = svc.DeactivateStaff(ctx, other.ID, staff.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resp, err := svc.DeactivateStaff(ctx, org.ID, staff.ID)
	require.NoError(t, err)
	assert.False(t, resp.Active)

	var stored domain.Staff
	require.NoError(t, db.Where("id = ?", resp.ID).First(&stored).Error)
	assert.False(t, stored.Active)
}

func TestCreateRoleProtectsSystemNames(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupTenantService(t, node)
	ctx := context.Background()

	for _, name := range []string{domain.RoleOwner, "Manager", "STAFF"} {
		_, err := svc.CreateRole(ctx, domain.CreateRoleRequest{Name: name})
		assert.ErrorIs(t, err, domain.ErrSystemRoleProtected, "name %q", name)
	}

	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		Name:        "shift_lead",
		Permissions: map[string]bool{"can_view_branch_orders": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Shift Lead", role.DisplayName)
	assert.True(t, role.Permissions["can_view_branch_orders"])

	_, err = svc.CreateRole(ctx, domain.CreateRoleRequest{Name: "shift_lead"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestUpdateRoleReplacesPermissionMap(t *testing.T) {
	node := mustNode(t)
	svc, _ := setupTenantService(t, node)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, domain.CreateRoleRequest{
		Name:        "courier",
		Permissions: map[string]bool{"can_view_own_orders": true, "can_create_orders": true},
	})
	require.NoError(t, err)

	perms := map[string]bool{"can_view_own_orders": true}
	updated, err := svc.UpdateRole(ctx, domain.UpdateRoleRequest{
		ID:          role.ID,
		Permissions: &perms,
	})
	require.NoError(t, err)
	assert.True(t, updated.Permissions["can_view_own_orders"])
	assert.False(t, updated.Permissions["can_create_orders"])
}
