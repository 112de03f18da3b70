package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/karimoff96/Multilang/internal/audit/domain"
	auditrepository "github.com/karimoff96/Multilang/internal/audit/repository"
	auditservice "github.com/karimoff96/Multilang/internal/audit/service"
	billingdomain "github.com/karimoff96/Multilang/internal/billing/domain"
	billingrepository "github.com/karimoff96/Multilang/internal/billing/repository"
	billingservice "github.com/karimoff96/Multilang/internal/billing/service"
	"github.com/karimoff96/Multilang/internal/config"
	"github.com/karimoff96/Multilang/internal/guard"
	orderdomain "github.com/karimoff96/Multilang/internal/order/domain"
	orderrepository "github.com/karimoff96/Multilang/internal/order/repository"
	orderservice "github.com/karimoff96/Multilang/internal/order/service"
	"github.com/karimoff96/Multilang/internal/rbac"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	tenantrepository "github.com/karimoff96/Multilang/internal/tenant/repository"
	tenantservice "github.com/karimoff96/Multilang/internal/tenant/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type serverFixture struct {
	srv  *Server
	db   *gorm.DB
	node *snowflake.Node
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

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
		&tenantdomain.Organization{},
		&tenantdomain.Branch{},
		&tenantdomain.Staff{},
		&tenantdomain.Role{},
		&billingdomain.Tariff{},
		&billingdomain.Subscription{},
		&billingdomain.SubscriptionHistory{},
		&orderdomain.Order{},
		&auditdomain.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop()
	holder := rbac.NewStaticHolder(rbac.DefaultVocabulary())
	resolver := rbac.NewResolver(holder, log)
	scopes := rbac.NewScopeResolver(holder, resolver, log)

	tenantRepo := tenantrepository.Provide()
	billing := billingservice.New(billingservice.Params{
		DB: db, Log: log, GenID: node, Repo: billingrepository.Provide(),
	})
	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Repo: auditrepository.Provide(),
	})

	g := guard.New(guard.Params{
		DB:         db,
		Log:        log,
		TenantRepo: tenantRepo,
		Resolver:   resolver,
		Scopes:     scopes,
		Billing:    billing,
		Audit:      audit,
	})

	srv := NewServer(ServerParams{
		Gin:        NewEngine(log),
		Cfg:        config.Config{},
		DB:         db,
		Log:        log,
		GenID:      node,
		Guard:      g,
		TenantSvc:  tenantservice.New(tenantservice.Params{DB: db, Log: log, GenID: node, Repo: tenantRepo}),
		TenantRepo: tenantRepo,
		BillingSvc: billing,
		OrderSvc:   orderservice.New(orderservice.Params{DB: db, Log: log, GenID: node, Repo: orderrepository.Provide()}),
		AuditSvc:   audit,
	})

	return &serverFixture{srv: srv, db: db, node: node}
}

func (f *serverFixture) do(t *testing.T, method, path string, staff *tenantdomain.Staff, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if staff != nil {
		req.Header.Set(HeaderStaff, staff.ID.String())
	}
	w := httptest.NewRecorder()
	f.srv.Engine().ServeHTTP(w, req)
	return w
}

func (f *serverFixture) seedOrg(t *testing.T, name, slug string) *tenantdomain.Organization {
	t.Helper()
	org := &tenantdomain.Organization{
		ID:       f.node.Generate(),
		Name:     name,
		Slug:     slug,
		Active:   true,
		Metadata: datatypes.JSONMap{},
	}
	require.NoError(t, f.db.Create(org).Error)
	return org
}

func (f *serverFixture) seedBranch(t *testing.T, orgID snowflake.ID, name string, isMain bool) *tenantdomain.Branch {
	t.Helper()
	branch := &tenantdomain.Branch{
		ID:     f.node.Generate(),
		OrgID:  orgID,
		Name:   name,
		IsMain: isMain,
		Active: true,
	}
	require.NoError(t, f.db.Create(branch).Error)
	return branch
}

func (f *serverFixture) seedRole(t *testing.T, name string, flags map[string]bool) *tenantdomain.Role {
	t.Helper()
	perms := datatypes.JSONMap{}
	for k, v := range flags {
		perms[k] = v
	}
	role := &tenantdomain.Role{ID: f.node.Generate(), Name: name, DisplayName: name, Permissions: perms}
	require.NoError(t, f.db.Create(role).Error)
	return role
}

func (f *serverFixture) seedStaff(t *testing.T, orgID snowflake.ID, role *tenantdomain.Role, branchID *snowflake.ID) *tenantdomain.Staff {
	t.Helper()
	staff := &tenantdomain.Staff{
		ID:       f.node.Generate(),
		OrgID:    orgID,
		BranchID: branchID,
		FullName: "test staff",
		Active:   true,
	}
	if role != nil {
		staff.RoleID = role.ID
	}
	require.NoError(t, f.db.Create(staff).Error)
	return staff
}

func (f *serverFixture) seedOrder(t *testing.T, orgID, branchID, createdBy snowflake.ID) *orderdomain.Order {
	t.Helper()
	order := &orderdomain.Order{
		ID:        f.node.Generate(),
		OrgID:     orgID,
		BranchID:  branchID,
		CreatedBy: createdBy,
		Status:    orderdomain.OrderStatusOpen,
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func TestForeignOrganizationLooksMissing(t *testing.T) {
	f := setupServer(t)

	orgA := f.seedOrg(t, "Org A", "org-a")
	orgB := f.seedOrg(t, "Org B", "org-b")
	f.seedBranch(t, orgB.ID, "org-b-branch", true)

	role := f.seedRole(t, "intruder", map[string]bool{
		rbac.CapViewBranches:   true,
		rbac.CapCreateBranches: true,
		rbac.CapManageSettings: true,
	})
	staffA := f.seedStaff(t, orgA.ID, role, nil)

	base := "/api/organizations/" + orgB.ID.String()
	for _, path := range []string{base, base + "/branches", base + "/staff", base + "/subscription", base + "/usage", base + "/audit-logs"} {
		w := f.do(t, http.MethodGet, path, staffA, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	// a foreign write does not land either, even with the capability granted
	w := f.do(t, http.MethodPost, base+"/branches", staffA, gin.H{"name": "smuggled"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	require.NoError(t, f.db.Model(&tenantdomain.Branch{}).Where("org_id = ?", orgB.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestBranchListingHonorsResolvedScope(t *testing.T) {
	f := setupServer(t)

	org := f.seedOrg(t, "Teahouse", "teahouse")
	main := f.seedBranch(t, org.ID, "main", true)
	f.seedBranch(t, org.ID, "annex", false)

	ownBranch := f.seedRole(t, "branch-bound", map[string]bool{rbac.CapViewOwnBranch: true})
	pinned := f.seedStaff(t, org.ID, ownBranch, &main.ID)

	w := f.do(t, http.MethodGet, "/api/organizations/"+org.ID.String()+"/branches", pinned, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Branches []tenantdomain.BranchResponse `json:"branches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Branches, 1)
	assert.Equal(t, main.ID.String(), listing.Branches[0].ID)

	// no view capability at all resolves to an empty set, not the whole org
	blank := f.seedStaff(t, org.ID, f.seedRole(t, "blank", nil), nil)
	w = f.do(t, http.MethodGet, "/api/organizations/"+org.ID.String()+"/branches", blank, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Empty(t, listing.Branches)
}

func TestStaffListingHonorsResolvedScope(t *testing.T) {
	f := setupServer(t)

	org := f.seedOrg(t, "Bazaar", "bazaar")
	main := f.seedBranch(t, org.ID, "main", true)
	annex := f.seedBranch(t, org.ID, "annex", false)

	branchStaff := f.seedRole(t, "shift-lead", map[string]bool{rbac.CapViewBranchStaff: true})
	viewer := f.seedStaff(t, org.ID, branchStaff, &main.ID)
	f.seedStaff(t, org.ID, nil, &main.ID)
	f.seedStaff(t, org.ID, nil, &annex.ID)

	w := f.do(t, http.MethodGet, "/api/organizations/"+org.ID.String()+"/staff", viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Staff []tenantdomain.StaffResponse `json:"staff"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Staff, 2)
	for _, member := range listing.Staff {
		require.NotNil(t, member.BranchID)
		assert.Equal(t, main.ID.String(), *member.BranchID)
	}
}

func TestOrderStatusUpdateIsScopeBound(t *testing.T) {
	f := setupServer(t)

	orgA := f.seedOrg(t, "Org A", "org-a")
	orgB := f.seedOrg(t, "Org B", "org-b")
	branchA := f.seedBranch(t, orgA.ID, "main", true)
	branchB := f.seedBranch(t, orgB.ID, "main", true)

	role := f.seedRole(t, "dispatcher", map[string]bool{rbac.CapManageOrders: true})
	staffA := f.seedStaff(t, orgA.ID, role, nil)

	someone := f.node.Generate()
	foreign := f.seedOrder(t, orgB.ID, branchB.ID, someone)
	local := f.seedOrder(t, orgA.ID, branchA.ID, someone)

	w := f.do(t, http.MethodPost, "/api/orders/"+foreign.ID.String()+"/status", staffA,
		gin.H{"status": orderdomain.OrderStatusCompleted})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var kept orderdomain.Order
	require.NoError(t, f.db.First(&kept, "id = ?", foreign.ID).Error)
	assert.Equal(t, orderdomain.OrderStatusOpen, kept.Status)

	w = f.do(t, http.MethodPost, "/api/orders/"+local.ID.String()+"/status", staffA,
		gin.H{"status": orderdomain.OrderStatusCompleted})
	require.Equal(t, http.StatusOK, w.Code)
	var updated orderdomain.Order
	require.NoError(t, f.db.First(&updated, "id = ?", local.ID).Error)
	assert.Equal(t, orderdomain.OrderStatusCompleted, updated.Status)
}

func TestOrganizationReadsRequireMembership(t *testing.T) {
	f := setupServer(t)

	org := f.seedOrg(t, "Guild", "guild")
	path := "/api/organizations/" + org.ID.String()

	// header-less requests never reach the handler
	w := f.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	member := f.seedStaff(t, org.ID, f.seedRole(t, "member", nil), nil)
	w = f.do(t, http.MethodGet, path, member, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched tenantdomain.OrganizationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, org.ID.String(), fetched.ID)

	// subscription state is gated behind the settings capability
	w = f.do(t, http.MethodGet, path+"/subscription", member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tariff := &billingdomain.Tariff{
		ID:           f.node.Generate(),
		Code:         "basic-test",
		Name:         "basic",
		DurationDays: 30,
		Features:     datatypes.JSONMap{},
		Active:       true,
	}
	require.NoError(t, f.db.Create(tariff).Error)
	_, err := f.srv.billingSvc.Activate(context.Background(), billingdomain.ActivateRequest{
		OrgID: org.ID, TariffCode: tariff.Code,
	})
	require.NoError(t, err)

	admin := f.seedStaff(t, org.ID, f.seedRole(t, "admin", map[string]bool{rbac.CapManageSettings: true}), nil)
	w = f.do(t, http.MethodGet, path+"/subscription", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, path+"/usage", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuperuserCrossesOrganizations(t *testing.T) {
	f := setupServer(t)

	orgA := f.seedOrg(t, "Org A", "org-a")
	orgB := f.seedOrg(t, "Org B", "org-b")
	f.seedBranch(t, orgB.ID, "main", true)

	super := f.seedStaff(t, orgA.ID, nil, nil)
	super.Superuser = true
	require.NoError(t, f.db.Save(super).Error)

	w := f.do(t, http.MethodGet, "/api/organizations/"+orgB.ID.String()+"/branches", super, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Branches []tenantdomain.BranchResponse `json:"branches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Len(t, listing.Branches, 1)
}
