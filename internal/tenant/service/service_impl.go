package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/karimoff96/Multilang/internal/tenant/domain"
	"github.com/karimoff96/Multilang/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tenant.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// CreateOrganization creates the organization together with its main branch
// in one transaction, so no organization ever exists without a branch.
func (s *Service) CreateOrganization(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var ownerID *snowflake.ID
	if strings.TrimSpace(req.OwnerID) != "" {
		parsed, err := domain.ParseID(req.OwnerID)
		if err != nil {
			return nil, domain.ErrInvalidStaff
		}
		ownerID = &parsed
	}

	now := time.Now().UTC()
	org := &domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		OwnerID:   ownerID,
		Active:    true,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	mainBranch := &domain.Branch{
		ID:        s.genID.Generate(),
		OrgID:     org.ID,
		Name:      name + " - Main Branch",
		IsMain:    true,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateOrganization(ctx, tx, org); err != nil {
			return err
		}
		return s.repo.CreateBranch(ctx, tx, mainBranch)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("main_branch_id", mainBranch.ID.String()),
	)

	return &domain.OrganizationResponse{
		ID:           org.ID.String(),
		Name:         org.Name,
		Slug:         org.Slug,
		MainBranchID: mainBranch.ID.String(),
		Active:       org.Active,
		CreatedAt:    org.CreatedAt,
	}, nil
}

func (s *Service) GetOrganization(ctx context.Context, id string) (*domain.OrganizationResponse, error) {
	orgID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindOrganization(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	resp := &domain.OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		Active:    org.Active,
		CreatedAt: org.CreatedAt,
	}

	branches, err := s.repo.ListBranches(ctx, s.db, org.ID, nil)
	if err != nil {
		return nil, err
	}
	for _, branch := range branches {
		if branch.IsMain {
			resp.MainBranchID = branch.ID.String()
			break
		}
	}
	return resp, nil
}

func (s *Service) CreateBranch(ctx context.Context, req domain.CreateBranchRequest) (*domain.BranchResponse, error) {
	orgID, err := domain.ParseID(req.OrgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	org, err := s.repo.FindOrganization(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrInvalidOrganization
	}

	now := time.Now().UTC()
	branch := &domain.Branch{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		Address:   req.Address,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateBranch(ctx, s.db, branch); err != nil {
		return nil, err
	}

	resp := toBranchResponse(branch)
	return &resp, nil
}

func (s *Service) ListBranches(ctx context.Context, orgID string, visibility domain.Visibility) ([]domain.BranchResponse, error) {
	parsed, err := domain.ParseID(orgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.ListBranches(ctx, s.db, parsed, visibility)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.BranchResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toBranchResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) CreateStaff(ctx context.Context, req domain.CreateStaffRequest) (*domain.StaffResponse, error) {
	orgID, err := domain.ParseID(req.OrgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, domain.ErrInvalidName
	}

	roleID, err := domain.ParseID(req.RoleID)
	if err != nil {
		return nil, domain.ErrInvalidRole
	}
	role, err := s.repo.FindRole(ctx, s.db, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrInvalidRole
	}

	var branchID *snowflake.ID
	if req.BranchID != nil && strings.TrimSpace(*req.BranchID) != "" {
		parsed, err := domain.ParseID(*req.BranchID)
		if err != nil {
			return nil, domain.ErrInvalidBranch
		}
		branch, err := s.repo.FindBranch(ctx, s.db, orgID, parsed)
		if err != nil {
			return nil, err
		}
		if branch == nil {
			return nil, domain.ErrInvalidBranch
		}
		branchID = &parsed
	}

	var createdBy *snowflake.ID
	if req.CreatedBy != nil && strings.TrimSpace(*req.CreatedBy) != "" {
		parsed, err := domain.ParseID(*req.CreatedBy)
		if err != nil {
			return nil, domain.ErrInvalidStaff
		}
		createdBy = &parsed
	}

	now := time.Now().UTC()
	staff := &domain.Staff{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		BranchID:  branchID,
		RoleID:    roleID,
		FullName:  fullName,
		Phone:     req.Phone,
		Active:    true,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateStaff(ctx, s.db, staff); err != nil {
		return nil, err
	}

	resp := toStaffResponse(staff)
	return &resp, nil
}

// DeactivateStaff marks the member inactive instead of deleting the row,
// so audit history keeps pointing at a real actor.
func (s *Service) DeactivateStaff(ctx context.Context, orgID, staffID string) (*domain.StaffResponse, error) {
	parsedOrg, err := domain.ParseID(orgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	parsedStaff, err := domain.ParseID(staffID)
	if err != nil {
		return nil, domain.ErrInvalidStaff
	}

	staff, err := s.repo.FindStaff(ctx, s.db, parsedStaff)
	if err != nil {
		return nil, err
	}
	if staff == nil || staff.OrgID != parsedOrg {
		return nil, domain.ErrNotFound
	}

	staff.Active = false
	staff.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateStaff(ctx, s.db, staff); err != nil {
		return nil, err
	}

	resp := toStaffResponse(staff)
	return &resp, nil
}

func (s *Service) ListStaff(ctx context.Context, orgID string, visibility domain.Visibility) ([]domain.StaffResponse, error) {
	parsed, err := domain.ParseID(orgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.ListStaff(ctx, s.db, parsed, visibility)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.StaffResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toStaffResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) CreateRole(ctx context.Context, req domain.CreateRoleRequest) (*domain.RoleResponse, error) {
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	switch name {
	case domain.RoleOwner, domain.RoleManager, domain.RoleStaff:
		return nil, domain.ErrSystemRoleProtected
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = titleCase(name)
	}

	now := time.Now().UTC()
	role := &domain.Role{
		ID:          s.genID.Generate(),
		Name:        name,
		DisplayName: displayName,
		Description: req.Description,
		Permissions: permissionsToJSON(req.Permissions),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateRole(ctx, s.db, role); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *Service) UpdateRole(ctx context.Context, req domain.UpdateRoleRequest) (*domain.RoleResponse, error) {
	roleID, err := domain.ParseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidRole
	}

	role, err := s.repo.FindRole(ctx, s.db, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrNotFound
	}

	if req.DisplayName != nil {
		role.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Description != nil {
		role.Description = req.Description
	}
	if req.Permissions != nil {
		role.Permissions = permissionsToJSON(*req.Permissions)
	}

	role.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateRole(ctx, s.db, role); err != nil {
		return nil, err
	}

	resp := toRoleResponse(role)
	return &resp, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]domain.RoleResponse, error) {
	items, err := s.repo.ListRoles(ctx, s.db)
	if err != nil {
		return nil, err
	}
	resp := make([]domain.RoleResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toRoleResponse(&items[i]))
	}
	return resp, nil
}

func toBranchResponse(b *domain.Branch) domain.BranchResponse {
	return domain.BranchResponse{
		ID:        b.ID.String(),
		OrgID:     b.OrgID.String(),
		Name:      b.Name,
		Address:   b.Address,
		IsMain:    b.IsMain,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
	}
}

func toStaffResponse(st *domain.Staff) domain.StaffResponse {
	resp := domain.StaffResponse{
		ID:        st.ID.String(),
		OrgID:     st.OrgID.String(),
		RoleID:    st.RoleID.String(),
		FullName:  st.FullName,
		Active:    st.Active,
		Superuser: st.Superuser,
		CreatedAt: st.CreatedAt,
	}
	if st.BranchID != nil && *st.BranchID != 0 {
		branch := st.BranchID.String()
		resp.BranchID = &branch
	}
	return resp
}

func toRoleResponse(r *domain.Role) domain.RoleResponse {
	return domain.RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		SystemRole:  r.SystemRole,
		Permissions: r.Flags(),
	}
}

func titleCase(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func permissionsToJSON(flags map[string]bool) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for name, granted := range flags {
		if strings.TrimSpace(name) == "" {
			continue
		}
		out[name] = granted
	}
	return out
}
