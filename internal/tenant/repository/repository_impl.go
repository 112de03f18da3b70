package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateOrganization(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Create(org).Error
}

func (r *repo) FindOrganization(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repo) UpdateOrganization(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	if org == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Organization{}).
		Where("id = ?", org.ID).
		Updates(map[string]any{
			"name":       org.Name,
			"owner_id":   org.OwnerID,
			"active":     org.Active,
			"updated_at": org.UpdatedAt,
		}).Error
}

func (r *repo) CreateBranch(ctx context.Context, db *gorm.DB, branch *domain.Branch) error {
	return db.WithContext(ctx).Create(branch).Error
}

func (r *repo) FindBranch(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Branch, error) {
	var branch domain.Branch
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1).
		Find(&branch).Error
	if err != nil {
		return nil, err
	}
	if branch.ID == 0 {
		return nil, nil
	}
	return &branch, nil
}

func (r *repo) ListBranches(ctx context.Context, db *gorm.DB, orgID snowflake.ID, visibility domain.Visibility) ([]domain.Branch, error) {
	var items []domain.Branch
	stmt := db.WithContext(ctx).
		Where("org_id = ?", orgID)
	if visibility != nil {
		stmt = stmt.Scopes(visibility)
	}
	err := stmt.
		Order("is_main DESC, name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountBranches(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Branch{}).
		Where("org_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	return count, err
}

func (r *repo) CreateStaff(ctx context.Context, db *gorm.DB, staff *domain.Staff) error {
	return db.WithContext(ctx).Create(staff).Error
}

func (r *repo) FindStaff(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Staff, error) {
	var staff domain.Staff
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	if staff.ID == 0 {
		return nil, nil
	}
	return &staff, nil
}

func (r *repo) ListStaff(ctx context.Context, db *gorm.DB, orgID snowflake.ID, visibility domain.Visibility) ([]domain.Staff, error) {
	var items []domain.Staff
	stmt := db.WithContext(ctx).
		Where("org_id = ?", orgID)
	if visibility != nil {
		stmt = stmt.Scopes(visibility)
	}
	err := stmt.
		Order("full_name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStaff(ctx context.Context, db *gorm.DB, staff *domain.Staff) error {
	if staff == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Staff{}).
		Where("id = ?", staff.ID).
		Updates(map[string]any{
			"branch_id":  staff.BranchID,
			"role_id":    staff.RoleID,
			"full_name":  staff.FullName,
			"phone":      staff.Phone,
			"active":     staff.Active,
			"updated_at": staff.UpdatedAt,
		}).Error
}

func (r *repo) CountActiveStaff(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Staff{}).
		Where("org_id = ? AND active = ?", orgID, true).
		Count(&count).Error
	return count, err
}

func (r *repo) CreateRole(ctx context.Context, db *gorm.DB, role *domain.Role) error {
	return db.WithContext(ctx).Create(role).Error
}

func (r *repo) FindRole(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Role, error) {
	var role domain.Role
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&role).Error
	if err != nil {
		return nil, err
	}
	if role.ID == 0 {
		return nil, nil
	}
	return &role, nil
}

func (r *repo) FindRoleByName(ctx context.Context, db *gorm.DB, name string) (*domain.Role, error) {
	var role domain.Role
	err := db.WithContext(ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&role).Error
	if err != nil {
		return nil, err
	}
	if role.ID == 0 {
		return nil, nil
	}
	return &role, nil
}

func (r *repo) ListRoles(ctx context.Context, db *gorm.DB) ([]domain.Role, error) {
	var items []domain.Role
	err := db.WithContext(ctx).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateRole(ctx context.Context, db *gorm.DB, role *domain.Role) error {
	if role == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Role{}).
		Where("id = ?", role.ID).
		Updates(map[string]any{
			"display_name": role.DisplayName,
			"description":  role.Description,
			"permissions":  role.Permissions,
			"updated_at":   role.UpdatedAt,
		}).Error
}
