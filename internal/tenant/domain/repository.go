package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Visibility narrows a listing query to the rows the caller may see. It is
// produced from the caller's resolved scope filter; nil means the listing
// is already bounded by other predicates.
type Visibility func(*gorm.DB) *gorm.DB

type Repository interface {
	CreateOrganization(ctx context.Context, db *gorm.DB, org *Organization) error
	FindOrganization(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	UpdateOrganization(ctx context.Context, db *gorm.DB, org *Organization) error

	CreateBranch(ctx context.Context, db *gorm.DB, branch *Branch) error
	FindBranch(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Branch, error)
	ListBranches(ctx context.Context, db *gorm.DB, orgID snowflake.ID, visibility Visibility) ([]Branch, error)
	CountBranches(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)

	CreateStaff(ctx context.Context, db *gorm.DB, staff *Staff) error
	FindStaff(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Staff, error)
	ListStaff(ctx context.Context, db *gorm.DB, orgID snowflake.ID, visibility Visibility) ([]Staff, error)
	UpdateStaff(ctx context.Context, db *gorm.DB, staff *Staff) error
	CountActiveStaff(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error)

	CreateRole(ctx context.Context, db *gorm.DB, role *Role) error
	FindRole(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Role, error)
	FindRoleByName(ctx context.Context, db *gorm.DB, name string) (*Role, error)
	ListRoles(ctx context.Context, db *gorm.DB) ([]Role, error)
	UpdateRole(ctx context.Context, db *gorm.DB, role *Role) error
}
