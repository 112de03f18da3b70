// Package domain contains persistence models for the tenant hierarchy.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Organization represents a billing tenant, the unit of data isolation.
type Organization struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Slug      string            `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	OwnerID   *snowflake.ID     `gorm:"column:owner_id;index" json:"owner_id,omitempty"`
	Active    bool              `gorm:"not null;default:true" json:"active"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// Branch is an operational unit within one Organization. Every
// Organization has at least one branch; the one created with it carries
// the is_main flag.
type Branch struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Address   *string      `gorm:"type:text" json:"address,omitempty"`
	IsMain    bool         `gorm:"column:is_main;not null;default:false" json:"is_main"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Branch) TableName() string { return "branches" }

// Staff is a human actor pinned to one Organization and optionally to one
// Branch. A nil BranchID means organization-wide placement. Platform
// superusers are the only staff allowed to carry OrgID == 0.
type Staff struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID  `gorm:"not null;index" json:"org_id"`
	BranchID  *snowflake.ID `gorm:"index" json:"branch_id,omitempty"`
	RoleID    snowflake.ID  `gorm:"not null;index" json:"role_id"`
	FullName  string        `gorm:"type:text;not null" json:"full_name"`
	Phone     *string       `gorm:"type:text" json:"phone,omitempty"`
	Active    bool          `gorm:"not null;default:true" json:"active"`
	Superuser bool          `gorm:"column:is_superuser;not null;default:false" json:"is_superuser"`
	CreatedBy *snowflake.ID `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Staff) TableName() string { return "staff" }

// System role identifiers. These are defaults seeded at startup; custom
// roles can be created alongside them but system roles cannot be deleted.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Role is a named, reusable capability bundle. Permissions maps capability
// names to booleans; master flags (one per capability domain) live in the
// same map and imply every member capability of their domain at resolution
// time, never in storage.
type Role struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"type:text;not null;uniqueIndex:ux_roles_name" json:"name"`
	DisplayName string            `gorm:"type:text" json:"display_name"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	SystemRole  bool              `gorm:"column:is_system_role;not null;default:false" json:"is_system_role"`
	Permissions datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"permissions"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Role) TableName() string { return "roles" }

// Grants reports the stored value of a single capability flag. It performs
// no inheritance or alias resolution; that is the resolver's job.
func (r *Role) Grants(capability string) bool {
	if r == nil || len(r.Permissions) == 0 {
		return false
	}
	value, ok := r.Permissions[capability]
	if !ok {
		return false
	}
	granted, _ := value.(bool)
	return granted
}

// Flags returns the stored capability map as plain booleans.
func (r *Role) Flags() map[string]bool {
	if r == nil {
		return nil
	}
	flags := make(map[string]bool, len(r.Permissions))
	for name, value := range r.Permissions {
		granted, _ := value.(bool)
		flags[name] = granted
	}
	return flags
}
