package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*OrganizationResponse, error)
	GetOrganization(ctx context.Context, id string) (*OrganizationResponse, error)

	CreateBranch(ctx context.Context, req CreateBranchRequest) (*BranchResponse, error)
	ListBranches(ctx context.Context, orgID string, visibility Visibility) ([]BranchResponse, error)

	CreateStaff(ctx context.Context, req CreateStaffRequest) (*StaffResponse, error)
	DeactivateStaff(ctx context.Context, orgID, staffID string) (*StaffResponse, error)
	ListStaff(ctx context.Context, orgID string, visibility Visibility) ([]StaffResponse, error)

	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, req UpdateRoleRequest) (*RoleResponse, error)
	ListRoles(ctx context.Context) ([]RoleResponse, error)
}

type CreateOrganizationRequest struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id,omitempty"`
}

type CreateBranchRequest struct {
	OrgID   string  `json:"org_id"`
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

type CreateStaffRequest struct {
	OrgID     string  `json:"org_id"`
	BranchID  *string `json:"branch_id,omitempty"`
	RoleID    string  `json:"role_id"`
	FullName  string  `json:"full_name"`
	Phone     *string `json:"phone,omitempty"`
	CreatedBy *string `json:"created_by,omitempty"`
}

type CreateRoleRequest struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Permissions map[string]bool `json:"permissions"`
}

type UpdateRoleRequest struct {
	ID          string           `json:"id"`
	DisplayName *string          `json:"display_name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Permissions *map[string]bool `json:"permissions,omitempty"`
}

type OrganizationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	MainBranchID string    `json:"main_branch_id"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type BranchResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	IsMain    bool      `json:"is_main"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	BranchID  *string   `json:"branch_id,omitempty"`
	RoleID    string    `json:"role_id"`
	FullName  string    `json:"full_name"`
	Active    bool      `json:"active"`
	Superuser bool      `json:"is_superuser"`
	CreatedAt time.Time `json:"created_at"`
}

type RoleResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Description *string         `json:"description,omitempty"`
	SystemRole  bool            `json:"is_system_role"`
	Permissions map[string]bool `json:"permissions"`
}

// ParseID parses a snowflake ID string, rejecting zero values.
func ParseID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(value)
	if err != nil || parsed == 0 {
		return 0, ErrInvalidID
	}
	return parsed, nil
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidBranch       = errors.New("invalid_branch")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrInvalidStaff        = errors.New("invalid_staff")
	ErrDuplicateName       = errors.New("duplicate_name")
	ErrSystemRoleProtected = errors.New("system_role_protected")
	ErrNotFound            = errors.New("not_found")
)
