package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/rbac"
)

type CreateOrderRequest struct {
	OrgID     snowflake.ID `json:"org_id"`
	BranchID  snowflake.ID `json:"branch_id"`
	CreatedBy snowflake.ID `json:"created_by"`
	Note      string       `json:"note,omitempty"`
}

type UpdateOrderStatusRequest struct {
	OrderID snowflake.ID `json:"order_id"`
	Status  OrderStatus  `json:"status"`
	// Filter is the caller's resolved scope; orders outside it stay
	// untouched and look missing.
	Filter rbac.FilterSpec `json:"-"`
}

type OrderResponse struct {
	ID        string      `json:"id"`
	OrgID     string      `json:"org_id"`
	BranchID  string      `json:"branch_id"`
	CreatedBy string      `json:"created_by"`
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (OrderResponse, error)
	List(ctx context.Context, filter rbac.FilterSpec) ([]OrderResponse, error)
	UpdateStatus(ctx context.Context, req UpdateOrderStatusRequest) (OrderResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidBranch       = errors.New("invalid_branch")
	ErrInvalidStaff        = errors.New("invalid_staff")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrOrderNotFound       = errors.New("order_not_found")
)
