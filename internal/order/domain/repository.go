package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/rbac"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order) error
	// Find looks the order up inside the caller's scope filter; an order
	// outside it is reported as absent.
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID, filter rbac.FilterSpec) (*Order, error)
	// List applies the caller's scope filter; it never widens beyond it.
	List(ctx context.Context, db *gorm.DB, filter rbac.FilterSpec) ([]Order, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status OrderStatus) error
}
