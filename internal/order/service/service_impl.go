package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karimoff96/Multilang/internal/order/domain"
	"github.com/karimoff96/Multilang/internal/rbac"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type ServiceImpl struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &ServiceImpl{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.OrderResponse, error) {
	if req.OrgID == 0 {
		return domain.OrderResponse{}, domain.ErrInvalidOrganization
	}
	if req.BranchID == 0 {
		return domain.OrderResponse{}, domain.ErrInvalidBranch
	}
	if req.CreatedBy == 0 {
		return domain.OrderResponse{}, domain.ErrInvalidStaff
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:        s.genID.Generate(),
		OrgID:     req.OrgID,
		BranchID:  req.BranchID,
		CreatedBy: req.CreatedBy,
		Status:    domain.OrderStatusOpen,
		Note:      req.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, order); err != nil {
		s.log.Error("failed to create order", zap.Error(err))
		return domain.OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

func (s *ServiceImpl) List(ctx context.Context, filter rbac.FilterSpec) ([]domain.OrderResponse, error) {
	orders, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		s.log.Error("failed to list orders", zap.Error(err))
		return nil, err
	}
	out := make([]domain.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out, nil
}

func (s *ServiceImpl) UpdateStatus(ctx context.Context, req domain.UpdateOrderStatusRequest) (domain.OrderResponse, error) {
	switch req.Status {
	case domain.OrderStatusOpen, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
	default:
		return domain.OrderResponse{}, domain.ErrInvalidStatus
	}

	order, err := s.repo.Find(ctx, s.db, req.OrderID, req.Filter)
	if err != nil {
		return domain.OrderResponse{}, err
	}
	if order == nil {
		return domain.OrderResponse{}, domain.ErrOrderNotFound
	}

	if err := s.repo.UpdateStatus(ctx, s.db, order.ID, req.Status); err != nil {
		s.log.Error("failed to update order status", zap.Error(err))
		return domain.OrderResponse{}, err
	}
	order.Status = req.Status
	return toOrderResponse(order), nil
}

func toOrderResponse(o *domain.Order) domain.OrderResponse {
	return domain.OrderResponse{
		ID:        o.ID.String(),
		OrgID:     o.OrgID.String(),
		BranchID:  o.BranchID.String(),
		CreatedBy: o.CreatedBy.String(),
		Status:    o.Status,
		Note:      o.Note,
		CreatedAt: o.CreatedAt,
	}
}
