package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karimoff96/Multilang/internal/guard"
	orderdomain "github.com/karimoff96/Multilang/internal/order/domain"
	"github.com/karimoff96/Multilang/internal/staffctx"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
)

// ListOrders serves orders through the filter the guard attached; a staff
// member never sees rows outside their resolved visibility.
func (s *Server) ListOrders(c *gin.Context) {
	filter := guard.ScopeFromGin(c)

	resp, err := s.orderSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

type createOrderRequest struct {
	BranchID string `json:"branch_id"`
	Note     string `json:"note,omitempty"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	staff, ok := staffctx.StaffFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body createOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req := orderdomain.CreateOrderRequest{
		OrgID:     staff.OrgID,
		CreatedBy: staff.ID,
		Note:      body.Note,
	}
	switch {
	case body.BranchID != "":
		branchID, err := tenantdomain.ParseID(body.BranchID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.BranchID = branchID
	case staff.BranchID != nil:
		req.BranchID = *staff.BranchID
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type updateOrderStatusRequest struct {
	Status orderdomain.OrderStatus `json:"status"`
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	orderID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var body updateOrderStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.orderSvc.UpdateStatus(c.Request.Context(), orderdomain.UpdateOrderStatusRequest{
		OrderID: orderID,
		Status:  body.Status,
		Filter:  guard.ScopeFromGin(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// OrdersReport aggregates the orders visible under the caller's scope.
// It reuses the scoped listing rather than a second query path so the
// report can never widen beyond what the list endpoint would show.
func (s *Server) OrdersReport(c *gin.Context) {
	filter := guard.ScopeFromGin(c)

	orders, err := s.orderSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	byStatus := map[orderdomain.OrderStatus]int{}
	for _, o := range orders {
		byStatus[o.Status]++
	}

	c.JSON(http.StatusOK, gin.H{
		"scope": filter.Type,
		"total": len(orders),
		"by_status": gin.H{
			"open":      byStatus[orderdomain.OrderStatusOpen],
			"completed": byStatus[orderdomain.OrderStatusCompleted],
			"cancelled": byStatus[orderdomain.OrderStatusCancelled],
		},
	})
}
