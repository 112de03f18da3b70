package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/karimoff96/Multilang/internal/billing/domain"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
)

func (s *Server) ListTariffs(c *gin.Context) {
	resp, err := s.billingSvc.ListTariffs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tariffs": resp})
}

func (s *Server) GetSubscription(c *gin.Context) {
	orgID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.CurrentSubscription(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type activateSubscriptionRequest struct {
	TariffCode string `json:"tariff_code"`
	AutoRenew  bool   `json:"auto_renew"`
	AmountPaid int64  `json:"amount_paid"`
}

func (s *Server) ActivateSubscription(c *gin.Context) {
	orgID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var body activateSubscriptionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billingSvc.Activate(c.Request.Context(), billingdomain.ActivateRequest{
		OrgID:      orgID,
		TariffCode: body.TariffCode,
		AutoRenew:  body.AutoRenew,
		AmountPaid: body.AmountPaid,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) CancelSubscription(c *gin.Context) {
	orgID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.billingSvc.Cancel(c.Request.Context(), billingdomain.CancelRequest{OrgID: orgID})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type renewSubscriptionRequest struct {
	AmountPaid int64 `json:"amount_paid"`
}

func (s *Server) RenewSubscription(c *gin.Context) {
	orgID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var body renewSubscriptionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billingSvc.Renew(c.Request.Context(), billingdomain.RenewRequest{
		OrgID:      orgID,
		AmountPaid: body.AmountPaid,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type convertTrialRequest struct {
	TariffCode string `json:"tariff_code"`
	AmountPaid int64  `json:"amount_paid"`
}

func (s *Server) ConvertTrial(c *gin.Context) {
	orgID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var body convertTrialRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.billingSvc.ConvertTrial(c.Request.Context(), billingdomain.ConvertTrialRequest{
		OrgID:      orgID,
		TariffCode: body.TariffCode,
		AmountPaid: body.AmountPaid,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetUsage(c *gin.Context) {
	orgID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	usage, err := s.billingSvc.Usage(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"branches":       usage.Branches,
		"staff":          usage.Staff,
		"monthly_orders": usage.MonthlyOrders,
	})
}
