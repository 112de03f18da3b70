package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karimoff96/Multilang/internal/guard"
	"github.com/karimoff96/Multilang/internal/rbac"
	"github.com/karimoff96/Multilang/internal/staffctx"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
)

func (s *Server) CreateOrganization(c *gin.Context) {
	var req tenantdomain.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if req.OwnerID == "" {
		if staff, ok := staffctx.StaffFromContext(c.Request.Context()); ok {
			req.OwnerID = staff.ID.String()
		}
	}

	resp, err := s.tenantSvc.CreateOrganization(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetOrganization(c *gin.Context) {
	resp, err := s.tenantSvc.GetOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateBranch(c *gin.Context) {
	var req tenantdomain.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.OrgID = c.Param("id")

	resp, err := s.tenantSvc.CreateBranch(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListBranches narrows the listing to the branches the guard's scope
// filter exposes; a branch row's own id is its branch column.
func (s *Server) ListBranches(c *gin.Context) {
	filter := guard.ScopeFromGin(c)
	resp, err := s.tenantSvc.ListBranches(c.Request.Context(), c.Param("id"),
		filter.Scope(rbac.Columns{Branch: "id"}))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": resp})
}

func (s *Server) CreateStaff(c *gin.Context) {
	var req tenantdomain.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.OrgID = c.Param("id")
	if actor, ok := staffctx.StaffFromContext(c.Request.Context()); ok {
		createdBy := actor.ID.String()
		req.CreatedBy = &createdBy
	}

	resp, err := s.tenantSvc.CreateStaff(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListStaff(c *gin.Context) {
	filter := guard.ScopeFromGin(c)
	resp, err := s.tenantSvc.ListStaff(c.Request.Context(), c.Param("id"),
		filter.Scope(rbac.Columns{}))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": resp})
}

func (s *Server) DeactivateStaff(c *gin.Context) {
	resp, err := s.tenantSvc.DeactivateStaff(c.Request.Context(), c.Param("id"), c.Param("staffId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListRoles(c *gin.Context) {
	resp, err := s.tenantSvc.ListRoles(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": resp})
}

func (s *Server) CreateRole(c *gin.Context) {
	var req tenantdomain.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.tenantSvc.CreateRole(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateRole(c *gin.Context) {
	var req tenantdomain.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	resp, err := s.tenantSvc.UpdateRole(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
