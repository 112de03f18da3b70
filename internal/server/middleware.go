package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/karimoff96/Multilang/internal/staffctx"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
)

const (
	// HeaderStaff carries the acting staff member's id. Authentication
	// itself (sessions, tokens) belongs to the surrounding platform; this
	// server trusts the upstream proxy to have verified the identity.
	HeaderStaff     = "X-Staff-ID"
	HeaderRequestID = "X-Request-ID"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// StaffContext resolves the acting staff member from the request header
// and attaches it to the request context. Requests without a resolvable
// staff member proceed unauthenticated; the guard denies them later.
func (s *Server) StaffContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderStaff))
		if raw == "" {
			c.Next()
			return
		}

		id, err := tenantdomain.ParseID(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		staff, err := s.tenantRepo.FindStaff(c.Request.Context(), s.db, id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if staff == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := staffctx.WithStaff(c.Request.Context(), staff)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OrganizationAccess pins organization-scoped routes to the acting staff
// member's own organization. Foreign organizations answer not_found, so a
// caller cannot probe which organization IDs exist. Superusers cross
// organizations freely.
func (s *Server) OrganizationAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := tenantdomain.ParseID(c.Param("id"))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		staff, ok := staffctx.StaffFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !staff.Superuser && staff.OrgID != orgID {
			AbortWithError(c, ErrNotFound)
			return
		}
		c.Next()
	}
}
