package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/karimoff96/Multilang/internal/audit/domain"
	tenantdomain "github.com/karimoff96/Multilang/internal/tenant/domain"
	"go.uber.org/zap"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	orgID, err := tenantdomain.ParseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filter := auditdomain.ListFilter{
		OrgID:      orgID,
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		ActorType:  c.Query("actor_type"),
	}

	if raw := c.Query("start_at"); raw != "" {
		startAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.StartAt = &startAt
	}
	if raw := c.Query("end_at"); raw != "" {
		endAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.EndAt = &endAt
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.Limit = limit
	}

	entries, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": entries})
}

type sendBroadcastRequest struct {
	Message string `json:"message"`
}

// SendBroadcast accepts a marketing broadcast for delivery. Actual fan-out
// happens in the messaging pipeline; this endpoint only records intent.
func (s *Server) SendBroadcast(c *gin.Context) {
	var body sendBroadcastRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Message == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.auditSvc.AuditLog(c.Request.Context(), auditdomain.Event{
		Action:     "broadcast.send",
		TargetType: "broadcast",
		Decision:   "queued",
		Metadata: map[string]any{
			"message_length": len(body.Message),
		},
	}); err != nil {
		s.log.Warn("audit broadcast", zap.Error(err))
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
