package guard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/karimoff96/Multilang/internal/rbac"
	"github.com/karimoff96/Multilang/internal/staffctx"
)

const decisionKey = "guard.decision"

// RequireCapability returns gin middleware that enforces the request
// before the handler runs. A deny aborts with 403 and the reason; on allow
// the decision (with its scope filter) is stored on the gin context.
func (g *Guard) RequireCapability(req Request) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, ok := staffctx.StaffFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		decision, err := g.Check(c.Request.Context(), staff, req)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": string(decision.Reason)})
			return
		}

		c.Set(decisionKey, decision)
		c.Next()
	}
}

// DecisionFromGin returns the decision stored by RequireCapability.
func DecisionFromGin(c *gin.Context) (Decision, bool) {
	value, ok := c.Get(decisionKey)
	if !ok {
		return Decision{}, false
	}
	decision, ok := value.(Decision)
	return decision, ok
}

// ScopeFromGin returns the scope filter of the stored decision, defaulting
// to NONE so a missing decision can never widen visibility.
func ScopeFromGin(c *gin.Context) rbac.FilterSpec {
	decision, ok := DecisionFromGin(c)
	if !ok {
		return rbac.FilterSpec{Type: rbac.ScopeNone}
	}
	return decision.Scope
}
