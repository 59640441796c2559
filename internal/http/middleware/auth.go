// README: Firebase ID-token auth middleware and caller identity helpers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nearmatch/internal/infra"
)

const (
	ctxKeyUID          = "auth_uid"
	ctxKeyAuthDisabled = "auth_disabled"
)

// Auth verifies the Bearer token and stores the caller UID on the context.
// A nil verifier lets every request through unauthenticated.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Set(ctxKeyAuthDisabled, true)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || token == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxKeyUID, token.UID)
		c.Next()
	}
}

// CallerUID returns the authenticated user, or "" when auth is disabled.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}

// SelfOnly rejects requests whose :id path parameter is not the caller.
func SelfOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(ctxKeyAuthDisabled) {
			c.Next()
			return
		}
		if uid := CallerUID(c); uid == "" || uid != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: id does not match authenticated user"})
			return
		}
		c.Next()
	}
}
