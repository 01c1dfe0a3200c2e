package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/redisclient"
)

const sessionKey = "session"

// sessionAuth resolves the session token from the Authorization header (or
// X-Session-Token) and aborts with 401 when it is missing or unknown.
func (h *Handler) sessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.GetHeader("X-Session-Token")
		}
		if token == "" {
			respondError(c, apperr.Unauthorized("missing session token"))
			c.Abort()
			return
		}

		sess, err := h.redis.GetSession(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if sess == nil {
			respondError(c, apperr.Unauthorized("invalid or expired session"))
			c.Abort()
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// requireAdmin aborts unless the authenticated session has the admin role.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess == nil || sess.Role != "admin" {
			respondError(c, apperr.Unauthorized("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *redisclient.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*redisclient.Session)
	return sess
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
