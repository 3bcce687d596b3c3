package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
	"github.com/linusssssai/feishu-bot-vercel/pkg/response"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderAdminKey  = "X-Admin-Key"
)

// Trace tags the request context with the caller's X-Request-ID, or a fresh
// id, and echoes it on the response.
func (m Middleware) Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := log.WithTraceID(c.Request.Context(), c.GetHeader(HeaderRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, log.TraceID(ctx))
		c.Next()
	}
}

// Admin guards operator routes with a static key.
func (m Middleware) Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.adminKey == "" {
			c.Next()
			return
		}
		got := c.GetHeader(HeaderAdminKey)
		if subtle.ConstantTimeCompare([]byte(got), []byte(m.adminKey)) != 1 {
			m.l.Warnf(c.Request.Context(), "middleware.Admin: rejected %s %s", c.Request.Method, c.FullPath())
			response.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
