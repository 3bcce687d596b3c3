package http

import (
	"github.com/gin-gonic/gin"

	"github.com/linusssssai/feishu-bot-vercel/internal/middleware"
)

// RegisterRoutes mounts the session endpoints behind the admin key.
func RegisterRoutes(rg *gin.RouterGroup, h *handler, mw middleware.Middleware) {
	sessions := rg.Group("/sessions", mw.Admin())
	{
		sessions.GET("/stats", h.Stats)
		sessions.POST("/cleanup", h.Cleanup)
		sessions.DELETE("/:id", h.Reset)
	}
}
