package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"

	conversationHTTP "github.com/linusssssai/feishu-bot-vercel/internal/conversation/delivery/http"
	"github.com/linusssssai/feishu-bot-vercel/internal/middleware"
)

// setupSessionDomain registers the operator routes of the continuation store
// under /api/v1/sessions.
func (srv *HTTPServer) setupSessionDomain(ctx context.Context, api *gin.RouterGroup, mw middleware.Middleware) {
	h := conversationHTTP.New(srv.l, srv.sessions)
	conversationHTTP.RegisterRoutes(api, h, mw)

	srv.l.Infof(ctx, "Session domain registered")
}
