package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/linusssssai/feishu-bot-vercel/pkg/response"
)

var errMissingID = errors.New("conversation id is required")

// Stats godoc
// @Summary     Session store stats
// @Description Returns the size and age range of the in-process continuation tier.
// @Tags        Sessions
// @Produce     json
// @Param       X-Admin-Key header string false "Admin key"
// @Success     200 {object} statsResp
// @Failure     401 {object} response.Resp "Unauthorized"
// @Router      /api/v1/sessions/stats [GET]
func (h *handler) Stats(c *gin.Context) {
	response.OK(c, h.newStatsResp(h.uc.Stats()))
}

// Cleanup godoc
// @Summary     Evict expired sessions
// @Description Drops expired in-process sessions, then the oldest ones above the size cap.
// @Tags        Sessions
// @Produce     json
// @Param       X-Admin-Key header string false "Admin key"
// @Success     200 {object} cleanupResp
// @Failure     401 {object} response.Resp "Unauthorized"
// @Router      /api/v1/sessions/cleanup [POST]
func (h *handler) Cleanup(c *gin.Context) {
	ctx := c.Request.Context()

	removed := h.uc.Cleanup(ctx)
	h.l.Infof(ctx, "conversation.http.Cleanup: removed %d sessions", removed)

	response.OK(c, cleanupResp{Removed: removed})
}

// Reset godoc
// @Summary     Reset a conversation
// @Description Forgets the continuation token, artifact and table binding of one conversation.
// @Tags        Sessions
// @Produce     json
// @Param       X-Admin-Key header string false "Admin key"
// @Param       id path string true "Conversation ID"
// @Success     200 {object} resetResp
// @Failure     400 {object} response.Resp "Bad Request"
// @Failure     401 {object} response.Resp "Unauthorized"
// @Router      /api/v1/sessions/{id} [DELETE]
func (h *handler) Reset(c *gin.Context) {
	ctx := c.Request.Context()

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, errMissingID, nil)
		return
	}

	h.uc.Reset(ctx, id)
	h.l.Infof(ctx, "conversation.http.Reset: %s", id)

	response.OK(c, resetResp{ConversationID: id})
}
