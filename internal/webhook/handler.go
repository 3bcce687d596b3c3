package webhook

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/internal/normalizer"
	pkgResponse "github.com/linusssssai/feishu-bot-vercel/pkg/response"
)

// Log prefixes
const (
	LogPrefixFeishu   = "internal.webhook.HandleFeishu"
	LogPrefixTelegram = "internal.webhook.HandleTelegram"
	LogPrefixProcess  = "internal.webhook.process"
)

// Feishu signature headers
const (
	HeaderLarkTimestamp = "X-Lark-Request-Timestamp"
	HeaderLarkNonce     = "X-Lark-Request-Nonce"
	HeaderLarkSignature = "X-Lark-Signature"
)

// HandleFeishu godoc
// @Summary Feishu event callback
// @Description Answers url_verification and acknowledges im.message.receive_v1 events before processing them in the background.
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} response.Resp
// @Failure 400 {object} response.Resp
// @Failure 401 {object} response.Resp
// @Failure 429 {object} response.Resp
// @Router /webhook/feishu [post]
func (h *Handler) HandleFeishu(c *gin.Context) {
	ctx := c.Request.Context()
	if h.feishu == nil {
		pkgResponse.NotFound(c)
		return
	}

	if err := h.security.ValidateIPAddress(c.Request); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixFeishu, err)
		pkgResponse.Forbidden(c)
		return
	}
	if err := h.security.CheckRateLimit(string(model.PlatformFeishu)); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixFeishu, err)
		pkgResponse.TooManyRequests(c)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.l.Errorf(ctx, "%s: read body: %v", LogPrefixFeishu, err)
		pkgResponse.Error(c, err, nil)
		return
	}

	env, err := h.security.Open(body)
	if err != nil {
		h.l.Warnf(ctx, "%s: open body: %v", LogPrefixFeishu, err)
		pkgResponse.Error(c, err, nil)
		return
	}
	if err := h.security.ValidateVerificationToken(env.Token); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixFeishu, err)
		pkgResponse.Unauthorized(c)
		return
	}

	// Feishu does not sign the url_verification request.
	if env.Challenge != "" {
		pkgResponse.Raw(c, gin.H{"challenge": env.Challenge})
		return
	}

	if err := h.security.ValidateFeishuSignature(
		c.GetHeader(HeaderLarkTimestamp),
		c.GetHeader(HeaderLarkNonce),
		c.GetHeader(HeaderLarkSignature),
		body,
	); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixFeishu, err)
		pkgResponse.Unauthorized(c)
		return
	}

	ev, err := normalizer.FeishuEvent(env.Plain)
	if err != nil {
		if !errors.Is(err, normalizer.ErrNotMessageEvent) {
			h.l.Warnf(ctx, "%s: resolve event: %v", LogPrefixFeishu, err)
		}
		pkgResponse.OK(c, gin.H{"status": "ignored"})
		return
	}

	h.accept(c, h.feishu, ev)
}

// HandleTelegram godoc
// @Summary Telegram webhook update
// @Description Acknowledges a message update and processes it in the background.
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} response.Resp
// @Failure 400 {object} response.Resp
// @Failure 429 {object} response.Resp
// @Router /webhook/telegram [post]
func (h *Handler) HandleTelegram(c *gin.Context) {
	ctx := c.Request.Context()
	if h.telegram == nil {
		pkgResponse.NotFound(c)
		return
	}

	if err := h.security.ValidateIPAddress(c.Request); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixTelegram, err)
		pkgResponse.Forbidden(c)
		return
	}
	if err := h.security.CheckRateLimit(string(model.PlatformTelegram)); err != nil {
		h.l.Warnf(ctx, "%s: %v", LogPrefixTelegram, err)
		pkgResponse.TooManyRequests(c)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.l.Errorf(ctx, "%s: read body: %v", LogPrefixTelegram, err)
		pkgResponse.Error(c, err, nil)
		return
	}

	ev, err := normalizer.TelegramUpdate(body)
	if err != nil {
		if errors.Is(err, normalizer.ErrInvalidPayload) {
			h.l.Warnf(ctx, "%s: resolve update: %v", LogPrefixTelegram, err)
		}
		// Polls, channel posts and edits are acknowledged and dropped.
		pkgResponse.OK(c, gin.H{"status": "ignored"})
		return
	}

	h.accept(c, h.telegram, ev)
}

// accept drops redeliveries, acknowledges the callback and hands the event
// to the pipeline on its own goroutine.
func (h *Handler) accept(c *gin.Context, m assistant.Messenger, ev model.Event) {
	if h.dedup != nil && h.dedup.Seen(ev.ID) {
		h.l.Infof(c.Request.Context(), "%s: duplicate event %s skipped", LogPrefixProcess, ev.ID)
		pkgResponse.OK(c, gin.H{"status": "duplicate"})
		return
	}

	// Detach from the request context, which is cancelled after the response.
	ctx := context.WithoutCancel(c.Request.Context())

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.assistantUC.Handle(ctx, m, ev)
	}()

	pkgResponse.OK(c, gin.H{"status": "accepted"})
}
