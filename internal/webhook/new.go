package webhook

import (
	"sync"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/dedup"
	pkgLog "github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

// Handler receives platform callbacks, acknowledges them and runs the
// assistant pipeline in the background.
type Handler struct {
	assistantUC assistant.UseCase
	security    *SecurityValidator
	dedup       dedup.Deduplicator
	feishu      assistant.Messenger
	telegram    assistant.Messenger
	l           pkgLog.Logger

	inflight sync.WaitGroup
}

// NewHandler creates the webhook handler. A nil messenger disables that platform.
func NewHandler(
	assistantUC assistant.UseCase,
	securityConfig SecurityConfig,
	d dedup.Deduplicator,
	feishu assistant.Messenger,
	telegram assistant.Messenger,
	l pkgLog.Logger,
) *Handler {
	return &Handler{
		assistantUC: assistantUC,
		security:    NewSecurityValidator(securityConfig),
		dedup:       d,
		feishu:      feishu,
		telegram:    telegram,
		l:           l,
	}
}

// Wait blocks until every background pipeline started by the handler returns.
func (h *Handler) Wait() {
	h.inflight.Wait()
}
