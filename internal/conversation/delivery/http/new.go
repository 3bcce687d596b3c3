package http

import (
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

type handler struct {
	l  log.Logger
	uc conversation.UseCase
}

// New creates the operator endpoints for the continuation store.
func New(l log.Logger, uc conversation.UseCase) *handler {
	return &handler{
		l:  l,
		uc: uc,
	}
}
