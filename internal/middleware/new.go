package middleware

import (
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

type Middleware struct {
	l        log.Logger
	adminKey string
}

// New builds the shared gin middleware. An empty adminKey leaves admin
// routes open.
func New(l log.Logger, adminKey string) Middleware {
	return Middleware{
		l:        l,
		adminKey: adminKey,
	}
}
