package usecase

import (
	"sync"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

// implUseCase keeps Tier 1 in a mutex guarded map and treats repo as Tier 2.
// repo and releaser may be nil.
type implUseCase struct {
	mu      sync.Mutex
	entries map[string]model.ConversationContext

	repo     repository.Repository
	releaser conversation.Releaser
	cfg      conversation.Config
	l        log.Logger
	now      func() time.Time

	pending sync.WaitGroup
}

// New creates the conversation store. Zero config values take the defaults.
func New(l log.Logger, repo repository.Repository, releaser conversation.Releaser, cfg conversation.Config) *implUseCase {
	if cfg.TTL <= 0 {
		cfg.TTL = conversation.DefaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = conversation.DefaultMaxSessions
	}
	if cfg.RowTTL <= 0 {
		cfg.RowTTL = repository.DefaultRowTTL
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = conversation.DefaultWriteTimeout
	}
	return &implUseCase{
		entries:  make(map[string]model.ConversationContext),
		repo:     repo,
		releaser: releaser,
		cfg:      cfg,
		l:        l,
		now:      time.Now,
	}
}

var _ conversation.UseCase = (*implUseCase)(nil)
