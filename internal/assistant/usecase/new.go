package usecase

import (
	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	"github.com/linusssssai/feishu-bot-vercel/internal/router"
	pkgLog "github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

type implUseCase struct {
	l         pkgLog.Logger
	llm       assistant.Invoker
	router    *router.Router
	store     conversation.UseCase
	tables    assistant.TableService
	video     assistant.VideoGenerator
	artifacts assistant.ArtifactStore
	cfg       assistant.Config
}

// New creates the assistant UseCase. tables, video and artifacts may be nil
// when the matching feature is not configured.
func New(
	l pkgLog.Logger,
	llm assistant.Invoker,
	r *router.Router,
	store conversation.UseCase,
	tables assistant.TableService,
	video assistant.VideoGenerator,
	artifacts assistant.ArtifactStore,
	cfg assistant.Config,
) *implUseCase {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = assistant.DefaultRequestTimeout
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = assistant.DefaultResultLimit
	}
	return &implUseCase{
		l:         l,
		llm:       llm,
		router:    r,
		store:     store,
		tables:    tables,
		video:     video,
		artifacts: artifacts,
		cfg:       cfg,
	}
}

var _ assistant.UseCase = (*implUseCase)(nil)
