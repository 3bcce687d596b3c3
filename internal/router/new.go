package router

import (
	"context"

	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
	pkgLog "github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

// Invoker runs one logical AI call through the primary/fallback chain.
type Invoker interface {
	Invoke(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error)
}

// Router picks the pipeline branch for each canonical message.
type Router struct {
	vocab Vocabulary
	llm   Invoker
	l     pkgLog.Logger
}

// New creates a router over the given vocabulary.
func New(vocab Vocabulary, llm Invoker, l pkgLog.Logger) *Router {
	return &Router{
		vocab: vocab,
		llm:   llm,
		l:     l,
	}
}

// Version returns the vocabulary version in use.
func (r *Router) Version() int {
	return r.vocab.Version
}
