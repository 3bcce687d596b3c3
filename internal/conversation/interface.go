package conversation

import (
	"context"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

// UseCase is the two-tier continuation store.
//
//go:generate mockery --name UseCase
type UseCase interface {
	// Get never fails. Store errors degrade to an empty context.
	Get(ctx context.Context, id string) model.ConversationContext
	// Update merges patch into the in-process entry and persists it in the background.
	Update(ctx context.Context, id string, patch model.ContextPatch)
	// Delete drops the in-process entry only.
	Delete(ctx context.Context, id string)
	// Reset drops the in-process entry and removes the durable row in the background.
	Reset(ctx context.Context, id string)
	Cleanup(ctx context.Context) int
	Stats() Stats
}

// Releaser frees an externally held artifact that a newer one replaced.
type Releaser interface {
	Release(ctx context.Context, a model.Artifact) error
}
