package repository

import (
	"context"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

// Repository is the durable tier of the conversation store.
// Rows carry their own expiry, independent of the in-process TTL.
type Repository interface {
	// Get returns ErrNotFound for missing or expired rows.
	Get(ctx context.Context, id string) (model.ConversationContext, error)
	Save(ctx context.Context, opt SaveOptions) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes rows whose expiry is before now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Close() error
}
