package repository

import (
	"time"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

// DefaultRowTTL is how long a saved row stays readable.
const DefaultRowTTL = 24 * time.Hour

// SaveOptions holds parameters for upserting a conversation row.
type SaveOptions struct {
	ID        string
	Context   model.ConversationContext
	ExpiresAt time.Time
}
