package http

import (
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	"github.com/linusssssai/feishu-bot-vercel/pkg/response"
)

type statsResp struct {
	Total       int                `json:"total"`
	MaxSessions int                `json:"max_sessions"`
	TTL         string             `json:"ttl"`
	Oldest      *response.DateTime `json:"oldest,omitempty"`
	Newest      *response.DateTime `json:"newest,omitempty"`
}

func (h *handler) newStatsResp(s conversation.Stats) statsResp {
	return statsResp{
		Total:       s.Total,
		MaxSessions: s.MaxSessions,
		TTL:         s.TTL.String(),
		Oldest:      response.NewDateTime(s.Oldest),
		Newest:      response.NewDateTime(s.Newest),
	}
}

type cleanupResp struct {
	Removed int `json:"removed"`
}

type resetResp struct {
	ConversationID string `json:"conversation_id"`
}
