package assistant

import (
	"context"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/feishu"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
)

// UseCase runs the reply pipeline for one resolved event.
type UseCase interface {
	// Handle never returns an error. Failures end in a friendly reply.
	Handle(ctx context.Context, m Messenger, ev model.Event)
}

// Messenger is the outbound side of one messaging platform.
type Messenger interface {
	ReplyText(ctx context.Context, target, text string) error
	ReplyImage(ctx context.Context, target string, img model.Image) error
	ReplyVideo(ctx context.Context, target string, v model.Video) error
	FetchImage(ctx context.Context, ref model.ImageRef) (model.Image, error)
}

// Invoker runs one logical AI call through the primary/fallback chain.
type Invoker interface {
	Invoke(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error)
}

// TableService is the Bitable API.
type TableService interface {
	ListTables(ctx context.Context, appToken string) ([]feishu.Table, error)
	CreateTable(ctx context.Context, appToken, name string, fields []feishu.TableField) (string, error)
	ListFields(ctx context.Context, appToken, tableID string) ([]feishu.Field, error)
	ListRecords(ctx context.Context, appToken, tableID, filter string, pageSize int) ([]feishu.Record, error)
	CreateRecord(ctx context.Context, appToken, tableID string, fields map[string]any) (string, error)
	UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]any) error
	DeleteRecord(ctx context.Context, appToken, tableID, recordID string) error
}

// VideoGenerator runs a long video job to completion.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req gemini.VideoRequest) (*gemini.Video, error)
}

// ArtifactStore archives generated media outside the process.
type ArtifactStore interface {
	Put(ctx context.Context, kind model.ArtifactKind, data []byte, mimeType string) (model.Artifact, error)
}
