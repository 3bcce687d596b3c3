package webhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/feishu"
	pkgTelegram "github.com/linusssssai/feishu-bot-vercel/pkg/telegram"
)

var ErrNoVideoData = errors.New("video has no inline data")

// FeishuClient is the part of the Feishu API the messenger uses.
type FeishuClient interface {
	ReplyText(ctx context.Context, messageID, text string) error
	ReplyImage(ctx context.Context, messageID, imageKey string) error
	ReplyMedia(ctx context.Context, messageID, fileKey string) error
	UploadImage(ctx context.Context, data []byte) (string, error)
	UploadVideo(ctx context.Context, name string, data []byte, durationMS int) (string, error)
	GetMessageResource(ctx context.Context, messageID, key, resourceType string) ([]byte, string, error)
}

var _ FeishuClient = (*feishu.Client)(nil)

type feishuMessenger struct {
	client FeishuClient
}

// NewFeishuMessenger replies to Feishu messages. Targets are message ids.
func NewFeishuMessenger(client FeishuClient) assistant.Messenger {
	return &feishuMessenger{client: client}
}

func (m *feishuMessenger) ReplyText(ctx context.Context, target, text string) error {
	return m.client.ReplyText(ctx, target, text)
}

func (m *feishuMessenger) ReplyImage(ctx context.Context, target string, img model.Image) error {
	key, err := m.client.UploadImage(ctx, img.Data)
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	return m.client.ReplyImage(ctx, target, key)
}

func (m *feishuMessenger) ReplyVideo(ctx context.Context, target string, v model.Video) error {
	if len(v.Data) == 0 {
		if v.URI == "" {
			return ErrNoVideoData
		}
		return m.client.ReplyText(ctx, target, v.URI)
	}
	key, err := m.client.UploadVideo(ctx, "video.mp4", v.Data, 0)
	if err != nil {
		return fmt.Errorf("upload video: %w", err)
	}
	return m.client.ReplyMedia(ctx, target, key)
}

func (m *feishuMessenger) FetchImage(ctx context.Context, ref model.ImageRef) (model.Image, error) {
	data, mime, err := m.client.GetMessageResource(ctx, ref.MessageID, ref.Key, "image")
	if err != nil {
		return model.Image{}, err
	}
	return model.Image{Data: data, MIMEType: mime}, nil
}

// TelegramBot is the part of the Bot API the messenger uses.
type TelegramBot interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, data []byte, caption string) error
	SendVideo(ctx context.Context, chatID int64, data []byte, caption string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

var _ TelegramBot = (*pkgTelegram.Bot)(nil)

type telegramMessenger struct {
	bot TelegramBot
}

// NewTelegramMessenger sends to Telegram chats. Targets are chat ids.
func NewTelegramMessenger(bot TelegramBot) assistant.Messenger {
	return &telegramMessenger{bot: bot}
}

func (m *telegramMessenger) ReplyText(ctx context.Context, target, text string) error {
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id %q: %w", target, err)
	}
	return m.bot.SendMessage(ctx, chatID, text)
}

func (m *telegramMessenger) ReplyImage(ctx context.Context, target string, img model.Image) error {
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id %q: %w", target, err)
	}
	return m.bot.SendPhoto(ctx, chatID, img.Data, "")
}

func (m *telegramMessenger) ReplyVideo(ctx context.Context, target string, v model.Video) error {
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram chat id %q: %w", target, err)
	}
	if len(v.Data) == 0 {
		if v.URI == "" {
			return ErrNoVideoData
		}
		return m.bot.SendMessage(ctx, chatID, v.URI)
	}
	return m.bot.SendVideo(ctx, chatID, v.Data, "")
}

func (m *telegramMessenger) FetchImage(ctx context.Context, ref model.ImageRef) (model.Image, error) {
	data, mime, err := m.bot.DownloadFile(ctx, ref.Key)
	if err != nil {
		return model.Image{}, err
	}
	return model.Image{Data: data, MIMEType: mime}, nil
}
