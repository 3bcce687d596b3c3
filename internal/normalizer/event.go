package normalizer

import (
	"errors"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

const FeishuMessageReceive = "im.message.receive_v1"

var (
	ErrInvalidPayload  = errors.New("invalid event payload")
	ErrNotMessageEvent = errors.New("not a message event")
)

// FeishuEvent resolves a decrypted Feishu v2 event body.
func FeishuEvent(body []byte) (model.Event, error) {
	if !gjson.ValidBytes(body) {
		return model.Event{}, ErrInvalidPayload
	}
	doc := gjson.ParseBytes(body)

	if t := doc.Get("header.event_type").String(); t != FeishuMessageReceive {
		return model.Event{}, ErrNotMessageEvent
	}

	m := doc.Get("event.message")
	messageID := m.Get("message_id").String()
	if messageID == "" {
		return model.Event{}, ErrInvalidPayload
	}

	conversationID := m.Get("chat_id").String()
	if conversationID == "" {
		conversationID = messageID
	}

	return model.Event{
		ID:             doc.Get("header.event_id").String(),
		ConversationID: conversationID,
		ReplyTo:        messageID,
		Platform:       model.PlatformFeishu,
		Message:        FeishuContent(m.Get("message_type").String(), m.Get("content").String(), messageID),
	}, nil
}

// TelegramUpdate resolves a raw Telegram update. Photos arrive as several
// sizes of one picture, so only the largest (last) size is kept.
func TelegramUpdate(body []byte) (model.Event, error) {
	if !gjson.ValidBytes(body) {
		return model.Event{}, ErrInvalidPayload
	}
	doc := gjson.ParseBytes(body)

	m := doc.Get("message")
	if !m.Exists() {
		return model.Event{}, ErrNotMessageEvent
	}
	chatID := m.Get("chat.id")
	if !chatID.Exists() {
		return model.Event{}, ErrInvalidPayload
	}

	msg := model.Message{RawType: "text"}
	msg.Text = m.Get("text").String()
	if msg.Text == "" {
		msg.Text = m.Get("caption").String()
	}
	if photos := m.Get("photo").Array(); len(photos) > 0 {
		msg.RawType = "photo"
		if id := photos[len(photos)-1].Get("file_id").String(); id != "" {
			msg.Images = append(msg.Images, model.ImageRef{Key: id})
		}
	}
	switch {
	case m.Get("voice").Exists():
		msg.RawType = "voice"
	case m.Get("sticker").Exists():
		msg.RawType = "sticker"
	case m.Get("document").Exists():
		msg.RawType = "document"
	}

	chat := chatID.Raw
	return model.Event{
		ID:             "tg-" + strconv.FormatInt(doc.Get("update_id").Int(), 10),
		ConversationID: "tg:" + chat,
		ReplyTo:        chat,
		Platform:       model.PlatformTelegram,
		Message:        msg,
	}, nil
}
