package model

type Platform string

const (
	PlatformFeishu   Platform = "feishu"
	PlatformTelegram Platform = "telegram"
)

// ImageRef points at an image that still has to be downloaded from the platform.
type ImageRef struct {
	// Key is the Feishu image_key or the Telegram file_id.
	Key string
	// MessageID is the message the resource belongs to (Feishu only).
	MessageID string
}

// Message is the canonical form of any inbound payload.
type Message struct {
	Text   string
	Images []ImageRef
	// RawType is the platform message type, kept for the unsupported-input reply.
	RawType string
}

// Empty reports a message with neither text nor images.
func (m Message) Empty() bool {
	return m.Text == "" && len(m.Images) == 0
}

// Image is downloaded or generated image bytes.
type Image struct {
	Data     []byte
	MIMEType string
}

// Video is a generated video, either inline bytes or a provider URI.
type Video struct {
	Data     []byte
	MIMEType string
	URI      string
}

// Event is a resolved inbound platform event.
type Event struct {
	ID             string
	ConversationID string
	// ReplyTo is the message id (Feishu) or chat id (Telegram) replies go to.
	ReplyTo  string
	Platform Platform
	Message  Message
}
