package gemini

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"
)

// Config holds the settings shared by the Interactions and SDK clients.
type Config struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	VideoModel string
	Timeout    time.Duration
	HTTPClient *http.Client

	VideoPollInterval time.Duration
	VideoPollAttempts int
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("gemini: API key is required")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.VideoModel == "" {
		c.VideoModel = DefaultVideoModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.VideoPollInterval <= 0 {
		c.VideoPollInterval = DefaultVideoPollInterval
	}
	if c.VideoPollAttempts <= 0 {
		c.VideoPollAttempts = DefaultVideoPollAttempts
	}
	return nil
}

// Blob is inline media, either an input attachment or a generated output.
type Blob struct {
	Data     []byte
	MIMEType string
}

// InteractionRequest is the body of POST /interactions.
type InteractionRequest struct {
	Model                 string         `json:"model"`
	Input                 []InputItem    `json:"input"`
	SystemInstruction     string         `json:"system_instruction,omitempty"`
	PreviousInteractionID string         `json:"previous_interaction_id,omitempty"`
	ResponseFormat        map[string]any `json:"response_format,omitempty"`
	ResponseModalities    []string       `json:"response_modalities,omitempty"`
}

// InputItem is one text or image element of an interaction input.
type InputItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

// TextItem builds a text input element.
func TextItem(text string) InputItem {
	return InputItem{Type: ItemText, Text: text}
}

// ImageItem builds an inline image input element.
func ImageItem(b Blob) InputItem {
	return InputItem{
		Type:     ItemImage,
		Data:     base64.StdEncoding.EncodeToString(b.Data),
		MIMEType: b.MIMEType,
	}
}

// Interaction is the response of POST /interactions.
type Interaction struct {
	ID      string   `json:"id"`
	Status  string   `json:"status,omitempty"`
	Outputs []Output `json:"outputs"`
}

// Output is one element of an interaction result.
type Output struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
}

// Text returns the last text output, which carries the model's final answer.
func (i *Interaction) Text() string {
	for k := len(i.Outputs) - 1; k >= 0; k-- {
		if i.Outputs[k].Type == ItemText && i.Outputs[k].Text != "" {
			return i.Outputs[k].Text
		}
	}
	return ""
}

// Images decodes every image output. Undecodable entries are skipped.
func (i *Interaction) Images() []Blob {
	var out []Blob
	for _, o := range i.Outputs {
		if o.Type != ItemImage || o.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(o.Data)
		if err != nil {
			continue
		}
		out = append(out, Blob{Data: data, MIMEType: o.MIMEType})
	}
	return out
}

// ContentRequest is a stateless generateContent call made through the SDK.
type ContentRequest struct {
	Model              string
	SystemInstruction  string
	Text               string
	Images             []Blob
	ResponseSchema     map[string]any
	ResponseModalities []string
}

// ContentResponse is the flattened SDK answer.
type ContentResponse struct {
	Text   string
	Images []Blob
}

// VideoRequest describes one Veo job. Image animates a still and ExtendURI
// continues a video the API generated earlier; at most one is set.
type VideoRequest struct {
	Prompt    string
	Image     *Blob
	ExtendURI string
}

// Video is a finished Veo generation.
type Video struct {
	Data     []byte
	MIMEType string
	URI      string
}
