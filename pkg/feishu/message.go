package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// Message types
const (
	MsgTypeText  = "text"
	MsgTypeImage = "image"
	MsgTypeMedia = "media"
)

// ReplyText replies to a message with plain text.
func (c *Client) ReplyText(ctx context.Context, messageID, text string) error {
	return c.reply(ctx, messageID, MsgTypeText, map[string]string{"text": text})
}

// ReplyImage replies with an uploaded image.
func (c *Client) ReplyImage(ctx context.Context, messageID, imageKey string) error {
	return c.reply(ctx, messageID, MsgTypeImage, map[string]string{"image_key": imageKey})
}

// ReplyMedia replies with an uploaded video file.
func (c *Client) ReplyMedia(ctx context.Context, messageID, fileKey string) error {
	return c.reply(ctx, messageID, MsgTypeMedia, map[string]string{"file_key": fileKey})
}

func (c *Client) reply(ctx context.Context, messageID, msgType string, content any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("feishu: failed to marshal content: %w", err)
	}
	in := map[string]string{
		"msg_type": msgType,
		"content":  string(raw),
	}
	return c.doJSON(ctx, http.MethodPost, "/im/v1/messages/"+url.PathEscape(messageID)+"/reply", in, nil)
}

// UploadImage uploads image bytes for use in a message and returns the image key.
func (c *Client) UploadImage(ctx context.Context, data []byte) (string, error) {
	var out struct {
		ImageKey string `json:"image_key"`
	}
	err := c.upload(ctx, "/im/v1/images", map[string]string{"image_type": "message"}, "image", "image", data, &out)
	if err != nil {
		return "", err
	}
	return out.ImageKey, nil
}

// UploadVideo uploads an mp4 file and returns the file key. durationMS may be zero.
func (c *Client) UploadVideo(ctx context.Context, name string, data []byte, durationMS int) (string, error) {
	fields := map[string]string{
		"file_type": "mp4",
		"file_name": name,
	}
	if durationMS > 0 {
		fields["duration"] = strconv.Itoa(durationMS)
	}

	var out struct {
		FileKey string `json:"file_key"`
	}
	if err := c.upload(ctx, "/im/v1/files", fields, "file", name, data, &out); err != nil {
		return "", err
	}
	return out.FileKey, nil
}

func (c *Client) upload(ctx context.Context, path string, fields map[string]string, fileField, fileName string, data []byte, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("feishu: failed to write form: %w", err)
		}
	}
	part, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		return fmt.Errorf("feishu: failed to write form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("feishu: failed to write form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("feishu: failed to write form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, out)
}

// GetMessageResource downloads a file or image attached to a message.
// resourceType is "image" or "file".
func (c *Client) GetMessageResource(ctx context.Context, messageID, key, resourceType string) ([]byte, string, error) {
	path := fmt.Sprintf("/im/v1/messages/%s/resources/%s?type=%s",
		url.PathEscape(messageID), url.PathEscape(key), url.QueryEscape(resourceType))

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("feishu: failed to download resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("feishu: resource download failed %d: %s", resp.StatusCode, raw)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("feishu: failed to read resource: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}
