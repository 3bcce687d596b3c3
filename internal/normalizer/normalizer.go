package normalizer

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

var (
	mentionPattern = regexp.MustCompile(`@_user_\d+`)
	spacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// StripMentions removes Feishu @_user_N placeholders and tidies whitespace.
func StripMentions(text string) string {
	text = mentionPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// FeishuContent turns a Feishu message content JSON string into the canonical message.
// Unparseable or unknown content yields a message with only RawType set.
func FeishuContent(messageType, content, messageID string) model.Message {
	msg := model.Message{RawType: messageType}
	if !gjson.Valid(content) {
		return msg
	}
	doc := gjson.Parse(content)

	switch messageType {
	case "text":
		msg.Text = StripMentions(doc.Get("text").String())
	case "image":
		if key := doc.Get("image_key").String(); key != "" {
			msg.Images = append(msg.Images, model.ImageRef{Key: key, MessageID: messageID})
		}
	case "post":
		msg.Text, msg.Images = parsePost(doc, messageID)
	}
	return msg
}

// parsePost flattens a rich text document. The body is either the bare
// {title, content} object or wrapped in a locale key such as zh_cn.
func parsePost(doc gjson.Result, messageID string) (string, []model.ImageRef) {
	body := doc
	if !doc.Get("content").Exists() {
		doc.ForEach(func(_, v gjson.Result) bool {
			if v.Get("content").Exists() {
				body = v
				return false
			}
			return true
		})
	}

	var (
		lines  []string
		images []model.ImageRef
	)
	if title := strings.TrimSpace(body.Get("title").String()); title != "" {
		lines = append(lines, title)
	}

	body.Get("content").ForEach(func(_, paragraph gjson.Result) bool {
		var sb strings.Builder
		paragraph.ForEach(func(_, el gjson.Result) bool {
			switch el.Get("tag").String() {
			case "text", "a":
				sb.WriteString(el.Get("text").String())
			case "img":
				if key := el.Get("image_key").String(); key != "" {
					images = append(images, model.ImageRef{Key: key, MessageID: messageID})
				}
			}
			return true
		})
		if line := StripMentions(sb.String()); line != "" {
			lines = append(lines, line)
		}
		return true
	})

	return strings.Join(lines, "\n"), images
}
