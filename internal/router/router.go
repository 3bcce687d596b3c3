package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/feishu"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
)

// Route decides the branch for msg. The first matching rule wins.
func (r *Router) Route(msg model.Message) Decision {
	text := strings.TrimSpace(msg.Text)

	switch {
	case len(msg.Images) == 1 && text == "":
		return Decision{Route: RouteImageUnderstanding}
	case len(msg.Images) > 0:
		return Decision{Route: RouteImageSynthesis}
	case text == "":
		return Decision{Route: RouteUnsupported}
	}

	if link, ok := feishu.ParseBitableLink(text); ok {
		return Decision{Route: RouteTableLink, Link: link}
	}

	lower := strings.ToLower(text)
	if containsAny(lower, r.vocab.Media) {
		return Decision{Route: RouteMedia}
	}
	if containsAny(lower, r.vocab.Table) {
		return Decision{Route: RouteTable}
	}
	return Decision{Route: RouteDefault}
}

// ClassifyMedia asks the AI chain whether text wants an image generated.
// Any failure falls back to casual. The returned token is never persisted.
func (r *Router) ClassifyMedia(ctx context.Context, text, previousToken string) MediaIntent {
	resp, err := r.llm.Invoke(ctx, &llmprovider.Request{
		Capability:        llmprovider.CapabilityIntent,
		SystemInstruction: gemini.IntentSystemPrompt,
		Text:              text,
		ResponseSchema:    gemini.IntentSchema,
		PreviousToken:     previousToken,
		Validate: func(resp *llmprovider.Response) error {
			_, err := parseIntent(resp.Text)
			return err
		},
	})
	if err != nil {
		r.l.Warnf(ctx, "%s: %s: %v", LogPrefixClassify, ErrMsgLLMCallFailed, err)
		return RouterFallbackIntent
	}

	intent, err := parseIntent(resp.Text)
	if err != nil {
		r.l.Warnf(ctx, "%s: %s: %v (raw=%q)", LogPrefixClassify, ErrMsgJSONParseFailed, err, resp.Text)
		return RouterFallbackIntent
	}

	r.l.Debugf(ctx, "%s: intent=%s provider=%s", LogPrefixClassify, intent, resp.Provider)
	return intent
}

func parseIntent(raw string) (MediaIntent, error) {
	var out ClassifierOutput
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &out); err != nil {
		return "", err
	}
	switch out.Intent {
	case IntentCasual, IntentImageGeneration:
		return out.Intent, nil
	default:
		return "", fmt.Errorf("unknown intent %q", out.Intent)
	}
}

// StripCodeFence removes a surrounding ```json fence some models add to JSON output.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
