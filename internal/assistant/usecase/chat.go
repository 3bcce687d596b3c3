package usecase

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
)

// maxFetchConcurrency bounds parallel image downloads per message.
const maxFetchConcurrency = 4

func (uc *implUseCase) chat(ctx context.Context, m assistant.Messenger, ev model.Event, cc model.ConversationContext) error {
	resp, err := uc.llm.Invoke(ctx, &llmprovider.Request{
		Capability:        llmprovider.CapabilityChat,
		SystemInstruction: gemini.AssistantSystemPrompt,
		Text:              ev.Message.Text,
		PreviousToken:     cc.LastContinuationToken,
	})
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	uc.remember(ctx, ev.ConversationID, resp, nil)
	return m.ReplyText(ctx, ev.ReplyTo, textOr(resp.Text, assistant.ReplyEmptyAnswer))
}

func (uc *implUseCase) describeImage(ctx context.Context, m assistant.Messenger, ev model.Event, cc model.ConversationContext) error {
	images, err := uc.fetchImages(ctx, m, ev.Message.Images)
	if err != nil {
		uc.l.Warnf(ctx, "%s: fetch for description: %v", assistant.LogPrefixImage, err)
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyImageFetchFailed)
	}

	resp, err := uc.llm.Invoke(ctx, &llmprovider.Request{
		Capability:    llmprovider.CapabilityImageUnderstanding,
		Text:          gemini.DescribeImagePrompt,
		Images:        images,
		PreviousToken: cc.LastContinuationToken,
	})
	if err != nil {
		return fmt.Errorf("describe image: %w", err)
	}
	uc.remember(ctx, ev.ConversationID, resp, nil)
	return m.ReplyText(ctx, ev.ReplyTo, textOr(resp.Text, assistant.ReplyEmptyAnswer))
}

func (uc *implUseCase) synthesizeImage(ctx context.Context, m assistant.Messenger, ev model.Event, cc model.ConversationContext) error {
	images, err := uc.fetchImages(ctx, m, ev.Message.Images)
	if err != nil {
		uc.l.Warnf(ctx, "%s: fetch references: %v", assistant.LogPrefixImage, err)
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyImageFetchFailed)
	}
	return uc.generateImage(ctx, m, ev, cc, images)
}

// generateImage asks for an image, optionally grounded on reference images,
// and replies with every produced image followed by any accompanying text.
func (uc *implUseCase) generateImage(ctx context.Context, m assistant.Messenger, ev model.Event, cc model.ConversationContext, refs []llmprovider.Image) error {
	prompt := strings.TrimSpace(ev.Message.Text)
	if prompt == "" {
		prompt = gemini.CombineImagesPrompt
	}

	resp, err := uc.llm.Invoke(ctx, &llmprovider.Request{
		Capability:    llmprovider.CapabilityImageGeneration,
		Text:          prompt,
		Images:        refs,
		PreviousToken: cc.LastContinuationToken,
	})
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}

	if len(resp.Images) == 0 {
		uc.remember(ctx, ev.ConversationID, resp, nil)
		return m.ReplyText(ctx, ev.ReplyTo, textOr(resp.Text, assistant.ReplyImageFailed))
	}

	for _, img := range resp.Images {
		if err := m.ReplyImage(ctx, ev.ReplyTo, model.Image{Data: img.Data, MIMEType: img.MIMEType}); err != nil {
			return fmt.Errorf("reply image: %w", err)
		}
	}
	uc.remember(ctx, ev.ConversationID, resp, uc.archive(ctx, model.ArtifactImage, resp.Images[0].Data, resp.Images[0].MIMEType))

	if text := strings.TrimSpace(resp.Text); text != "" {
		return m.ReplyText(ctx, ev.ReplyTo, text)
	}
	return nil
}

// fetchImages downloads every referenced image concurrently, keeping order.
func (uc *implUseCase) fetchImages(ctx context.Context, m assistant.Messenger, refs []model.ImageRef) ([]llmprovider.Image, error) {
	if len(refs) == 0 {
		return nil, assistant.ErrNoImages
	}

	out := make([]llmprovider.Image, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			img, err := m.FetchImage(gctx, ref)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", ref.Key, err)
			}
			out[i] = llmprovider.Image{Data: img.Data, MIMEType: img.MIMEType}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// remember persists the new continuation token and artifact. A fallback
// answer carries no token and leaves the stored one untouched.
func (uc *implUseCase) remember(ctx context.Context, conversationID string, resp *llmprovider.Response, artifact *model.Artifact) {
	var patch model.ContextPatch
	if !resp.Fallback() {
		token := resp.Token
		patch.ContinuationToken = &token
	}
	patch.LastArtifact = artifact
	if patch.ContinuationToken == nil && patch.LastArtifact == nil {
		return
	}
	uc.store.Update(ctx, conversationID, patch)
}

// archive stores generated media when an artifact store is configured.
// Failures are logged and yield nil.
func (uc *implUseCase) archive(ctx context.Context, kind model.ArtifactKind, data []byte, mimeType string) *model.Artifact {
	if uc.artifacts == nil || len(data) == 0 {
		return nil
	}
	a, err := uc.artifacts.Put(ctx, kind, data, mimeType)
	if err != nil {
		uc.l.Warnf(ctx, "%s: archive %s: %v", assistant.LogPrefixImage, kind, err)
		return nil
	}
	return &a
}

func textOr(text, fallback string) string {
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	return fallback
}
