package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
)

// generateVideo runs a Veo job from a prompt, animating the first attached
// image when there is one.
func (uc *implUseCase) generateVideo(ctx context.Context, m assistant.Messenger, ev model.Event, prompt string) error {
	if prompt == "" {
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyVideoUsage)
	}
	if uc.video == nil {
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyVideoDisabled)
	}

	req := gemini.VideoRequest{Prompt: prompt}
	if len(ev.Message.Images) > 0 {
		img, err := m.FetchImage(ctx, ev.Message.Images[0])
		if err != nil {
			uc.l.Warnf(ctx, "%s: fetch still: %v", assistant.LogPrefixVideo, err)
			return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyImageFetchFailed)
		}
		req.Image = &gemini.Blob{Data: img.Data, MIMEType: img.MIMEType}
	}
	return uc.runVideo(ctx, m, ev, req)
}

// extendVideo continues the conversation's last video while the generator
// still holds it.
func (uc *implUseCase) extendVideo(ctx context.Context, m assistant.Messenger, ev model.Event, prompt string) error {
	if prompt == "" {
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyExtendUsage)
	}
	if uc.video == nil {
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyVideoDisabled)
	}
	last := uc.store.Get(ctx, ev.ConversationID).LastArtifact
	if !last.Extendable(time.Now()) {
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyNothingToExtend)
	}
	return uc.runVideo(ctx, m, ev, gemini.VideoRequest{Prompt: prompt, ExtendURI: last.SourceURI})
}

// runVideo runs one Veo job and replies with the result. The job can take
// minutes, so the user is told up front.
func (uc *implUseCase) runVideo(ctx context.Context, m assistant.Messenger, ev model.Event, req gemini.VideoRequest) error {
	if err := m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyVideoStarted); err != nil {
		uc.l.Warnf(ctx, "%s: progress reply: %v", assistant.LogPrefixVideo, err)
	}

	v, err := uc.video.GenerateVideo(ctx, req)
	if err != nil {
		uc.l.Errorf(ctx, "%s: conversation %s: %v", assistant.LogPrefixVideo, ev.ConversationID, err)
		if ctx.Err() != nil {
			return fmt.Errorf("generate video: %w", ctx.Err())
		}
		return m.ReplyText(ctx, ev.ReplyTo, videoFailure(err))
	}

	if err := m.ReplyVideo(ctx, ev.ReplyTo, model.Video{Data: v.Data, MIMEType: v.MIMEType, URI: v.URI}); err != nil {
		return fmt.Errorf("reply video: %w", err)
	}

	a := uc.archive(ctx, model.ArtifactVideo, v.Data, v.MIMEType)
	if a == nil && v.URI != "" {
		a = &model.Artifact{Kind: model.ArtifactVideo, CreatedAt: time.Now()}
	}
	if a != nil {
		a.SourceURI = v.URI
		uc.store.Update(ctx, ev.ConversationID, model.ContextPatch{LastArtifact: a})
	}
	return nil
}

func videoFailure(err error) string {
	if errors.Is(err, gemini.ErrVideoTimeout) {
		return assistant.ReplyTimeout
	}
	return assistant.ReplyVideoFailed
}
