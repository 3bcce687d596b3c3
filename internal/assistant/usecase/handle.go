package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/internal/router"
)

// Handle runs the pipeline under the request budget. When it fails the user
// gets an apology sent on a fresh context.
func (uc *implUseCase) Handle(ctx context.Context, m assistant.Messenger, ev model.Event) {
	reqCtx, cancel := context.WithTimeout(ctx, uc.cfg.RequestTimeout)
	defer cancel()

	err := uc.handle(reqCtx, m, ev)
	if err == nil {
		return
	}
	uc.l.Errorf(ctx, "%s: event %s conversation %s: %v", assistant.LogPrefixHandle, ev.ID, ev.ConversationID, err)

	reply := assistant.ReplyRetry
	if errors.Is(err, context.DeadlineExceeded) {
		reply = assistant.ReplyTimeout
	}
	replyCtx, cancelReply := context.WithTimeout(context.WithoutCancel(ctx), assistant.DegradedReplyTimeout)
	defer cancelReply()
	if err := m.ReplyText(replyCtx, ev.ReplyTo, reply); err != nil {
		uc.l.Warnf(ctx, "%s: degraded reply failed: %v", assistant.LogPrefixHandle, err)
	}
}

func (uc *implUseCase) handle(ctx context.Context, m assistant.Messenger, ev model.Event) error {
	msg := ev.Message
	// Only /video takes an attached image.
	if cmd, arg, ok := parseCommand(msg.Text); ok && (len(msg.Images) == 0 || cmd == assistant.CommandVideo) {
		return uc.command(ctx, m, ev, cmd, arg)
	}

	cc := uc.store.Get(ctx, ev.ConversationID)
	d := uc.router.Route(msg)

	// A selection that also carries a table command is bound and then run.
	if len(msg.Images) == 0 && d.Route != router.RouteTableLink && awaitingTable(cc.Table) {
		if ref, ok := pickTable(cc.Table.Tables, msg.Text); ok {
			if d.Route == router.RouteTable {
				return uc.selectAndRun(ctx, m, ev, cc, ref)
			}
			return uc.selectTable(ctx, m, ev, cc.Table.AppToken, ref)
		}
	}

	uc.l.Debugf(ctx, "%s: event %s routed to %s", assistant.LogPrefixHandle, ev.ID, d.Route)

	switch d.Route {
	case router.RouteUnsupported:
		return m.ReplyText(ctx, ev.ReplyTo, assistant.UnsupportedReply(msg.RawType))
	case router.RouteImageUnderstanding:
		return uc.describeImage(ctx, m, ev, cc)
	case router.RouteImageSynthesis:
		return uc.synthesizeImage(ctx, m, ev, cc)
	case router.RouteTableLink:
		return uc.bindTable(ctx, m, ev, d.Link.AppToken, d.Link.TableID)
	case router.RouteTable:
		return uc.tableCommand(ctx, m, ev, cc)
	default:
		return uc.mediaOrChat(ctx, m, ev, cc)
	}
}

// mediaOrChat branches on the AI intent classification.
func (uc *implUseCase) mediaOrChat(ctx context.Context, m assistant.Messenger, ev model.Event, cc model.ConversationContext) error {
	if uc.router.ClassifyMedia(ctx, ev.Message.Text, cc.LastContinuationToken) == router.IntentImageGeneration {
		return uc.generateImage(ctx, m, ev, cc, nil)
	}
	return uc.chat(ctx, m, ev, cc)
}

func (uc *implUseCase) command(ctx context.Context, m assistant.Messenger, ev model.Event, cmd, arg string) error {
	switch cmd {
	case assistant.CommandHelp, assistant.CommandStart:
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyHelp)
	case assistant.CommandReset:
		uc.store.Reset(ctx, ev.ConversationID)
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyReset)
	case assistant.CommandVideo:
		return uc.generateVideo(ctx, m, ev, arg)
	case assistant.CommandExtend:
		return uc.extendVideo(ctx, m, ev, arg)
	}
	return nil
}

// parseCommand recognizes the built-in slash commands. Telegram's
// "/cmd@botname" form is accepted.
func parseCommand(text string) (cmd, arg string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text, " ")
	head, _, _ = strings.Cut(strings.ToLower(head), "@")
	switch head {
	case assistant.CommandHelp, assistant.CommandStart, assistant.CommandReset, assistant.CommandVideo, assistant.CommandExtend:
		return head, strings.TrimSpace(rest), true
	}
	return "", "", false
}
