package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	assistantUC "github.com/linusssssai/feishu-bot-vercel/internal/assistant/usecase"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	convUC "github.com/linusssssai/feishu-bot-vercel/internal/conversation/usecase"
	"github.com/linusssssai/feishu-bot-vercel/internal/dedup"
	"github.com/linusssssai/feishu-bot-vercel/internal/httpserver"
	"github.com/linusssssai/feishu-bot-vercel/internal/router"
	"github.com/linusssssai/feishu-bot-vercel/internal/webhook"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
	"github.com/linusssssai/feishu-bot-vercel/pkg/telegram"
)

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Configuration and logger
	a, err := bootstrap()
	if err != nil {
		return err
	}
	cfg, l := a.cfg, a.l

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info(ctx, "Starting feishu-bot...")
	l.Infof(ctx, "Environment: %s", cfg.Environment.Name)

	// 2. AI call chain
	ai, err := newAIClients(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("ai clients: %w", err)
	}

	vocab, err := router.LoadVocabulary(cfg.Router.KeywordsFile)
	if err != nil {
		return fmt.Errorf("router vocabulary: %w", err)
	}
	r := router.New(vocab, ai.manager, l)
	l.Infof(ctx, "Router vocabulary version %d loaded", r.Version())

	// 3. Artifact archive, optional
	var releaser conversation.Releaser
	var artifacts assistant.ArtifactStore
	archive, err := newArtifactStore(ctx, cfg.Artifact)
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}
	if archive != nil {
		releaser, artifacts = archive, archive
		l.Infof(ctx, "Artifacts archived to s3://%s/%s", cfg.Artifact.Bucket, cfg.Artifact.Prefix)
	}

	// 4. Continuation store
	repo, err := openSessionRepository(ctx, cfg.Session.Store, l)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	if repo != nil {
		defer repo.Close()
		l.Infof(ctx, "Session store: %s", cfg.Session.Store.Driver)
	} else {
		l.Warn(ctx, "Session store: memory only, continuations are lost on restart")
	}
	sessions := convUC.New(l, repo, releaser, conversationConfig(cfg.Session))

	// 5. Platforms
	var tables assistant.TableService
	var feishuMessenger, telegramMessenger assistant.Messenger

	fs, err := newFeishuClient(cfg.Feishu)
	if err != nil {
		return fmt.Errorf("feishu client: %w", err)
	}
	if fs != nil {
		tables = fs
		feishuMessenger = webhook.NewFeishuMessenger(fs)
		l.Info(ctx, "Feishu enabled")
	} else {
		l.Warn(ctx, "Feishu skipped: FEISHU_APP_ID or FEISHU_APP_SECRET is missing")
	}

	if cfg.Telegram.BotToken != "" {
		bot := telegram.NewBot(cfg.Telegram.BotToken)
		telegramMessenger = webhook.NewTelegramMessenger(bot)
		go registerTelegramWebhook(ctx, l, bot, cfg.Telegram.WebhookURL)
		l.Info(ctx, "Telegram enabled")
	} else {
		l.Warn(ctx, "Telegram skipped: TELEGRAM_BOT_TOKEN is missing")
	}

	// 6. Pipeline
	uc := assistantUC.New(l, ai.manager, r, sessions, tables, ai.genai, artifacts, assistantConfig(cfg))

	d, err := dedup.New(cfg.Dedup.Capacity)
	if err != nil {
		return fmt.Errorf("dedup: %w", err)
	}

	security := webhook.SecurityConfig{
		VerificationToken: cfg.Feishu.VerificationToken,
		EncryptKey:        cfg.Feishu.EncryptKey,
	}
	if cfg.Webhook.Enabled {
		security.AllowedIPs = cfg.Webhook.AllowedIPs
		security.RateLimitPerMin = cfg.Webhook.RateLimitPerMin
	}
	handler := webhook.NewHandler(uc, security, d, feishuMessenger, telegramMessenger, l)

	// 7. HTTP server
	srv, err := httpserver.New(l, httpserver.Config{
		Logger:          l,
		Port:            cfg.HTTPServer.Port,
		Mode:            cfg.HTTPServer.Mode,
		Environment:     cfg.Environment.Name,
		AdminKey:        cfg.HTTPServer.AdminKey,
		ShutdownTimeout: cfg.HTTPServer.ShutdownTimeout,
		WebhookHandler:  handler,
		Sessions:        sessions,
	})
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	// 8. Run until signalled
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return sessions.Run(gctx, cfg.Session.CleanupInterval) })

	err = g.Wait()

	// Let accepted events finish replying, then flush their session writes.
	drainTimeout := cfg.HTTPServer.ShutdownTimeout
	if drainTimeout <= 0 {
		drainTimeout = httpserver.DefaultShutdownTimeout
	}
	drainCtx, cancelDrain := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancelDrain()
	if derr := drain(drainCtx, handler.Wait, sessions.Wait); derr != nil {
		l.Warnf(ctx, "Abandoned in-flight pipelines after %s: %v", drainTimeout, derr)
	}

	if err != nil {
		l.Errorf(ctx, "Server stopped: %v", err)
		return err
	}
	l.Info(ctx, "Server stopped gracefully")
	return nil
}

// drain runs each wait in order and gives up when ctx is done.
func drain(ctx context.Context, waits ...func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, wait := range waits {
			wait()
		}
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// registerTelegramWebhook points the bot at the configured URL, or at the
// local ngrok tunnel when none is set.
func registerTelegramWebhook(ctx context.Context, l log.Logger, bot *telegram.Bot, webhookURL string) {
	if webhookURL == "" {
		ngrokURL, err := detectNgrokURL(ctx, ngrokAPIBase)
		if err != nil {
			l.Warnf(ctx, "Could not detect ngrok URL: %v", err)
			return
		}
		webhookURL = ngrokURL + "/webhook/telegram"
		l.Infof(ctx, "Auto-detected ngrok URL: %s", webhookURL)
	}

	if err := bot.SetWebhook(ctx, webhookURL); err != nil {
		l.Warnf(ctx, "Failed to set Telegram webhook: %v", err)
		return
	}
	l.Infof(ctx, "Telegram webhook registered at %s", webhookURL)
}
