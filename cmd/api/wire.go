package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/linusssssai/feishu-bot-vercel/config"
	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository/boltdb"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository/sqldb"
	"github.com/linusssssai/feishu-bot-vercel/pkg/artifact"
	"github.com/linusssssai/feishu-bot-vercel/pkg/feishu"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

// Session store drivers beside the SQL ones.
const (
	StoreDriverBolt   = "bolt"
	StoreDriverMemory = "memory"
)

type app struct {
	cfg *config.Config
	l   log.Logger
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	l := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})
	return &app{cfg: cfg, l: l}, nil
}

// openSessionRepository returns nil for the memory driver.
func openSessionRepository(ctx context.Context, cfg config.SessionStoreConfig, l log.Logger) (repository.Repository, error) {
	switch driver := strings.ToLower(cfg.Driver); driver {
	case "", StoreDriverMemory:
		return nil, nil
	case StoreDriverBolt:
		repo, err := boltdb.Open(cfg.Path, l)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case sqldb.DriverPostgres, sqldb.DriverMySQL, sqldb.DriverSQLite:
		repo, err := sqldb.Open(ctx, driver, cfg.DSN, l)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("session.store.driver: unknown driver %q", cfg.Driver)
	}
}

type aiClients struct {
	manager *llmprovider.Manager
	genai   gemini.IGenAI
}

func newAIClients(ctx context.Context, cfg *config.Config, l log.Logger) (*aiClients, error) {
	gcfg := gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		BaseURL:           cfg.Gemini.BaseURL,
		ChatModel:         cfg.Gemini.ChatModel,
		ImageModel:        cfg.Gemini.ImageModel,
		VideoModel:        cfg.Gemini.VideoModel,
		Timeout:           cfg.Gemini.Timeout,
		VideoPollInterval: cfg.Gemini.VideoPollInterval,
		VideoPollAttempts: cfg.Gemini.VideoPollAttempts,
	}

	interactions, err := gemini.NewInteractions(gcfg)
	if err != nil {
		return nil, err
	}
	genai, err := gemini.NewGenAI(ctx, gcfg, "")
	if err != nil {
		return nil, err
	}

	providers, err := llmprovider.InitializeProviders(&cfg.LLM, llmprovider.Clients{
		Interactions: interactions,
		GenAI:        genai,
		ImageModel:   cfg.Gemini.ImageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("llm providers: %w", err)
	}
	mcfg, err := llmprovider.ManagerConfig(&cfg.LLM)
	if err != nil {
		return nil, err
	}

	return &aiClients{
		manager: llmprovider.NewManager(providers, mcfg, l),
		genai:   genai,
	}, nil
}

// newFeishuClient returns nil when the app credentials are missing.
func newFeishuClient(cfg config.FeishuConfig) (*feishu.Client, error) {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil, nil
	}
	return feishu.New(feishu.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		BaseURL:   cfg.BaseURL,
	})
}

// newArtifactStore returns nil when archiving is disabled.
func newArtifactStore(ctx context.Context, cfg config.ArtifactConfig) (*artifact.Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return artifact.New(ctx, artifact.Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Prefix:          cfg.Prefix,
		UsePathStyle:    cfg.UsePathStyle,
	})
}

func conversationConfig(cfg config.SessionConfig) conversation.Config {
	return conversation.Config{
		TTL:          cfg.TTL,
		MaxSessions:  cfg.MaxSessions,
		RowTTL:       cfg.RowTTL,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func assistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		RequestTimeout:  cfg.Assistant.RequestTimeout,
		DefaultAppToken: cfg.Bitable.DefaultAppToken,
		DefaultTableID:  cfg.Bitable.DefaultTableID,
	}
}
