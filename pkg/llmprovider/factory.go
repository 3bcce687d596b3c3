package llmprovider

import (
	"fmt"
	"sort"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/config"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
)

// Clients are the concrete API clients adapters are built on.
type Clients struct {
	Interactions gemini.IInteractions
	GenAI        gemini.IGenAI
	ImageModel   string
}

// InitializeProviders creates Provider instances from config.LLMConfig.
// Returns providers sorted by priority (ascending) with disabled providers filtered out.
func InitializeProviders(cfg *config.LLMConfig, clients Clients) ([]Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("LLM config is nil")
	}

	var enabled []config.ProviderConfig
	for _, p := range cfg.Providers {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	if len(enabled) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})

	providers := make([]Provider, 0, len(enabled))
	for _, p := range enabled {
		provider, err := createProvider(p, clients)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

// ManagerConfig derives the chain timeouts. The primary timeout is the
// timeout of the highest-priority enabled provider.
func ManagerConfig(cfg *config.LLMConfig) (*Config, error) {
	out := &Config{FallbackEnabled: cfg.FallbackEnabled}

	var err error
	if out.MaxTotalTimeout, err = parseDuration(cfg.MaxTotalTimeout); err != nil {
		return nil, fmt.Errorf("llm.max_total_timeout: %w", err)
	}

	best := -1
	for i, p := range cfg.Providers {
		if p.Enabled && (best < 0 || p.Priority < cfg.Providers[best].Priority) {
			best = i
		}
	}
	if best >= 0 {
		if out.PrimaryTimeout, err = parseDuration(cfg.Providers[best].Timeout); err != nil {
			return nil, fmt.Errorf("provider %s timeout: %w", cfg.Providers[best].Name, err)
		}
	}
	return out, nil
}

// createProvider creates a concrete provider instance based on the provider config
func createProvider(cfg config.ProviderConfig, clients Clients) (Provider, error) {
	switch cfg.Name {
	case ProviderInteractions:
		if clients.Interactions == nil {
			return nil, fmt.Errorf("provider %s: client not available", cfg.Name)
		}
		return NewInteractionsAdapter(clients.Interactions, cfg.Model, clients.ImageModel), nil

	case ProviderGenAI:
		if clients.GenAI == nil {
			return nil, fmt.Errorf("provider %s: client not available", cfg.Name)
		}
		return NewGenAIAdapter(clients.GenAI, cfg.Model), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Name)
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
