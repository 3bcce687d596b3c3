package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// Environment
	Environment EnvironmentConfig

	// Server
	HTTPServer HTTPServerConfig
	Logger     LoggerConfig

	// Platforms
	Feishu   FeishuConfig
	Telegram TelegramConfig

	// AI
	Gemini GeminiConfig
	LLM    LLMConfig

	// Conversation pipeline
	Session   SessionConfig
	Dedup     DedupConfig
	Bitable   BitableConfig
	Router    RouterConfig
	Artifact  ArtifactConfig
	Assistant AssistantConfig

	// Webhooks
	Webhook WebhookConfig
}

type EnvironmentConfig struct {
	Name string
}

type HTTPServerConfig struct {
	Port            int
	Mode            string
	AdminKey        string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

type FeishuConfig struct {
	AppID             string
	AppSecret         string
	VerificationToken string
	EncryptKey        string
	BaseURL           string
}

type TelegramConfig struct {
	BotToken   string
	WebhookURL string
}

type GeminiConfig struct {
	APIKey            string
	BaseURL           string
	ChatModel         string
	ImageModel        string
	VideoModel        string
	Timeout           time.Duration
	VideoPollInterval time.Duration
	VideoPollAttempts int
}

// LLMConfig holds configuration for the primary/fallback AI call chain
type LLMConfig struct {
	Providers       []ProviderConfig `yaml:"providers"`
	FallbackEnabled bool             `yaml:"fallback_enabled"`
	MaxTotalTimeout string           `yaml:"max_total_timeout"`
}

// ProviderConfig holds configuration for a single AI call path
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// SessionStoreConfig selects the durable conversation store.
// Driver is one of postgres, mysql, sqlite, bolt or memory.
type SessionStoreConfig struct {
	Driver string
	DSN    string
	Path   string
}

type SessionConfig struct {
	TTL             time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
	RowTTL          time.Duration
	WriteTimeout    time.Duration
	Store           SessionStoreConfig
}

type DedupConfig struct {
	Capacity int
}

// BitableConfig holds the optional default table used before a link is shared.
type BitableConfig struct {
	DefaultAppToken string
	DefaultTableID  string
}

type RouterConfig struct {
	KeywordsFile string
}

// ArtifactConfig configures the S3-compatible archive for generated media.
type ArtifactConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

type AssistantConfig struct {
	RequestTimeout time.Duration
}

type WebhookConfig struct {
	Enabled         bool
	AllowedIPs      []string
	RateLimitPerMin int
}

// Load loads configuration using Viper.
// A .env file in the working directory is applied to the environment first.
// Config file name: config.yaml, searched in ./config, ., /etc/app/
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/app/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	// Environment & Server
	cfg.Environment.Name = viper.GetString("environment.name")
	cfg.HTTPServer.Port = viper.GetInt("http_server.port")
	cfg.HTTPServer.Mode = viper.GetString("http_server.mode")
	cfg.HTTPServer.AdminKey = expandEnvVar(viper.GetString("http_server.admin_key"))
	cfg.HTTPServer.ShutdownTimeout = viper.GetDuration("http_server.shutdown_timeout")
	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	// Feishu
	cfg.Feishu.AppID = firstNonEmpty(viper.GetString("feishu.app_id"), os.Getenv("FEISHU_APP_ID"))
	cfg.Feishu.AppSecret = firstNonEmpty(viper.GetString("feishu.app_secret"), os.Getenv("FEISHU_APP_SECRET"))
	cfg.Feishu.VerificationToken = firstNonEmpty(viper.GetString("feishu.verification_token"), os.Getenv("FEISHU_VERIFICATION_TOKEN"))
	cfg.Feishu.EncryptKey = firstNonEmpty(viper.GetString("feishu.encrypt_key"), os.Getenv("FEISHU_ENCRYPT_KEY"))
	cfg.Feishu.BaseURL = viper.GetString("feishu.base_url")

	// Telegram
	cfg.Telegram.BotToken = viper.GetString("telegram.bot_token")
	cfg.Telegram.WebhookURL = viper.GetString("telegram.webhook_url")
	if tgToken := viper.GetString("telegram_bot_token"); tgToken != "" {
		cfg.Telegram.BotToken = tgToken
	}

	// Gemini
	cfg.Gemini.APIKey = expandEnvVar(viper.GetString("gemini.api_key"))
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	cfg.Gemini.BaseURL = viper.GetString("gemini.base_url")
	cfg.Gemini.ChatModel = viper.GetString("gemini.chat_model")
	cfg.Gemini.ImageModel = viper.GetString("gemini.image_model")
	cfg.Gemini.VideoModel = viper.GetString("gemini.video_model")
	cfg.Gemini.Timeout = viper.GetDuration("gemini.timeout")
	cfg.Gemini.VideoPollInterval = viper.GetDuration("gemini.video_poll_interval")
	cfg.Gemini.VideoPollAttempts = viper.GetInt("gemini.video_poll_attempts")

	// AI call chain
	cfg.LLM.FallbackEnabled = viper.GetBool("llm.fallback_enabled")
	cfg.LLM.MaxTotalTimeout = viper.GetString("llm.max_total_timeout")
	if viper.IsSet("llm.providers") {
		if providersList, ok := viper.Get("llm.providers").([]interface{}); ok {
			for _, p := range providersList {
				if providerMap, ok := p.(map[string]interface{}); ok {
					cfg.LLM.Providers = append(cfg.LLM.Providers, ProviderConfig{
						Name:     getStringFromMap(providerMap, "name"),
						Enabled:  getBoolFromMap(providerMap, "enabled"),
						Priority: getIntFromMap(providerMap, "priority"),
						Model:    getStringFromMap(providerMap, "model"),
						Timeout:  getStringFromMap(providerMap, "timeout"),
					})
				}
			}
		}
	}
	if len(cfg.LLM.Providers) == 0 {
		cfg.LLM.Providers = defaultProviders()
	}
	if err := validateLLMConfig(&cfg.LLM); err != nil {
		return nil, err
	}

	// Conversation pipeline
	cfg.Session.TTL = viper.GetDuration("session.ttl")
	cfg.Session.MaxSessions = viper.GetInt("session.max_sessions")
	cfg.Session.CleanupInterval = viper.GetDuration("session.cleanup_interval")
	cfg.Session.RowTTL = viper.GetDuration("session.row_ttl")
	cfg.Session.WriteTimeout = viper.GetDuration("session.write_timeout")
	cfg.Session.Store.Driver = viper.GetString("session.store.driver")
	cfg.Session.Store.DSN = expandEnvVar(viper.GetString("session.store.dsn"))
	cfg.Session.Store.Path = viper.GetString("session.store.path")

	cfg.Dedup.Capacity = viper.GetInt("dedup.capacity")

	cfg.Bitable.DefaultAppToken = viper.GetString("bitable.default_app_token")
	cfg.Bitable.DefaultTableID = viper.GetString("bitable.default_table_id")

	cfg.Router.KeywordsFile = viper.GetString("router.keywords_file")

	cfg.Artifact.Enabled = viper.GetBool("artifact.enabled")
	cfg.Artifact.Bucket = viper.GetString("artifact.bucket")
	cfg.Artifact.Region = viper.GetString("artifact.region")
	cfg.Artifact.Endpoint = viper.GetString("artifact.endpoint")
	cfg.Artifact.AccessKeyID = expandEnvVar(viper.GetString("artifact.access_key_id"))
	cfg.Artifact.SecretAccessKey = expandEnvVar(viper.GetString("artifact.secret_access_key"))
	cfg.Artifact.Prefix = viper.GetString("artifact.prefix")
	cfg.Artifact.UsePathStyle = viper.GetBool("artifact.use_path_style")

	cfg.Assistant.RequestTimeout = viper.GetDuration("assistant.request_timeout")

	// Webhooks
	cfg.Webhook.Enabled = viper.GetBool("webhook.enabled")
	cfg.Webhook.RateLimitPerMin = viper.GetInt("webhook.rate_limit_per_min")

	// Split allowed IPs since viper might not parse array seamlessly from env
	var ips []string
	if rawIps := viper.GetString("webhook.allowed_ips"); rawIps != "" {
		for _, ip := range strings.Split(rawIps, ",") {
			ip = strings.TrimSpace(ip)
			if ip != "" {
				ips = append(ips, ip)
			}
		}
	}
	cfg.Webhook.AllowedIPs = ips

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("environment.name", "development")
	viper.SetDefault("http_server.port", 8080)
	viper.SetDefault("http_server.mode", "debug")
	viper.SetDefault("http_server.shutdown_timeout", "15s")
	viper.SetDefault("logger.level", "debug")
	viper.SetDefault("logger.mode", "debug")
	viper.SetDefault("logger.encoding", "console")
	viper.SetDefault("logger.color_enabled", true)

	viper.SetDefault("feishu.base_url", "https://open.feishu.cn/open-apis")

	viper.SetDefault("gemini.timeout", "60s")
	viper.SetDefault("gemini.video_poll_interval", "10s")
	viper.SetDefault("gemini.video_poll_attempts", 36)

	viper.SetDefault("llm.fallback_enabled", true)
	viper.SetDefault("llm.max_total_timeout", "90s")

	viper.SetDefault("session.ttl", "24h")
	viper.SetDefault("session.max_sessions", 10000)
	viper.SetDefault("session.cleanup_interval", "10m")
	viper.SetDefault("session.row_ttl", "24h")
	viper.SetDefault("session.write_timeout", "10s")
	viper.SetDefault("session.store.driver", "sqlite")
	viper.SetDefault("session.store.dsn", "file:sessions.db?_pragma=busy_timeout(5000)")
	viper.SetDefault("session.store.path", "sessions.bolt")

	viper.SetDefault("dedup.capacity", 1000)

	viper.SetDefault("artifact.enabled", false)
	viper.SetDefault("artifact.region", "us-east-1")
	viper.SetDefault("artifact.prefix", "artifacts/")

	viper.SetDefault("assistant.request_timeout", "8m")

	viper.SetDefault("webhook.rate_limit_per_min", 60)
	viper.SetDefault("webhook.enabled", true)
}

// defaultProviders is the Interactions primary with the genai SDK fallback.
func defaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "interactions", Enabled: true, Priority: 1, Timeout: "45s"},
		{Name: "genai", Enabled: true, Priority: 2, Timeout: "45s"},
	}
}

// expandEnvVar expands environment variables in the format ${VAR_NAME}
func expandEnvVar(value string) string {
	if value == "" {
		return value
	}

	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		envVar := value[2 : len(value)-1]
		if envValue := viper.GetString(envVar); envValue != "" {
			return envValue
		}
		if envValue := viper.GetString(strings.ToLower(envVar)); envValue != "" {
			return envValue
		}
		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
	}

	return value
}

// validateLLMConfig validates the AI call chain configuration
func validateLLMConfig(cfg *LLMConfig) error {
	enabledCount := 0
	priorityMap := make(map[int]bool)

	for i, provider := range cfg.Providers {
		if provider.Name == "" {
			return fmt.Errorf("provider %d: name is required", i)
		}
		if !provider.Enabled {
			continue
		}
		enabledCount++

		if provider.Priority <= 0 {
			return fmt.Errorf("provider %s: priority must be positive", provider.Name)
		}
		if priorityMap[provider.Priority] {
			return fmt.Errorf("provider %s: duplicate priority %d", provider.Name, provider.Priority)
		}
		priorityMap[provider.Priority] = true

		if provider.Timeout != "" {
			if _, err := time.ParseDuration(provider.Timeout); err != nil {
				return fmt.Errorf("provider %s: invalid timeout %q", provider.Name, provider.Timeout)
			}
		}
	}

	if enabledCount == 0 {
		return fmt.Errorf("no enabled LLM providers")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Helper functions to safely extract values from map[string]interface{}
func getStringFromMap(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getBoolFromMap(m map[string]interface{}, key string) bool {
	if val, ok := m[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

func getIntFromMap(m map[string]interface{}, key string) int {
	if val, ok := m[key]; ok {
		if i, ok := val.(int); ok {
			return i
		}
		if f, ok := val.(float64); ok {
			return int(f)
		}
	}
	return 0
}
