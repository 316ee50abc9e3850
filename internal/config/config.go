package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// Config aggregates the settings of the widget client and the webhook server.
type Config struct {
	Widget  WidgetConfig  `toml:"widget" yaml:"widget" json:"widget"`
	Storage StorageConfig `toml:"storage" yaml:"storage" json:"storage"`
	Server  ServerConfig  `toml:"server" yaml:"server" json:"server"`
	AI      AIConfig      `toml:"ai" yaml:"ai" json:"ai"`
	Log     LogConfig     `toml:"log" yaml:"log" json:"log"`
}

// WidgetConfig holds the externally supplied widget overrides.
type WidgetConfig struct {
	WebhookURL       string `toml:"webhook_url" yaml:"webhook_url" json:"webhook_url" env:"BOTHIVE_WEBHOOK_URL"`
	Transport        string `toml:"transport" yaml:"transport" json:"transport" env:"BOTHIVE_TRANSPORT"`
	BotName          string `toml:"bot_name" yaml:"bot_name" json:"bot_name" env:"BOTHIVE_BOT_NAME"`
	BotTagline       string `toml:"bot_tagline" yaml:"bot_tagline" json:"bot_tagline" env:"BOTHIVE_BOT_TAGLINE"`
	WelcomeMessage   string `toml:"welcome_message" yaml:"welcome_message" json:"welcome_message" env:"BOTHIVE_WELCOME_MSG"`
	Placeholder      string `toml:"placeholder" yaml:"placeholder" json:"placeholder" env:"BOTHIVE_PLACEHOLDER"`
	StorageKey       string `toml:"storage_key" yaml:"storage_key" json:"storage_key" env:"BOTHIVE_STORAGE_KEY"`
	RequestTimeoutMS int    `toml:"request_timeout_ms" yaml:"request_timeout_ms" json:"request_timeout_ms" env:"BOTHIVE_REQUEST_TIMEOUT_MS"`
	MaxInputLength   int    `toml:"max_input_length" yaml:"max_input_length" json:"max_input_length" env:"BOTHIVE_MAX_INPUT_LENGTH"`
}

// RequestTimeout returns the configured timeout as a duration.
func (c WidgetConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// StorageConfig selects the key-value backend holding the session.
type StorageConfig struct {
	Driver string `toml:"driver" yaml:"driver" json:"driver" env:"BOTHIVE_STORAGE_DRIVER"`
	Path   string `toml:"path" yaml:"path" json:"path" env:"BOTHIVE_STORAGE_PATH"`
}

// ServerConfig describes the reference webhook server.
type ServerConfig struct {
	Port        string  `toml:"port" yaml:"port" json:"port" env:"PORT"`
	WebhookPath string  `toml:"webhook_path" yaml:"webhook_path" json:"webhook_path" env:"BOTHIVE_WEBHOOK_PATH"`
	RatePerSec  float64 `toml:"rate_per_sec" yaml:"rate_per_sec" json:"rate_per_sec" env:"BOTHIVE_RATE_PER_SEC"`
	RateBurst   int     `toml:"rate_burst" yaml:"rate_burst" json:"rate_burst" env:"BOTHIVE_RATE_BURST"`

	// Addr is derived from Port by Validate.
	Addr string `toml:"-" yaml:"-" json:"-"`
}

// AIConfig describes the ark chat model used by the webhook server.
type AIConfig struct {
	APIKey       string   `toml:"api_key" yaml:"api_key" json:"api_key" env:"ARK_API_KEY"`
	AccessKey    string   `toml:"access_key" yaml:"access_key" json:"access_key" env:"ARK_ACCESS_KEY"`
	SecretKey    string   `toml:"secret_key" yaml:"secret_key" json:"secret_key" env:"ARK_SECRET_KEY"`
	Model        string   `toml:"model" yaml:"model" json:"model" env:"ARK_MODEL"`
	BaseURL      string   `toml:"base_url" yaml:"base_url" json:"base_url" env:"ARK_BASE_URL"`
	Region       string   `toml:"region" yaml:"region" json:"region" env:"ARK_REGION"`
	Temperature  *float64 `toml:"temperature" yaml:"temperature" json:"temperature" env:"ARK_TEMPERATURE"`
	TopP         *float64 `toml:"top_p" yaml:"top_p" json:"top_p" env:"ARK_TOP_P"`
	MaxTokens    *int     `toml:"max_tokens" yaml:"max_tokens" json:"max_tokens" env:"ARK_MAX_TOKENS"`
	SystemPrompt string   `toml:"system_prompt" yaml:"system_prompt" json:"system_prompt" env:"BOTHIVE_SYSTEM_PROMPT"`
	HistoryLimit int      `toml:"history_limit" yaml:"history_limit" json:"history_limit" env:"BOTHIVE_HISTORY_LIMIT"`
}

// LogConfig controls the zerolog setup.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" yaml:"format" json:"format" env:"LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Widget: WidgetConfig{
			WebhookURL:       "http://localhost:8080/webhook/widgetreply",
			Transport:        "http",
			BotName:          "BotHive AI",
			BotTagline:       "Online · Typically replies instantly",
			WelcomeMessage:   "👋 Hi! I'm your AI assistant. How can I help you today?",
			Placeholder:      "Type your message…",
			StorageKey:       "bh_chat_session",
			RequestTimeoutMS: 20000,
			MaxInputLength:   2000,
		},
		Storage: StorageConfig{
			Driver: "file",
			Path:   defaultStoragePath(),
		},
		Server: ServerConfig{
			Port:        "8080",
			WebhookPath: "/webhook/widgetreply",
			RatePerSec:  1,
			RateBurst:   5,
		},
		AI: AIConfig{
			BaseURL:      "https://ark.cn-beijing.volces.com/api/v3",
			Region:       "cn-beijing",
			SystemPrompt: "You are BotHive AI, a friendly website assistant. Answer briefly and helpfully.",
			HistoryLimit: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, the optional file at path and
// finally the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate normalises derived fields and rejects unusable values.
func (c *Config) Validate() error {
	switch c.Widget.Transport {
	case "http", "ws":
	default:
		return fmt.Errorf("invalid BOTHIVE_TRANSPORT value %q: want http or ws", c.Widget.Transport)
	}
	if strings.TrimSpace(c.Widget.WebhookURL) == "" {
		return fmt.Errorf("invalid BOTHIVE_WEBHOOK_URL value %q: must not be empty", c.Widget.WebhookURL)
	}
	if c.Widget.RequestTimeoutMS <= 0 {
		return fmt.Errorf("invalid BOTHIVE_REQUEST_TIMEOUT_MS value %d: must be positive", c.Widget.RequestTimeoutMS)
	}
	if c.Widget.MaxInputLength <= 0 {
		return fmt.Errorf("invalid BOTHIVE_MAX_INPUT_LENGTH value %d: must be positive", c.Widget.MaxInputLength)
	}
	if c.AI.HistoryLimit < 1 {
		c.AI.HistoryLimit = 1
	}

	addr, err := listenAddr(c.Server.Port)
	if err != nil {
		return err
	}
	c.Server.Addr = addr
	if !strings.HasPrefix(c.Server.WebhookPath, "/") {
		return fmt.Errorf("invalid BOTHIVE_WEBHOOK_PATH value %q: must start with /", c.Server.WebhookPath)
	}
	return nil
}

// listenAddr turns PORT into a listen address.
func listenAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// allow ":8080" or "127.0.0.1:8080"
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bothive")
}

// Enabled reports whether credentials and a model were supplied.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates the ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_MODEL with ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}
