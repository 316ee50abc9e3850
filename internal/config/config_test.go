package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/bothive/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "BotHive AI", cfg.Widget.BotName)
	assert.Equal(t, "bh_chat_session", cfg.Widget.StorageKey)
	assert.Equal(t, 20*time.Second, cfg.Widget.RequestTimeout())
	assert.Equal(t, 2000, cfg.Widget.MaxInputLength)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.AI.Enabled())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Widget.Transport)
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "widget.toml", `
[widget]
webhook_url = "https://hooks.example.com/widgetreply"
bot_name = "Helper"
request_timeout_ms = 5000

[storage]
driver = "sqlite"
path = "/tmp/widget.db"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/widgetreply", cfg.Widget.WebhookURL)
	assert.Equal(t, "Helper", cfg.Widget.BotName)
	assert.Equal(t, 5*time.Second, cfg.Widget.RequestTimeout())
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	// untouched keys keep their defaults
	assert.Equal(t, "Online · Typically replies instantly", cfg.Widget.BotTagline)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "widget.yaml", "widget:\n  transport: ws\n  webhook_url: ws://localhost:8080/webhook/ws\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws", cfg.Widget.Transport)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "widget.json", `{
  "widget": {"webhook_url": "https://hooks.example.com/json", "max_input_length": 500},
  "storage": {"driver": "memory"},
  "log": {"format": "json"}
}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/json", cfg.Widget.WebhookURL)
	assert.Equal(t, 500, cfg.Widget.MaxInputLength)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "BotHive AI", cfg.Widget.BotName)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "widget.toml", "[widget]\nbot_name = \"FromFile\"\n")
	t.Setenv("BOTHIVE_BOT_NAME", "FromEnv")
	t.Setenv("PORT", "127.0.0.1:9090")
	t.Setenv("ARK_MODEL", "doubao")
	t.Setenv("ARK_API_KEY", "secret")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "FromEnv", cfg.Widget.BotName)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"BOTHIVE_TRANSPORT":          "carrier-pigeon",
		"BOTHIVE_REQUEST_TIMEOUT_MS": "-1",
		"PORT":                       "80 80",
		"BOTHIVE_WEBHOOK_PATH":       "webhook",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := config.Load("")
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "widget.ini", "bot_name=x")
	_, err := config.Load(path)
	require.Error(t, err)
}
