// Package cli implements the widget command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/bothive/internal/config"
	"github.com/zhouzirui/bothive/internal/service/session"
	"github.com/zhouzirui/bothive/internal/storage"
	"github.com/zhouzirui/bothive/pkg/logger"
)

// flags shared by every subcommand; empty means "keep the configured value".
type flags struct {
	configPath  string
	webhook     string
	transport   string
	storage     string
	storagePath string
	logLevel    string
}

// NewRootCommand builds the widget command tree. Running it without a
// subcommand starts the chat.
func NewRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "widget",
		Short: "BotHive chat widget for the terminal",
		Long: `Chat with a BotHive webhook from the terminal. The conversation is kept
in local storage and restored on the next start.`,
		Example: `  # Chat with a local webhook server
  $ widget --webhook http://localhost:8080/webhook/widgetreply

  # Use the websocket endpoint and a sqlite store
  $ widget chat --transport ws --webhook ws://localhost:8080/webhook/ws --storage sqlite

  # Show or discard the stored conversation
  $ widget history
  $ widget clear`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, f)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (.toml, .yaml or .json)")
	pf.StringVar(&f.webhook, "webhook", "", "webhook URL")
	pf.StringVar(&f.transport, "transport", "", "transport: http or ws")
	pf.StringVar(&f.storage, "storage", "", "storage driver: file, sqlite or memory")
	pf.StringVar(&f.storagePath, "storage-path", "", "storage directory or database file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newChatCommand(f),
		newHistoryCommand(f),
		newClearCommand(f),
		newSessionCommand(f),
	)
	return root
}

// Execute runs the widget command line until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// env is what every subcommand needs: configuration plus the opened store.
type env struct {
	cfg   *config.Config
	kv    storage.KV
	store *session.Store
}

func (e *env) Close() error {
	return storage.Close(e.kv)
}

func setup(ctx context.Context, f *flags, logOut io.Writer) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Log, logOut); err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		// the widget keeps working, it just forgets the conversation on exit
		log.Warn().Err(err).
			Str("driver", cfg.Storage.Driver).
			Str("path", cfg.Storage.Path).
			Msg("storage unavailable, keeping the session in memory only")
		kv = storage.NewMemory()
	}
	return &env{
		cfg:   cfg,
		kv:    kv,
		store: session.NewStore(kv, cfg.Widget.StorageKey),
	}, nil
}

func (f *flags) apply(cfg *config.Config) {
	if f.webhook != "" {
		cfg.Widget.WebhookURL = f.webhook
	}
	if f.transport != "" {
		cfg.Widget.Transport = f.transport
	}
	if f.storage != "" {
		cfg.Storage.Driver = f.storage
	}
	if f.storagePath != "" {
		cfg.Storage.Path = f.storagePath
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
}
