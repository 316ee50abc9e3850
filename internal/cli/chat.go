package cli

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/bothive/internal/config"
	"github.com/zhouzirui/bothive/internal/model/profile"
	"github.com/zhouzirui/bothive/internal/service/conversation"
	"github.com/zhouzirui/bothive/internal/transport"
	"github.com/zhouzirui/bothive/internal/widget"
)

func newChatCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "start an interactive conversation",
		Long: `Start an interactive conversation with the configured webhook.

Commands inside the chat:
  /history  show the stored conversation
  /session  show the session id
  /clear    forget the conversation and start over
  /quit     leave (Ctrl-D works too)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, f)
		},
	}
}

func runChat(cmd *cobra.Command, f *flags) error {
	ctx := cmd.Context()
	e, err := setup(ctx, f, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.Close()

	tr, err := newTransport(e.cfg.Widget)
	if err != nil {
		return err
	}

	var (
		in  widget.LineReader
		out io.Writer = cmd.OutOrStdout()
	)
	if widget.IsTerminal(cmd.InOrStdin()) {
		term, err := widget.NewTermReader("> ")
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		in, out = term, term.Writer()
	} else {
		// a UTF-8 rune takes at most 4 bytes
		in = widget.NewPipeReader(cmd.InOrStdin(), e.cfg.Widget.MaxInputLength*4+1)
	}
	defer in.Close()

	render := widget.NewRenderer(out, e.cfg.Widget.BotName)
	ctrl := conversation.New(ctx, e.store, tr,
		conversation.WithTimeout(e.cfg.Widget.RequestTimeout()),
		conversation.WithStateFunc(render.State),
	)
	return widget.New(ctrl, render, profile.FromConfig(e.cfg), e.cfg.Widget.MaxInputLength).Run(ctx, in)
}

// newTransport selects the wire protocol configured for the widget.
func newTransport(cfg config.WidgetConfig) (transport.Transport, error) {
	switch cfg.Transport {
	case transport.NameHTTP:
		return transport.NewHTTPTransport(cfg.WebhookURL, &http.Client{}), nil
	case transport.NameWebSocket:
		return transport.NewWebSocketTransport(cfg.WebhookURL, websocket.DefaultDialer), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
