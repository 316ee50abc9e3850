// Package widget is the terminal front-end of the chat widget.
package widget

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/bothive/internal/model/chat"
	"github.com/zhouzirui/bothive/internal/model/profile"
	"github.com/zhouzirui/bothive/internal/service/conversation"
	"github.com/zhouzirui/bothive/internal/transport"
)

// DefaultMaxInput is the longest message accepted at the input boundary.
const DefaultMaxInput = 2000

// Widget wires user input to the conversation controller and renders results.
type Widget struct {
	ctrl     *conversation.Controller
	render   *Renderer
	profile  profile.Profile
	maxInput int
}

// New returns a widget; maxInput <= 0 selects DefaultMaxInput.
func New(ctrl *conversation.Controller, render *Renderer, p profile.Profile, maxInput int) *Widget {
	if maxInput <= 0 {
		maxInput = DefaultMaxInput
	}
	return &Widget{ctrl: ctrl, render: render, profile: p, maxInput: maxInput}
}

// Start renders the header followed by the restored history or the welcome message.
func (w *Widget) Start() {
	w.render.Header(w.profile)

	sess := w.ctrl.Session()
	if w.ctrl.Restored() && len(sess.History) > 0 {
		w.render.System("Previous conversation restored")
		for _, turn := range sess.History {
			w.render.Turn(turn)
		}
		return
	}
	w.welcome()
}

// Run reads lines until EOF, /quit or ctx cancellation.
func (w *Widget) Run(ctx context.Context, in LineReader) error {
	w.Start()
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if quit := w.Handle(ctx, line); quit {
			return nil
		}
	}
}

// Handle processes one input line and reports whether the user asked to quit.
func (w *Widget) Handle(ctx context.Context, line string) bool {
	switch strings.TrimSpace(line) {
	case "/quit", "/exit":
		return true
	case "/clear":
		if err := w.ctrl.Reset(ctx); err != nil {
			log.Warn().Err(err).Msg("reset did not clear storage")
		}
		w.render.System("Conversation cleared")
		w.welcome()
		return false
	case "/history":
		sess := w.ctrl.Session()
		if len(sess.History) == 0 {
			w.render.System("No messages yet")
		}
		for _, turn := range sess.History {
			w.render.Turn(turn)
		}
		return false
	case "/session":
		w.render.System("Session " + w.ctrl.Session().SessionID)
		return false
	case "/help":
		w.render.System("Commands: /history /session /clear /quit")
		return false
	}

	text := conversation.Sanitize(truncate(line, w.maxInput))
	if text == "" {
		return false
	}

	// shown before the request goes out; the controller persists the same turn
	w.render.Turn(chat.NewTurn(chat.RoleUser, text, time.Now()))

	bot, err := w.ctrl.Send(ctx, text)
	if err != nil {
		w.render.Warning(userMessage(err))
		return false
	}
	if bot != nil {
		w.render.Turn(*bot)
	}
	return false
}

func (w *Widget) welcome() {
	if w.profile.Welcome != "" {
		w.render.Turn(welcomeTurn(w.profile.Welcome))
	}
}

// welcomeTurn is rendered like a bot turn but never enters the session.
func welcomeTurn(text string) chat.Turn {
	return chat.Turn{Role: chat.RoleBot, Text: text, Time: time.Now()}
}

func userMessage(err error) string {
	if sendErr, ok := transport.AsSendError(err); ok {
		return sendErr.UserMessage()
	}
	if errors.Is(err, conversation.ErrSendInProgress) {
		return "Please wait for the current reply."
	}
	return "Something went wrong. Please try again."
}

// truncate caps s at max runes, like a maxlength attribute.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
