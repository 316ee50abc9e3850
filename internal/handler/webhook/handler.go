package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/bothive/internal/model/chat"
	chatService "github.com/zhouzirui/bothive/internal/service/chat"
	"github.com/zhouzirui/bothive/internal/transport"
	"github.com/zhouzirui/bothive/pkg/utils"
)

// maxMessageLength mirrors the widget's input limit.
const maxMessageLength = 2000

// Responder produces the bot reply for a message.
type Responder interface {
	Reply(ctx context.Context, sessionID string, history []chat.Turn, message string) (string, error)
}

// Options tunes the webhook handler.
type Options struct {
	Path         string
	RatePerSec   float64
	RateBurst    int
	HistoryLimit int
}

// Handler serves the widget webhook over plain HTTP and websocket.
type Handler struct {
	chatSvc   *chatService.Service
	responder Responder
	limiter   *limiter
	opts      Options
	upgrader  websocket.Upgrader
	now       func() time.Time
}

// New creates the webhook handler.
func New(chatSvc *chatService.Service, responder Responder, opts Options) *Handler {
	if opts.Path == "" {
		opts.Path = "/webhook/widgetreply"
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	return &Handler{
		chatSvc:   chatSvc,
		responder: responder,
		limiter:   newLimiter(opts.RatePerSec, opts.RateBurst),
		opts:      opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		now: time.Now,
	}
}

// RegisterRoutes mounts the POST endpoint at the configured path and the
// websocket endpoint next to it.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post(h.opts.Path, h.handleReply)
	r.Get(wsPath(h.opts.Path), h.handleWebSocket)
}

// wsPath replaces the last path segment with "ws".
func wsPath(path string) string {
	if i := strings.LastIndex(path, "/"); i > 0 {
		return path[:i] + "/ws"
	}
	return "/ws"
}

// exchangeError carries the HTTP status for a failed exchange.
type exchangeError struct {
	status  int
	message string
}

func (e *exchangeError) Error() string {
	return e.message
}

func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var req transport.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.exchange(r.Context(), req)
	if err != nil {
		var exErr *exchangeError
		if errors.As(err, &exErr) {
			utils.RespondError(w, exErr.status, exErr.message)
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.RespondJSON(w, http.StatusOK, transport.Reply{Reply: reply})
}

// exchange validates one widget message, records it and generates the reply.
func (h *Handler) exchange(ctx context.Context, req transport.Request) (string, error) {
	message := strings.TrimSpace(req.Message)
	switch {
	case req.SessionID == "":
		return "", &exchangeError{http.StatusBadRequest, "sessionId is required"}
	case message == "":
		return "", &exchangeError{http.StatusBadRequest, "message is required"}
	case len([]rune(message)) > maxMessageLength:
		return "", &exchangeError{http.StatusRequestEntityTooLarge, "message is too long"}
	}

	if !h.limiter.Allow(req.SessionID) {
		return "", &exchangeError{http.StatusTooManyRequests, "too many messages, slow down"}
	}

	sentAt := h.now()
	if ts, err := time.Parse(time.RFC3339Nano, req.Timestamp); err == nil {
		sentAt = ts
	}

	history := h.chatSvc.Recent(ctx, req.SessionID, h.opts.HistoryLimit)
	if err := h.chatSvc.Append(ctx, req.SessionID, chat.NewTurn(chat.RoleUser, message, sentAt)); err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to record user turn")
	}

	reply, err := h.responder.Reply(ctx, req.SessionID, history, message)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("reply generation failed")
		return "", &exchangeError{http.StatusBadGateway, "reply generation failed"}
	}

	if err := h.chatSvc.Append(ctx, req.SessionID, chat.NewTurn(chat.RoleBot, reply, h.now())); err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("failed to record bot turn")
	}
	return reply, nil
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}

		var frame transport.Frame
		var req transport.Request
		if err := json.Unmarshal(data, &req); err != nil {
			frame = transport.Frame{Error: "invalid request body", Status: http.StatusBadRequest}
		} else if reply, err := h.exchange(r.Context(), req); err != nil {
			frame = transport.Frame{Error: "internal error", Status: http.StatusInternalServerError}
			var exErr *exchangeError
			if errors.As(err, &exErr) {
				frame = transport.Frame{Error: exErr.message, Status: exErr.status}
			}
		} else {
			frame = transport.Frame{Reply: &reply}
		}

		if err := conn.WriteJSON(frame); err != nil {
			log.Warn().Err(err).Msg("failed to write websocket frame")
			return
		}
	}
}
