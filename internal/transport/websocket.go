package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is what the webhook sends back over a websocket: either a reply or
// an error with the HTTP-equivalent status.
type Frame struct {
	Reply  *string `json:"reply,omitempty"`
	Error  string  `json:"error,omitempty"`
	Status int     `json:"status,omitempty"`
}

// WebSocketTransport exchanges one request/reply pair per send over a fresh connection.
type WebSocketTransport struct {
	url    string
	dialer *websocket.Dialer
}

// NewWebSocketTransport returns a transport for a ws:// or wss:// url.
func NewWebSocketTransport(url string, dialer *websocket.Dialer) *WebSocketTransport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &WebSocketTransport{url: url, dialer: dialer}
}

// Send dials, writes req as a JSON text frame and waits for the reply frame.
func (t *WebSocketTransport) Send(ctx context.Context, req Request) (string, error) {
	conn, resp, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		if resp != nil && ctx.Err() == nil {
			return "", serverError(resp.StatusCode, fmt.Errorf("websocket handshake: %w", err))
		}
		return "", classify(ctx, err)
	}
	defer conn.Close()

	// Reads and writes do not observe ctx, so closing the connection unblocks them.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteJSON(req); err != nil {
		return "", classify(ctx, fmt.Errorf("write request: %w", err))
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		if isTimeout(err) {
			return "", newError(KindTimeout, err)
		}
		return "", classify(ctx, fmt.Errorf("read reply: %w", err))
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	var frame Frame
	if err := json.Unmarshal(data, &frame); err == nil && frame.Reply == nil && (frame.Error != "" || frame.Status != 0) {
		status := frame.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return "", serverError(status, errors.New(frame.Error))
	}
	return decodeReply(data)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Transport = (*WebSocketTransport)(nil)
