// Package transport carries one widget message to the remote webhook and
// classifies the outcome.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Request is the outbound payload.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

// Reply is the inbound payload.
type Reply struct {
	Reply string `json:"reply"`
}

// Transport sends a request and returns the reply text. Failures are *SendError.
type Transport interface {
	Send(ctx context.Context, req Request) (string, error)
}

// Names accepted by the widget configuration.
const (
	NameHTTP      = "http"
	NameWebSocket = "ws"
)

// classify maps a transport failure. A fired deadline wins over whatever
// the underlying call reported.
func classify(ctx context.Context, err error) *SendError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, err)
	}
	return newError(KindNetwork, err)
}

// decodeReply validates a response body and extracts the reply text.
func decodeReply(body []byte) (string, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", newError(KindMalformedResponse, fmt.Errorf("decode reply: %w", err))
	}
	if payload == nil {
		return "", newError(KindMalformedResponse, errors.New("reply body is null"))
	}

	raw, ok := payload["reply"]
	if !ok {
		return "", newError(KindEmptyReply, errors.New("reply field missing"))
	}
	var reply string
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", newError(KindEmptyReply, errors.New("reply field is not text"))
	}
	if strings.TrimSpace(reply) == "" {
		return "", newError(KindEmptyReply, errors.New("reply is blank"))
	}
	return reply, nil
}
