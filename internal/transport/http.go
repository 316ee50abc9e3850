package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxReplyBytes bounds how much of a webhook response is read.
const maxReplyBytes = 1 << 20

// HTTPTransport posts requests to a webhook URL.
type HTTPTransport struct {
	url    string
	client *http.Client
}

// NewHTTPTransport returns a transport for url. A nil client uses http.DefaultClient;
// the deadline comes from the context passed to Send.
func NewHTTPTransport(url string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{url: url, client: client}
}

// Send posts req as JSON and extracts the reply.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", newError(KindNetwork, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxReplyBytes))
		return "", serverError(resp.StatusCode, fmt.Errorf("webhook responded %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", classify(ctx, fmt.Errorf("read reply: %w", err))
	}
	return decodeReply(data)
}

var _ Transport = (*HTTPTransport)(nil)
