package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/bothive/internal/transport"
)

func wsServer(t *testing.T, respond func(conn *websocket.Conn, req transport.Request)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req transport.Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		respond(conn, req)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketTransportSuccess(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn, req transport.Request) {
		_ = conn.WriteJSON(map[string]string{"reply": "echo: " + req.Message})
	})

	reply, err := transport.NewWebSocketTransport(url, nil).Send(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, "echo: hi there", reply)
}

func TestWebSocketTransportClassification(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  error
	}{
		{"error frame", `{"error":"rate limited","status":429}`, transport.ErrServer},
		{"error frame without status", `{"error":"boom"}`, transport.ErrServer},
		{"not json", `hello`, transport.ErrMalformedResponse},
		{"blank reply", `{"reply":"  "}`, transport.ErrEmptyReply},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := wsServer(t, func(conn *websocket.Conn, _ transport.Request) {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(tc.frame))
			})

			_, err := transport.NewWebSocketTransport(url, nil).Send(context.Background(), sampleRequest())

			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestWebSocketTransportTimeout(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn, _ transport.Request) {
		// never answer; wait for the client to go away
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := transport.NewWebSocketTransport(url, nil).Send(ctx, sampleRequest())

	require.ErrorIs(t, err, transport.ErrTimeout)
}

func TestWebSocketTransportRejectedHandshake(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, err := transport.NewWebSocketTransport(url, nil).Send(context.Background(), sampleRequest())

	sendErr, ok := transport.AsSendError(err)
	require.True(t, ok)
	assert.Equal(t, transport.KindServer, sendErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, sendErr.Status)
}

func TestWebSocketTransportNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := transport.NewWebSocketTransport(url, nil).Send(context.Background(), sampleRequest())

	require.ErrorIs(t, err, transport.ErrNetwork)
}
