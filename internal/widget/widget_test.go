package widget_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/bothive/internal/model/chat"
	"github.com/zhouzirui/bothive/internal/model/profile"
	"github.com/zhouzirui/bothive/internal/service/conversation"
	"github.com/zhouzirui/bothive/internal/service/session"
	"github.com/zhouzirui/bothive/internal/storage"
	"github.com/zhouzirui/bothive/internal/transport"
	"github.com/zhouzirui/bothive/internal/widget"
)

type stubTransport struct {
	reply    string
	err      error
	onSend   func()
	requests []transport.Request
}

func (s *stubTransport) Send(_ context.Context, req transport.Request) (string, error) {
	s.requests = append(s.requests, req)
	if s.onSend != nil {
		s.onSend()
	}
	return s.reply, s.err
}

var testProfile = profile.Profile{
	Name:    "BotHive AI",
	Tagline: "Your intelligent assistant",
	Welcome: "Hello! How can I help you today?",
}

type harness struct {
	out   *bytes.Buffer
	store *session.Store
	ctrl  *conversation.Controller
	w     *widget.Widget
}

func newHarness(t *testing.T, kv storage.KV, tr transport.Transport) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	render := widget.NewRenderer(out, testProfile.Name)
	store := session.NewStore(kv, session.DefaultKey)
	ctrl := conversation.New(context.Background(), store, tr, conversation.WithStateFunc(render.State))
	return &harness{out: out, store: store, ctrl: ctrl, w: widget.New(ctrl, render, testProfile, 0)}
}

func run(t *testing.T, h *harness, input string) {
	t.Helper()
	in := widget.NewPipeReader(strings.NewReader(input), 4*widget.DefaultMaxInput)
	require.NoError(t, h.w.Run(context.Background(), in))
}

func TestRunFreshSessionShowsWelcomeAndReply(t *testing.T) {
	tr := &stubTransport{reply: "Hi! How can I help?"}
	h := newHarness(t, storage.NewMemory(), tr)

	run(t, h, "  hi   there \n/quit\nignored\n")

	out := h.out.String()
	assert.Contains(t, out, "BotHive AI")
	assert.Contains(t, out, "Your intelligent assistant")
	assert.Contains(t, out, testProfile.Welcome)
	assert.Contains(t, out, "hi there")
	assert.Contains(t, out, "BotHive AI is typing…")
	assert.Contains(t, out, "Hi! How can I help?")
	assert.NotContains(t, out, "Previous conversation restored")

	require.Len(t, tr.requests, 1)
	history := h.ctrl.Session().History
	require.Len(t, history, 2)
	assert.Equal(t, "hi there", history[0].Text)
	assert.Equal(t, "Hi! How can I help?", history[1].Text)
}

func TestRunRestoredSessionReplaysHistory(t *testing.T) {
	kv := storage.NewMemory()
	store := session.NewStore(kv, session.DefaultKey)
	sess := chat.NewSession("sess-restored")
	sess.Append(chat.NewTurn(chat.RoleUser, "earlier question", time.Now()))
	sess.Append(chat.NewTurn(chat.RoleBot, "earlier answer", time.Now()))
	require.NoError(t, store.Save(context.Background(), sess))

	h := newHarness(t, kv, &stubTransport{})
	run(t, h, "")

	out := h.out.String()
	assert.Contains(t, out, "Previous conversation restored")
	assert.Contains(t, out, "earlier question")
	assert.Contains(t, out, "earlier answer")
	assert.NotContains(t, out, testProfile.Welcome)
	assert.Less(t, strings.Index(out, "Previous conversation restored"), strings.Index(out, "earlier question"))
}

func TestFailureRendersWarningAndKeepsUserTurn(t *testing.T) {
	tr := &stubTransport{err: &transport.SendError{Kind: transport.KindServer, Status: 500}}
	h := newHarness(t, storage.NewMemory(), tr)

	run(t, h, "hello\n")

	assert.Contains(t, h.out.String(), "⚠️  Server error (500). Please try again.")
	history := h.ctrl.Session().History
	require.Len(t, history, 1)
	assert.Equal(t, chat.RoleUser, history[0].Role)
}

func TestBlankLineSendsNothing(t *testing.T) {
	tr := &stubTransport{reply: "unused"}
	h := newHarness(t, storage.NewMemory(), tr)

	run(t, h, "   \n\t\n")

	assert.Empty(t, tr.requests)
	assert.Empty(t, h.ctrl.Session().History)
}

func TestInputTruncatedAtMaxLength(t *testing.T) {
	tr := &stubTransport{reply: "ok"}
	h := newHarness(t, storage.NewMemory(), tr)

	run(t, h, strings.Repeat("a", widget.DefaultMaxInput+500)+"\n")

	require.Len(t, tr.requests, 1)
	assert.Len(t, tr.requests[0].Message, widget.DefaultMaxInput)
}

func TestClearCommandStartsFreshSession(t *testing.T) {
	kv := storage.NewMemory()
	tr := &stubTransport{reply: "ok"}
	h := newHarness(t, kv, tr)
	run(t, h, "hello\n")
	before := h.ctrl.Session().SessionID

	quit := h.w.Handle(context.Background(), "/clear")

	assert.False(t, quit)
	after := h.ctrl.Session()
	assert.NotEqual(t, before, after.SessionID)
	assert.Empty(t, after.History)
	_, err := kv.Get(context.Background(), session.DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, h.out.String(), "Conversation cleared")
}

func TestSessionAndHistoryCommands(t *testing.T) {
	h := newHarness(t, storage.NewMemory(), &stubTransport{reply: "pong"})

	h.w.Handle(context.Background(), "/history")
	assert.Contains(t, h.out.String(), "No messages yet")

	h.w.Handle(context.Background(), "ping")
	h.out.Reset()
	h.w.Handle(context.Background(), "/history")
	assert.Contains(t, h.out.String(), "ping")
	assert.Contains(t, h.out.String(), "pong")

	h.w.Handle(context.Background(), "/session")
	assert.Contains(t, h.out.String(), h.ctrl.Session().SessionID)
}

func TestUserTurnRenderedBeforeReplyArrives(t *testing.T) {
	tr := &stubTransport{reply: "pong"}
	h := newHarness(t, storage.NewMemory(), tr)
	var seen string
	tr.onSend = func() { seen = h.out.String() }

	h.w.Handle(context.Background(), "  ping  ")

	assert.Contains(t, seen, "ping")
	assert.Contains(t, seen, "BotHive AI is typing…")
	assert.NotContains(t, seen, "pong")
	assert.Contains(t, h.out.String(), "pong")
}

func TestOverlongPipedLineDoesNotEndSession(t *testing.T) {
	tr := &stubTransport{reply: "ok"}
	h := newHarness(t, storage.NewMemory(), tr)

	run(t, h, strings.Repeat("a", 9000)+"\nsecond line\n")

	require.Len(t, tr.requests, 2)
	assert.Len(t, tr.requests[0].Message, widget.DefaultMaxInput)
	assert.Equal(t, "second line", tr.requests[1].Message)
}

func TestPipeReaderTruncatesOnRuneBoundary(t *testing.T) {
	in := widget.NewPipeReader(strings.NewReader("héllo\r\nok"), 2)

	line, err := in.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "h", line)

	line, err = in.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ok", line)

	_, err = in.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}
