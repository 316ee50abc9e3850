// Package conversation runs the widget's send/receive lifecycle.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/bothive/internal/model/chat"
	"github.com/zhouzirui/bothive/internal/service/session"
	"github.com/zhouzirui/bothive/internal/transport"
)

// DefaultTimeout bounds a single webhook exchange.
const DefaultTimeout = 20 * time.Second

// ErrSendInProgress is returned when Send is called while another send is in flight.
var ErrSendInProgress = errors.New("a message is already being sent")

// State is the controller's position in the send lifecycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateAwaitingResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateAwaitingResult:
		return "awaiting_result"
	default:
		return "unknown"
	}
}

// StateFunc observes lifecycle transitions, e.g. to drive a typing indicator.
type StateFunc func(State)

// Controller owns the session handle and orchestrates one request per send.
type Controller struct {
	store     *session.Store
	transport transport.Transport
	timeout   time.Duration
	now       func() time.Time
	onState   StateFunc

	inflight sync.Mutex
	mu       sync.RWMutex
	sess     *chat.Session
	restored bool
}

// Option customises a Controller.
type Option func(*Controller)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithStateFunc registers a lifecycle observer.
func WithStateFunc(fn StateFunc) Option {
	return func(c *Controller) {
		c.onState = fn
	}
}

// New loads (or creates) the session from store and binds it to tr.
func New(ctx context.Context, store *session.Store, tr transport.Transport, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		transport: tr,
		timeout:   DefaultTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sess, c.restored = store.Load(ctx)
	return c
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() chat.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess.Clone()
}

// Restored reports whether the session was loaded from storage.
func (c *Controller) Restored() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.restored
}

// Reset clears the stored session and starts a fresh one.
func (c *Controller) Reset(ctx context.Context) error {
	if !c.inflight.TryLock() {
		return ErrSendInProgress
	}
	defer c.inflight.Unlock()

	err := c.store.Clear(ctx)

	fresh := c.store.Fresh()
	c.mu.Lock()
	c.sess = fresh
	c.restored = false
	c.mu.Unlock()

	log.Info().Str("session_id", fresh.SessionID).Msg("session reset")
	return err
}

// Send runs one full cycle for rawText. Blank input is a no-op and returns
// (nil, nil). On success the bot turn is returned; on failure the error is a
// *transport.SendError and the session holds only the user turn.
func (c *Controller) Send(ctx context.Context, rawText string) (*chat.Turn, error) {
	text := Sanitize(rawText)
	if text == "" {
		return nil, nil
	}

	if !c.inflight.TryLock() {
		return nil, ErrSendInProgress
	}
	defer c.inflight.Unlock()

	c.setState(StateSending)
	defer c.setState(StateIdle)

	userTurn := chat.NewTurn(chat.RoleUser, text, c.now())
	sessionID := c.appendAndSave(ctx, userTurn)

	c.setState(StateAwaitingResult)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.transport.Send(reqCtx, transport.Request{
		Message:   text,
		SessionID: sessionID,
		Timestamp: chat.FormatTimestamp(userTurn.Time),
	})
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			// the timer fired; that classification wins over the transport's own
			if !errors.Is(err, transport.ErrTimeout) {
				err = &transport.SendError{Kind: transport.KindTimeout, Err: err}
			}
		} else if _, ok := transport.AsSendError(err); !ok {
			err = &transport.SendError{Kind: transport.KindNetwork, Err: err}
		}
		log.Warn().Err(err).Str("session_id", sessionID).Msg("send failed")
		return nil, err
	}

	botTurn := chat.NewTurn(chat.RoleBot, reply, c.now())
	c.appendAndSave(ctx, botTurn)
	return &botTurn, nil
}

func (c *Controller) appendAndSave(ctx context.Context, turn chat.Turn) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sess.Append(turn)
	// Save failures are logged by the store; the in-memory session stays authoritative.
	_ = c.store.Save(ctx, c.sess)
	return c.sess.SessionID
}

func (c *Controller) setState(s State) {
	if c.onState != nil {
		c.onState(s)
	}
}
