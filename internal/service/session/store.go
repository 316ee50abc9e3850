package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/bothive/internal/model/chat"
	"github.com/zhouzirui/bothive/internal/storage"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "bh_chat_session"

// Store gives validated, failure-tolerant access to the persisted session.
type Store struct {
	kv    storage.KV
	key   string
	newID func() string
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUID generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore binds a store to kv under key.
func NewStore(kv storage.KV, key string, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{kv: kv, key: key, newID: NewID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID generates a random RFC 4122 v4 identifier without any network round trip.
func NewID() string {
	return uuid.NewString()
}

// Key returns the storage key the session lives under.
func (s *Store) Key() string {
	return s.key
}

// Fresh returns a new empty session with a newly generated identifier.
func (s *Store) Fresh() *chat.Session {
	return chat.NewSession(s.newID())
}

// Load returns the stored session, or a fresh one when nothing valid is stored.
// The boolean reports whether the session came from storage.
func (s *Store) Load(ctx context.Context) (*chat.Session, bool) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Str("key", s.key).Msg("could not read session from storage")
		}
		return s.Fresh(), false
	}

	sess, err := decode(raw)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("discarding stored session")
		return s.Fresh(), false
	}
	return sess, true
}

// Save persists the session. A failure leaves the in-memory session authoritative.
func (s *Store) Save(ctx context.Context, sess *chat.Session) error {
	out := *sess
	if out.History == nil {
		out.History = []chat.Turn{}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		log.Warn().Err(err).Str("key", s.key).Str("session_id", sess.SessionID).Msg("could not save session")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the persisted session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.key); err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("could not clear session")
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// stored mirrors chat.Session with a pointer history so a missing or null
// history can be told apart from an empty one.
type stored struct {
	SessionID string       `json:"sessionId"`
	History   *[]chat.Turn `json:"history"`
}

func decode(raw string) (*chat.Session, error) {
	var in stored
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if in.History == nil {
		return nil, fmt.Errorf("%w: history is not a list", chat.ErrInvalidSession)
	}

	sess := &chat.Session{SessionID: in.SessionID, History: *in.History}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	return sess, nil
}
