package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/zhouzirui/bothive/internal/model/chat"
)

var (
	ErrSessionRequired = errors.New("session id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Service keeps the webhook side transcript of every widget session.
type Service struct {
	mu       sync.RWMutex
	sessions map[string][]chat.Turn
}

// NewService bootstraps the in-memory transcript service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string][]chat.Turn),
	}
}

// Append records a turn for sessionID, creating the transcript on first use.
// Appends for one session are serialized so the transcript keeps arrival order.
func (s *Service) Append(_ context.Context, sessionID string, turn chat.Turn) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if err := turn.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[sessionID]
	if !ok {
		turns = make([]chat.Turn, 0, 16)
	}
	s.sessions[sessionID] = append(turns, turn)
	return nil
}

// Transcript returns a copy of the turns stored for sessionID.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// Recent returns at most limit trailing turns, or nil for an unknown session.
func (s *Service) Recent(ctx context.Context, sessionID string, limit int) []chat.Turn {
	turns, err := s.Transcript(ctx, sessionID)
	if err != nil || limit <= 0 {
		return nil
	}
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns
}
