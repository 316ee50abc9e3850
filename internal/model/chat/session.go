package chat

import "errors"

// ErrInvalidSession is returned by Validate when a stored session cannot be trusted.
var ErrInvalidSession = errors.New("invalid session")

// Session captures the durable per-client conversation record.
type Session struct {
	SessionID string `json:"sessionId"`
	History   []Turn `json:"history"`
}

// NewSession returns an empty session bound to id.
func NewSession(id string) *Session {
	return &Session{SessionID: id, History: make([]Turn, 0, 16)}
}

// Append records a turn at the end of the history.
func (s *Session) Append(turn Turn) {
	s.History = append(s.History, turn)
}

// Clone returns a deep copy safe to hand to readers.
func (s *Session) Clone() Session {
	history := make([]Turn, len(s.History))
	copy(history, s.History)
	return Session{SessionID: s.SessionID, History: history}
}

// Validate reports whether the session satisfies the load invariant.
func (s *Session) Validate() error {
	if s == nil || s.SessionID == "" {
		return errors.Join(ErrInvalidSession, errors.New("session id is required"))
	}
	for i, turn := range s.History {
		if err := turn.Validate(); err != nil {
			return errors.Join(ErrInvalidSession, wrapTurn(i, err))
		}
	}
	return nil
}
