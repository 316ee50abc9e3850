package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout renders times the way browsers print Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Valid reports whether r is one of the persisted roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// Turn is one message exchanged in a session.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// NewTurn stamps a turn with the given time at millisecond precision in UTC.
func NewTurn(role Role, text string, at time.Time) Turn {
	return Turn{Role: role, Text: text, Time: at.UTC().Truncate(time.Millisecond)}
}

// Validate checks the turn is well formed.
func (t Turn) Validate() error {
	if !t.Role.Valid() {
		return fmt.Errorf("unknown role %q", t.Role)
	}
	if t.Time.IsZero() {
		return errors.New("time is required")
	}
	return nil
}

type turnJSON struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// MarshalJSON writes the time with TimestampLayout.
func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal(turnJSON{Role: t.Role, Text: t.Text, Time: FormatTimestamp(t.Time)})
}

// UnmarshalJSON accepts any RFC 3339 time.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw turnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	at, err := time.Parse(time.RFC3339Nano, raw.Time)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", raw.Time, err)
	}
	*t = Turn{Role: raw.Role, Text: raw.Text, Time: at}
	return nil
}

// FormatTimestamp renders t with TimestampLayout in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func wrapTurn(index int, err error) error {
	return fmt.Errorf("history[%d]: %w", index, err)
}
