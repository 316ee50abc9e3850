package transport

import (
	"errors"
	"fmt"
)

// Kind classifies why a send failed.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindNetwork
	KindServer
	KindMalformedResponse
	KindEmptyReply
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindMalformedResponse:
		return "malformed_response"
	case KindEmptyReply:
		return "empty_reply"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels for errors.Is; they match any SendError of the same kind.
var (
	ErrTimeout           = &SendError{Kind: KindTimeout}
	ErrNetwork           = &SendError{Kind: KindNetwork}
	ErrServer            = &SendError{Kind: KindServer}
	ErrMalformedResponse = &SendError{Kind: KindMalformedResponse}
	ErrEmptyReply        = &SendError{Kind: KindEmptyReply}
)

// SendError is the classified outcome of a failed request.
type SendError struct {
	Kind   Kind
	Status int // HTTP status for KindServer
	Err    error
}

func (e *SendError) Error() string {
	msg := e.Kind.String()
	if e.Kind == KindServer {
		msg = fmt.Sprintf("server error (%d)", e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can test against the sentinels.
func (e *SendError) Is(target error) bool {
	t, ok := target.(*SendError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Status == 0 || t.Status == e.Status)
}

// UserMessage is the one-line notice shown in the conversation view.
func (e *SendError) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "Request timed out. Please check your connection and try again."
	case KindNetwork:
		return "Network error. Please check your connection and try again."
	case KindServer:
		return fmt.Sprintf("Server error (%d). Please try again.", e.Status)
	case KindMalformedResponse:
		return "Received an unexpected response format."
	case KindEmptyReply:
		return "No reply received from the assistant."
	default:
		return "Something went wrong. Please try again."
	}
}

// AsSendError extracts a SendError from err.
func AsSendError(err error) (*SendError, bool) {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr, true
	}
	return nil, false
}

func newError(kind Kind, err error) *SendError {
	return &SendError{Kind: kind, Err: err}
}

func serverError(status int, err error) *SendError {
	return &SendError{Kind: KindServer, Status: status, Err: err}
}
