package session

import (
	"errors"

	"chat-widget/internal/backend"
)

var (
	// ErrBlankInput is returned by Submit for empty or whitespace-only text.
	ErrBlankInput = errors.New("session: blank input")
	// ErrBusy is returned by Submit while a reply is awaited or being typed.
	ErrBusy = errors.New("session: a reply is in progress")
	// ErrClosed is returned once the session has been torn down.
	ErrClosed = errors.New("session: closed")
)

// User-visible texts for failed turns.
const (
	NoResponseText   = "Sorry, I couldn't get a response."
	GenericErrorText = "Sorry, I encountered an error. Please try again."
	ParseErrorText   = "Failed to parse response from server."
	NetworkErrorText = "Network error. Please check your connection and try again."
	TimeoutText      = "The assistant took too long to respond. Please try again."
)

// ErrorText maps a backend error to the message shown in the timeline.
func ErrorText(err error) string {
	var (
		protoErr *backend.ProtocolError
		appErr   *backend.ApplicationError
	)
	switch {
	case errors.Is(err, backend.ErrTimeout):
		return TimeoutText
	case errors.As(err, &protoErr):
		return ParseErrorText
	case errors.As(err, &appErr):
		if appErr.Message != "" {
			return appErr.Message
		}
		return GenericErrorText
	default:
		return NetworkErrorText
	}
}
