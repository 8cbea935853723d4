package backend

import (
	"errors"
	"fmt"
)

// ErrTimeout is wrapped by a TransportError when the backend did not answer
// within the client timeout.
var ErrTimeout = errors.New("backend: request timed out")

// TransportError means no response was obtained.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means a response arrived but its body could not be parsed.
type ProtocolError struct {
	Op     string
	Status int
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: status %d: unparseable body: %v", e.Op, e.Status, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ApplicationError is a well-formed non-success response. Message is the
// server supplied error text, possibly empty.
type ApplicationError struct {
	Op      string
	Status  int
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.Status, e.Message)
}
