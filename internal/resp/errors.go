package resp

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete reports that the buffered bytes do not yet hold a
	// complete frame. It is not a failure; feed more bytes and retry.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrLimitExceeded reports that a line or declared length is beyond the
	// protocol limits. It is always wrapped in a *ProtocolError.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ProtocolError describes malformed frame syntax.
type ProtocolError struct {
	Msg string
	Err error
}

func protocolErrorf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

func limitErrorf(format string, args ...any) *ProtocolError {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...), Err: ErrLimitExceeded}
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return "resp: protocol error: " + e.Msg
}

// Unwrap returns the underlying cause, if any.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Reply returns the text sent to a client in an error reply.
func (e *ProtocolError) Reply() string {
	return "ERR Protocol error: " + e.Msg
}
