package stream

import (
	"errors"
	"fmt"

	"github.com/vango-dev/codegame/pkg/protocol"
)

// ErrConnectionClosed matches every *ConnectionClosedError.
var ErrConnectionClosed = errors.New("stream: connection closed")

// ConnectionClosedError reports that the peer closed the connection.
type ConnectionClosedError struct {
	// Clean is true when the close happened between messages.
	Clean bool

	// Partial is the number of bytes of an incomplete message that were
	// read and discarded. Zero when Clean.
	Partial int64
}

// Error implements the error interface.
func (e *ConnectionClosedError) Error() string {
	if e.Clean {
		return "stream: connection closed by peer"
	}
	return fmt.Sprintf("stream: connection closed mid-message (%d bytes discarded)", e.Partial)
}

// Is reports whether target is ErrConnectionClosed.
func (e *ConnectionClosedError) Is(target error) bool {
	return target == ErrConnectionClosed
}

// IOError is an underlying read, write or flush failure.
type IOError struct {
	Op  string // "read", "write" or "flush"
	Err error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return "stream: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// IsCleanClose reports whether err is a close at a message boundary.
func IsCleanClose(err error) bool {
	var cce *ConnectionClosedError
	return errors.As(err, &cce) && cce.Clean
}

// Class returns a short, stable name for a receive or send failure,
// suitable for metrics labels.
func Class(err error) string {
	var ude *protocol.UnknownDiscriminantError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectionClosed):
		return "closed"
	case errors.As(err, &ude):
		return "unknown_tag"
	case errors.Is(err, protocol.ErrTruncated):
		return "truncated"
	case errors.Is(err, protocol.ErrInvalidEncoding):
		return "invalid"
	default:
		return "io"
	}
}
