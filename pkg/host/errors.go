package host

import (
	"errors"
	"fmt"
)

var (
	// ErrServerClosed is returned by ServeTCP and Wait after Close.
	ErrServerClosed = errors.New("host: server closed")

	// ErrFinished is returned by calls on a player after Finish.
	ErrFinished = errors.New("host: game finished")

	// ErrPlayerBroken is returned by every call on a player after a failure.
	ErrPlayerBroken = errors.New("host: player connection broken")
)

// UnexpectedMessageError is returned when a client sends a message that is
// not valid at this point of the exchange.
type UnexpectedMessageError struct {
	Kind   string // Message kind received
	During string // "GetAction" or "DebugUpdate"
}

// Error implements the error interface.
func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf("host: unexpected %s during %s", e.Kind, e.During)
}
