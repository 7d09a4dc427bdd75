package errors

import (
	"errors"
	"net"

	"github.com/vango-dev/codegame/pkg/protocol"
	"github.com/vango-dev/codegame/pkg/replay"
	"github.com/vango-dev/codegame/pkg/runner"
	"github.com/vango-dev/codegame/pkg/stream"
)

// Classify maps an error from the codegame packages onto its registered
// code. A *CodegameError is returned unchanged; anything unrecognized
// becomes a categoryless error wrapping err. Classify(nil) is nil.
func Classify(err error) *CodegameError {
	if err == nil {
		return nil
	}

	var ce *CodegameError
	if errors.As(err, &ce) {
		return ce
	}

	var (
		he  *protocol.HandshakeError
		ude *protocol.UnknownDiscriminantError
		cce *stream.ConnectionClosedError
		ioe *stream.IOError
		oe  *net.OpError
	)

	switch {
	case errors.As(err, &he):
		switch he.Status {
		case protocol.HandshakeInvalidToken:
			return New("E120").Wrap(err)
		case protocol.HandshakeVersionMismatch:
			return New("E121").Wrap(err)
		default:
			return New("E122").Wrap(err)
		}
	case errors.Is(err, runner.ErrDebugStateUnsupported):
		return New("E123").Wrap(err)
	case errors.As(err, &cce):
		if cce.Clean {
			return New("E103").Wrap(err)
		}
		return New("E100").Wrap(err)
	case errors.As(err, &ude):
		return New("E102").Wrap(err)
	case errors.Is(err, replay.ErrCorrupt):
		return New("E310").Wrap(err)
	case errors.Is(err, protocol.ErrTruncated):
		return New("E100").Wrap(err)
	case errors.Is(err, protocol.ErrInvalidEncoding):
		return New("E101").Wrap(err)
	case errors.As(err, &ioe):
		return New("E104").Wrap(err)
	case errors.As(err, &oe) && oe.Op == "dial":
		return New("E105").Wrap(err)
	}

	return &CodegameError{Message: err.Error(), Wrapped: err}
}
