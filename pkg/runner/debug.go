package runner

import (
	"errors"
	"sync/atomic"

	"github.com/vango-dev/codegame/pkg/metrics"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/stream"
)

// ErrDebugStateUnsupported is returned by Debug.GetState when the
// negotiated schema has no RequestDebugState message.
var ErrDebugStateUnsupported = errors.New("runner: debug state requests not supported by schema")

// ErrNilDebugCommand is returned by Debug.Send and Debug.Add for a nil
// command or a DebugAdd without data. Nothing is sent.
var ErrNilDebugCommand = errors.New("runner: nil debug command")

// Debug is the strategy's handle to the host's debug layer.
//
// Commands are fire-and-forget: each is sent and flushed immediately and
// the host never acknowledges it. Debug is safe for concurrent use.
type Debug struct {
	s       *stream.Stream[model.ServerMessage]
	schema  model.Schema
	metrics *metrics.Collector
	sent    atomic.Int64
}

// Send writes cmd and flushes it.
func (d *Debug) Send(cmd model.DebugCommand) error {
	if cmd == nil {
		return ErrNilDebugCommand
	}
	if add, ok := cmd.(model.DebugAdd); ok && add.Data == nil {
		return ErrNilDebugCommand
	}

	d.sent.Add(1)
	d.metrics.DebugCommand()
	return d.s.SendFlush(model.DebugMessage{Command: cmd})
}

// Add sends a DebugAdd command carrying data.
func (d *Debug) Add(data model.DebugData) error {
	return d.Send(model.DebugAdd{Data: data})
}

// Log adds a line of text.
func (d *Debug) Log(text string) error {
	return d.Add(model.DebugLog{Text: text})
}

// Clear sends a DebugClear command.
func (d *Debug) Clear() error {
	return d.Send(model.DebugClear{})
}

// GetState asks the host for the viewer's current DebugState and blocks
// until it arrives.
func (d *Debug) GetState() (model.DebugState, error) {
	if !d.schema.DebugStateRequests {
		return model.DebugState{}, ErrDebugStateUnsupported
	}
	if err := d.s.SendFlush(model.RequestDebugState{}); err != nil {
		return model.DebugState{}, err
	}
	return stream.ReceiveWith(d.s, model.DecodeDebugState)
}

// Schema returns the schema negotiated for this connection.
func (d *Debug) Schema() model.Schema {
	return d.schema
}

// takeSent returns the number of commands sent since the last call.
func (d *Debug) takeSent() int64 {
	return d.sent.Swap(0)
}
