package host

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vango-dev/codegame/pkg/metrics"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/stream"
)

// DebugHandler receives debug commands a player sends while deciding.
type DebugHandler func(cmd model.DebugCommand)

// DebugStateProvider answers a player's RequestDebugState.
type DebugStateProvider func() model.DebugState

// RemotePlayer is a player on the other end of an accepted connection.
// Calls are serialized; the first failure breaks the player and every later
// call returns an error wrapping ErrPlayerBroken.
type RemotePlayer struct {
	id     string
	addr   string
	stream *stream.Stream[model.ClientMessage]
	schema model.Schema

	logger  *zap.Logger
	metrics *metrics.Collector

	mu      sync.Mutex
	onDebug DebugHandler
	state   DebugStateProvider
	err     error

	closeOnce sync.Once
}

func newRemotePlayer(id, addr string, st *stream.Stream[model.ClientMessage], schema model.Schema, logger *zap.Logger, m *metrics.Collector) *RemotePlayer {
	return &RemotePlayer{
		id:      id,
		addr:    addr,
		stream:  st,
		schema:  schema,
		logger:  logger,
		metrics: m,
		state:   func() model.DebugState { return model.DebugState{} },
	}
}

// ID returns the session ID assigned at handshake.
func (p *RemotePlayer) ID() string {
	return p.id
}

// RemoteAddr returns the client address.
func (p *RemotePlayer) RemoteAddr() string {
	return p.addr
}

// Schema returns the schema negotiated at handshake.
func (p *RemotePlayer) Schema() model.Schema {
	return p.schema
}

// SetDebugHandler sets the handler for debug commands. Commands are dropped
// when no handler is set.
func (p *RemotePlayer) SetDebugHandler(h DebugHandler) {
	p.mu.Lock()
	p.onDebug = h
	p.mu.Unlock()
}

// SetDebugStateProvider sets the function answering RequestDebugState.
// Default: an empty DebugState.
func (p *RemotePlayer) SetDebugStateProvider(f DebugStateProvider) {
	p.mu.Lock()
	p.state = f
	p.mu.Unlock()
}

// GetAction sends the view and reads client messages until the action
// arrives. Debug commands received meanwhile go to the debug handler.
func (p *RemotePlayer) GetAction(ctx context.Context, view model.PlayerView) (model.Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	var action model.Action
	err := p.exchange(ctx, "GetAction", model.GetAction{PlayerView: view}, func(msg model.ClientMessage) (bool, error) {
		m, ok := msg.(model.ActionMessage)
		if !ok {
			return false, &UnexpectedMessageError{Kind: msg.Kind(), During: "GetAction"}
		}
		action = m.Action
		return true, nil
	})
	if err != nil {
		return model.Action{}, err
	}

	p.metrics.ObserveTurn("host", time.Since(start))
	return action, nil
}

// DebugUpdate sends the view for a debug update. When the schema
// acknowledges debug updates it waits for DebugUpdateDone.
func (p *RemotePlayer) DebugUpdate(ctx context.Context, view model.PlayerView) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.schema.DebugUpdateAck {
		if p.err != nil {
			return p.err
		}
		if err := p.stream.SendFlush(model.DebugUpdate{PlayerView: view}); err != nil {
			return p.fail(err)
		}
		return nil
	}

	return p.exchange(ctx, "DebugUpdate", model.DebugUpdate{PlayerView: view}, func(msg model.ClientMessage) (bool, error) {
		if _, ok := msg.(model.DebugUpdateDone); !ok {
			return false, &UnexpectedMessageError{Kind: msg.Kind(), During: "DebugUpdate"}
		}
		return true, nil
	})
}

// exchange sends req and handles client messages until done reports true.
// Debug messages and state requests are handled here and never reach done.
func (p *RemotePlayer) exchange(ctx context.Context, during string, req model.ServerMessage, done func(model.ClientMessage) (bool, error)) error {
	if p.err != nil {
		return p.err
	}

	stop := context.AfterFunc(ctx, func() { p.stream.Close() })
	defer stop()

	if err := p.stream.SendFlush(req); err != nil {
		return p.failCtx(ctx, err)
	}

	for {
		msg, err := p.stream.Receive()
		if err != nil {
			return p.failCtx(ctx, err)
		}

		switch m := msg.(type) {
		case model.DebugMessage:
			p.metrics.DebugCommand()
			if p.onDebug != nil {
				p.onDebug(m.Command)
			}
			continue
		case model.RequestDebugState:
			if !p.schema.DebugStateRequests {
				return p.fail(&UnexpectedMessageError{Kind: m.Kind(), During: during})
			}
			if err := p.stream.SendFlush(p.state()); err != nil {
				return p.failCtx(ctx, err)
			}
			continue
		}

		finished, err := done(msg)
		if err != nil {
			return p.fail(err)
		}
		if finished {
			return nil
		}
	}
}

// Finish tells the client the game is over and closes the connection.
func (p *RemotePlayer) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.err == nil {
		err = p.stream.SendFlush(model.Finish{})
		p.err = ErrFinished
	}
	p.close()
	return err
}

// Close closes the connection without sending Finish.
func (p *RemotePlayer) Close() error {
	return p.close()
}

func (p *RemotePlayer) close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.stream.Close()
		p.metrics.SessionClosed()
		p.logger.Debug("player closed")
	})
	return err
}

func (p *RemotePlayer) failCtx(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return p.fail(err)
}

// fail breaks the player with err and closes the connection.
func (p *RemotePlayer) fail(err error) error {
	if p.err == nil {
		p.err = &brokenError{err: err}
		p.logger.Warn("player failed", zap.Error(err))
		p.stream.Close()
	}
	return p.err
}

// brokenError matches ErrPlayerBroken and unwraps to the cause.
type brokenError struct {
	err error
}

func (e *brokenError) Error() string        { return "host: player connection broken: " + e.err.Error() }
func (e *brokenError) Unwrap() error        { return e.err }
func (e *brokenError) Is(target error) bool { return target == ErrPlayerBroken }
