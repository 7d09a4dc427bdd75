package runner

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vango-dev/codegame/pkg/metrics"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/protocol"
	"github.com/vango-dev/codegame/pkg/stream"
)

// Runner drives one player connection: it receives server messages, asks
// the strategy for actions and sends them back until the game finishes.
type Runner struct {
	stream   *stream.Stream[model.ServerMessage]
	strategy Strategy
	debug    *Debug
	schema   model.Schema

	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
	observer Observer
	streamOp stream.Options

	state State
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Default: zap.NewNop()
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for turn spans.
// Default: the global provider's tracer named TracerName.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = t
	}
}

// WithObserver registers a callback for state changes.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// WithSchema selects the schema version spoken on the connection.
// Default: model.Current()
func WithSchema(s model.Schema) Option {
	return func(r *Runner) {
		r.schema = s
	}
}

// WithStreamOptions sets the transport options. Logger and Metrics are
// filled from the Runner when unset.
func WithStreamOptions(opts stream.Options) Option {
	return func(r *Runner) {
		r.streamOp = opts
	}
}

// New creates a Runner on an established connection. No handshake is
// performed; call Handshake first when the host expects one.
func New(conn io.ReadWriteCloser, strategy Strategy, opts ...Option) *Runner {
	r := &Runner{
		strategy: strategy,
		schema:   model.Current(),
		logger:   zap.NewNop(),
		tracer:   defaultTracer(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.streamOp.Logger == nil {
		r.streamOp.Logger = r.logger
	}
	if r.streamOp.Metrics == nil {
		r.streamOp.Metrics = r.metrics
	}

	r.stream = stream.New(conn, model.DecodeServerMessage, r.streamOp)
	r.debug = &Debug{s: r.stream, schema: r.schema, metrics: r.metrics}
	return r
}

// Dial connects to a host over TCP, performs the handshake and returns a
// Runner ready to Run.
func Dial(ctx context.Context, addr, token string, strategy Strategy, opts ...Option) (*Runner, error) {
	conn, err := stream.DialTCP(ctx, addr)
	if err != nil {
		return nil, err
	}
	return connect(conn, token, strategy, opts)
}

// DialWebSocket connects to a host's WebSocket endpoint, performs the
// handshake and returns a Runner ready to Run.
func DialWebSocket(ctx context.Context, url, token string, strategy Strategy, opts ...Option) (*Runner, error) {
	conn, err := stream.DialWebSocket(ctx, url, http.Header{})
	if err != nil {
		return nil, err
	}
	return connect(conn, token, strategy, opts)
}

func connect(conn io.ReadWriteCloser, token string, strategy Strategy, opts []Option) (*Runner, error) {
	r := New(conn, strategy, opts...)
	if err := r.Handshake(token); err != nil {
		r.stream.Close()
		return nil, err
	}
	return r, nil
}

// Handshake sends the token and schema version and waits for the host to
// accept them. A rejection returns a *protocol.HandshakeError.
func (r *Runner) Handshake(token string) error {
	hello := protocol.NewClientHello(token, r.schema.Version)
	if err := r.stream.SendFlush(hello); err != nil {
		return err
	}
	reply, err := stream.ReceiveWith(r.stream, protocol.DecodeServerHello)
	if err != nil {
		return err
	}
	if err := reply.Err(); err != nil {
		return err
	}
	r.logger.Debug("handshake accepted", zap.Int32("schema_version", r.schema.Version))
	return nil
}

// State returns the current state.
func (r *Runner) State() State {
	return r.state
}

// Schema returns the schema spoken on the connection.
func (r *Runner) Schema() model.Schema {
	return r.schema
}

// Close closes the connection.
func (r *Runner) Close() error {
	return r.stream.Close()
}

func (r *Runner) setState(to State) {
	from := r.state
	if from == to {
		return
	}
	r.state = to
	if r.observer != nil {
		r.observer(from, to)
	}
}

// Run plays until the host sends Finish or closes the connection between
// turns, both of which return nil. Transport and decode failures are
// returned and never retried; strategy errors are returned unwrapped.
// Cancelling ctx closes the connection, which aborts a pending receive.
// The connection is closed when Run returns.
func (r *Runner) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		r.stream.Close()
	})
	defer stop()
	defer r.stream.Close()

	for {
		r.setState(AwaitingState)

		msg, err := r.stream.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if stream.IsCleanClose(err) {
				r.logger.Info("host closed connection")
				r.setState(Finished)
				return nil
			}
			return err
		}

		switch m := msg.(type) {
		case model.GetAction:
			if err := r.turn(ctx, m.PlayerView); err != nil {
				return err
			}
		case model.DebugUpdate:
			if err := r.debugUpdate(m.PlayerView); err != nil {
				return err
			}
		case model.Finish:
			r.logger.Info("game finished")
			r.setState(Finished)
			return nil
		}
	}
}

func (r *Runner) turn(ctx context.Context, view model.PlayerView) (err error) {
	start := time.Now()
	_, span := r.startTurn(ctx, view)
	orders := 0
	defer func() {
		r.endTurn(span, orders, err)
	}()

	r.setState(Deciding)
	action, err := r.strategy.GetAction(view, r.debug)
	if err != nil {
		return err
	}
	orders = len(action.Orders)

	r.setState(Sending)
	if err := r.stream.SendFlush(model.ActionMessage{Action: action}); err != nil {
		return err
	}

	r.metrics.ObserveTurn("client", time.Since(start))
	r.logger.Debug("turn complete",
		zap.Int32("tick", view.Tick),
		zap.Int("orders", orders),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *Runner) debugUpdate(view model.PlayerView) error {
	if du, ok := r.strategy.(DebugUpdater); ok {
		if err := du.DebugUpdate(view, r.debug); err != nil {
			return err
		}
	}
	if !r.schema.DebugUpdateAck {
		return nil
	}
	return r.stream.SendFlush(model.DebugUpdateDone{})
}
