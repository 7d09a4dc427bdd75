package host

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vango-dev/codegame/pkg/metrics"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/protocol"
	"github.com/vango-dev/codegame/pkg/stream"
)

// Config configures a Server.
type Config struct {
	// Token is the access token clients must send. Empty accepts any token.
	Token string

	// Versions lists the schema versions the server accepts.
	// Default: model.Supported()
	Versions []int32

	// MaxPlayers is the number of players the server accepts before
	// answering ServerBusy. Zero means no limit.
	MaxPlayers int

	// HandshakeTimeout bounds the wait for ClientHello.
	// Default: 10s
	HandshakeTimeout time.Duration

	// ReadTimeout bounds each client response. Zero means no timeout.
	ReadTimeout time.Duration

	// WriteTimeout bounds each message to a client. Zero means no timeout.
	WriteTimeout time.Duration

	// CheckOrigin validates WebSocket upgrade requests.
	// Default: accept every origin.
	CheckOrigin func(r *http.Request) bool

	// Logger receives session logs. Default: zap.NewNop()
	Logger *zap.Logger

	// Metrics records sessions and traffic. May be nil.
	Metrics *metrics.Collector
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Token:            protocol.DefaultToken,
		Versions:         model.Supported(),
		HandshakeTimeout: 10 * time.Second,
	}
}

// Server accepts player connections and hands accepted players out through
// Wait. Connections arrive from ServeTCP, HandleWebSocket or Accept.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	metrics  *metrics.Collector
	upgrader websocket.Upgrader

	players chan *RemotePlayer
	done    chan struct{}

	mu        sync.Mutex
	reserved  int
	closed    bool
	listeners []net.Listener
}

// NewServer creates a server with the given configuration.
func NewServer(cfg Config) *Server {
	defaults := DefaultConfig()
	if len(cfg.Versions) == 0 {
		cfg.Versions = defaults.Versions
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = func(*http.Request) bool { return true }
	}

	backlog := cfg.MaxPlayers
	if backlog <= 0 {
		backlog = 16
	}

	return &Server{
		cfg:     cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  stream.DefaultBufferSize,
			WriteBufferSize: stream.DefaultBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		players: make(chan *RemotePlayer, backlog),
		done:    make(chan struct{}),
	}
}

// ServeTCP accepts connections on ln until ctx is cancelled or the server is
// closed. Each connection is handshaken in its own goroutine.
func (s *Server) ServeTCP(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.Info("waiting for players", zap.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.isClosed() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		if err := stream.TuneTCP(conn); err != nil {
			s.logger.Warn("tune tcp failed", zap.Error(err))
		}

		go func() {
			if _, err := s.serve(ctx, conn, conn.RemoteAddr().String()); err != nil {
				s.logger.Debug("connection rejected", zap.Error(err))
			}
		}()
	}
}

// HandleWebSocket upgrades the request and serves the connection as a
// player. Register it on a router, e.g. r.Get("/ws", srv.HandleWebSocket).
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.isClosed() {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if _, err := s.serve(r.Context(), stream.WebSocketConn(ws), r.RemoteAddr); err != nil {
		s.logger.Debug("connection rejected", zap.Error(err))
	}
}

// serve handshakes conn and queues the player for Wait.
func (s *Server) serve(ctx context.Context, conn io.ReadWriteCloser, addr string) (*RemotePlayer, error) {
	p, err := s.Accept(ctx, conn, addr)
	if err != nil {
		return nil, err
	}

	select {
	case s.players <- p:
		return p, nil
	case <-s.done:
	case <-ctx.Done():
	}
	p.Close()
	return nil, ErrServerClosed
}

// Accept performs the server side of the handshake on conn and returns the
// player. Rejected clients get a ServerHello with the failure status and
// their connection is closed; the returned error is a
// *protocol.HandshakeError.
func (s *Server) Accept(ctx context.Context, conn io.ReadWriteCloser, addr string) (*RemotePlayer, error) {
	id := uuid.NewString()
	logger := s.logger.With(zap.String("session_id", id), zap.String("remote_addr", addr))

	st := stream.New(conn, model.DecodeClientMessage, stream.Options{
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		Logger:       logger,
		Metrics:      s.metrics,
	})

	hctx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	defer cancel()
	stop := context.AfterFunc(hctx, func() { st.Close() })

	hello, err := stream.ReceiveWith(st, protocol.DecodeClientHello)
	if !stop() {
		st.Close()
		logger.Info("handshake timed out")
		return nil, hctx.Err()
	}
	if err != nil {
		st.Close()
		logger.Info("handshake failed", zap.Error(err))
		return nil, err
	}

	status, schema := s.check(hello)
	reply := protocol.NewServerHello(schema.Version)
	if status != protocol.HandshakeOK {
		reply = protocol.NewServerHelloError(status, model.SchemaVersion)
	}
	if err := st.SendFlush(reply); err != nil {
		s.release(status)
		st.Close()
		return nil, err
	}

	s.metrics.SessionOpened(status.String(), status == protocol.HandshakeOK)
	if status != protocol.HandshakeOK {
		logger.Info("handshake rejected",
			zap.Stringer("status", status),
			zap.Int32("client_version", hello.Version))
		st.Close()
		return nil, reply.Err()
	}

	logger.Info("player connected", zap.Int32("schema_version", schema.Version))
	return newRemotePlayer(id, addr, st, schema, logger, s.metrics), nil
}

// check validates hello and reserves a player slot on success.
func (s *Server) check(hello *protocol.ClientHello) (protocol.HandshakeStatus, model.Schema) {
	if s.cfg.Token != "" &&
		subtle.ConstantTimeCompare([]byte(hello.Token), []byte(s.cfg.Token)) != 1 {
		return protocol.HandshakeInvalidToken, model.Schema{}
	}

	schema, ok := model.Lookup(hello.Version)
	if !ok || !slices.Contains(s.cfg.Versions, hello.Version) {
		return protocol.HandshakeVersionMismatch, model.Schema{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.cfg.MaxPlayers > 0 && s.reserved >= s.cfg.MaxPlayers) {
		return protocol.HandshakeServerBusy, model.Schema{}
	}
	s.reserved++
	return protocol.HandshakeOK, schema
}

// release frees the slot reserved by check.
func (s *Server) release(status protocol.HandshakeStatus) {
	if status != protocol.HandshakeOK {
		return
	}
	s.mu.Lock()
	s.reserved--
	s.mu.Unlock()
}

// Wait returns the next n accepted players in arrival order. If ctx ends
// first it returns the players accepted so far together with ctx.Err().
func (s *Server) Wait(ctx context.Context, n int) ([]*RemotePlayer, error) {
	players := make([]*RemotePlayer, 0, n)
	for len(players) < n {
		select {
		case p := <-s.players:
			players = append(players, p)
		case <-ctx.Done():
			return players, ctx.Err()
		case <-s.done:
			return players, ErrServerClosed
		}
	}
	return players, nil
}

// Close stops all listeners and closes players that were accepted but not
// yet handed out by Wait.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	var errs []error
	for _, ln := range listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}

	for {
		select {
		case p := <-s.players:
			p.Close()
		default:
			return errors.Join(errs...)
		}
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
