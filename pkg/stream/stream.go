// Package stream carries protocol messages over an ordered byte stream.
//
// A Stream owns one connection. Writes are buffered and reach the peer only
// on Flush; every write goes through one mutex, so messages from different
// goroutines never interleave and arrive in the order they were sent.
// Receive blocks until one whole message is decoded.
//
// Every failure is fatal: once a receive or write fails the stream is
// broken and all later calls return the same error.
package stream

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vango-dev/codegame/pkg/metrics"
	"github.com/vango-dev/codegame/pkg/protocol"
)

// DefaultBufferSize is the read and write buffer size.
const DefaultBufferSize = 64 * 1024

// Options configures a Stream.
type Options struct {
	// ReadTimeout bounds each Receive when the connection supports read
	// deadlines. Zero means no timeout.
	ReadTimeout time.Duration

	// WriteTimeout bounds each Send and Flush when the connection supports
	// write deadlines. Zero means no timeout.
	WriteTimeout time.Duration

	// BufferSize is the size of the read and write buffers.
	// Default: DefaultBufferSize
	BufferSize int

	// MaxAllocation caps strings and byte slices the decoder will allocate.
	// Default: protocol.DefaultMaxAllocation
	MaxAllocation int

	// Logger receives debug-level traffic logs. Default: zap.NewNop()
	Logger *zap.Logger

	// Metrics records traffic. May be nil.
	Metrics *metrics.Collector
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Stream is a bidirectional message stream whose incoming messages decode
// to In.
type Stream[In any] struct {
	conn   io.ReadWriteCloser
	decode func(*protocol.Decoder) (In, error)
	opts   Options
	logger *zap.Logger

	rmu sync.Mutex
	dec *protocol.Decoder

	wmu sync.Mutex
	bw  *bufio.Writer
	enc *protocol.Encoder

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
	closeErr  error
}

// New wraps conn. decode reads one incoming message.
func New[In any](conn io.ReadWriteCloser, decode func(*protocol.Decoder) (In, error), opts Options) *Stream[In] {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dec := protocol.NewDecoder(bufio.NewReaderSize(conn, opts.BufferSize))
	if opts.MaxAllocation > 0 {
		dec.SetMaxAllocation(opts.MaxAllocation)
	}

	return &Stream[In]{
		conn:   conn,
		decode: decode,
		opts:   opts,
		logger: opts.Logger,
		dec:    dec,
		bw:     bufio.NewWriterSize(conn, opts.BufferSize),
		enc:    protocol.NewEncoder(),
	}
}

// Err returns the error that broke the stream, or nil.
func (s *Stream[In]) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// fail records err as the stream's terminal error unless one is already
// set, and returns the terminal error.
func (s *Stream[In]) fail(err error) error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
	return s.err
}

// Send encodes msg into the write buffer. The bytes reach the peer on the
// next Flush, or earlier if the buffer fills.
func (s *Stream[In]) Send(msg protocol.Encodable) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.sendLocked(msg)
}

// Flush writes all buffered bytes to the connection.
func (s *Stream[In]) Flush() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.flushLocked()
}

// SendFlush sends msg and flushes without letting another writer in
// between.
func (s *Stream[In]) SendFlush(msg protocol.Encodable) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.sendLocked(msg); err != nil {
		return err
	}
	return s.flushLocked()
}

func (s *Stream[In]) sendLocked(msg protocol.Encodable) error {
	if err := s.Err(); err != nil {
		return err
	}

	s.enc.Reset()
	s.enc.Encode(msg)
	data := s.enc.Bytes()

	s.setWriteDeadline()
	if _, err := s.bw.Write(data); err != nil {
		return s.fail(&IOError{Op: "write", Err: err})
	}

	kind := kindOf(msg)
	s.opts.Metrics.MessageSent(kind, len(data))
	if ce := s.logger.Check(zap.DebugLevel, "message sent"); ce != nil {
		ce.Write(zap.String("kind", kind), zap.Int("bytes", len(data)))
	}
	return nil
}

func (s *Stream[In]) flushLocked() error {
	if err := s.Err(); err != nil {
		return err
	}
	s.setWriteDeadline()
	if err := s.bw.Flush(); err != nil {
		return s.fail(&IOError{Op: "flush", Err: err})
	}
	return nil
}

func (s *Stream[In]) setWriteDeadline() {
	if s.opts.WriteTimeout <= 0 {
		return
	}
	if wd, ok := s.conn.(writeDeadliner); ok {
		_ = wd.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
}

// Receive blocks until the next message is decoded.
//
// A close by the peer between messages returns a *ConnectionClosedError
// with Clean set; a close partway through a message returns one with Clean
// unset and the partial bytes are discarded.
func (s *Stream[In]) Receive() (In, error) {
	return ReceiveWith(s, s.decode)
}

// ReceiveWith decodes one value with fn instead of the stream's message
// decoder, with the same boundary and failure rules as Receive. It is used
// for values that are not tagged messages, such as handshake replies.
func ReceiveWith[T, In any](s *Stream[In], fn func(*protocol.Decoder) (T, error)) (T, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	var zero T
	if err := s.Err(); err != nil {
		return zero, err
	}

	if s.opts.ReadTimeout > 0 {
		if rd, ok := s.conn.(readDeadliner); ok {
			_ = rd.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}
	}

	start := s.dec.Position()
	v, err := fn(s.dec)
	if err != nil {
		consumed := s.dec.Position() - start
		switch {
		case errors.Is(err, protocol.ErrTruncated):
			err = &ConnectionClosedError{Clean: consumed == 0, Partial: consumed}
		case protocol.IsDecodeError(err):
			// Malformed input is reported as decoded.
		default:
			err = &IOError{Op: "read", Err: err}
		}
		s.opts.Metrics.ReceiveError(Class(err))
		return zero, s.fail(err)
	}

	kind := kindOf(v)
	s.opts.Metrics.MessageReceived(kind)
	if ce := s.logger.Check(zap.DebugLevel, "message received"); ce != nil {
		ce.Write(zap.String("kind", kind), zap.Int64("bytes", s.dec.Position()-start))
	}
	return v, nil
}

// Close closes the connection. A Receive blocked on it returns an error.
// Close is idempotent.
func (s *Stream[In]) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

func kindOf(v any) string {
	if k, ok := v.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	switch v.(type) {
	case *protocol.ClientHello:
		return "ClientHello"
	case *protocol.ServerHello:
		return "ServerHello"
	}
	return "value"
}
