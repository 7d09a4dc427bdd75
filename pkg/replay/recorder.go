package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/protocol"
)

// Magic identifies replay files.
var Magic = [4]byte{'C', 'G', 'R', 'P'}

// ErrCorrupt is returned for files that are not replays or are damaged.
var ErrCorrupt = errors.New("replay: corrupt replay")

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("replay: recorder closed")

// Header is the replay file header.
type Header struct {
	Version int32
	Created time.Time
}

// EncodeTo encodes the header, magic included.
func (h Header) EncodeTo(e *protocol.Encoder) {
	e.WriteBytes(Magic[:])
	e.WriteInt32(h.Version)
	e.WriteInt64(h.Created.UnixMilli())
}

// Recorder writes a replay. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	enc    *protocol.Encoder
	header Header
	count  int
	err    error
	closed bool
}

// NewRecorder writes the header for a match played with schema version to w.
// If w is an io.Closer, Close closes it.
func NewRecorder(w io.Writer, version int32) (*Recorder, error) {
	r := &Recorder{
		w:      bufio.NewWriter(w),
		enc:    protocol.NewEncoderWithCap(4096),
		header: Header{Version: version, Created: time.Now()},
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}

	r.header.EncodeTo(r.enc)
	if _, err := r.w.Write(r.enc.Bytes()); err != nil {
		return nil, fmt.Errorf("replay: write header: %w", err)
	}
	return r, nil
}

// Create creates the file at path and starts a replay in it.
func Create(path string, version int32) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	r, err := NewRecorder(f, version)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Record appends one tick.
func (r *Recorder) Record(view model.PlayerView) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.err != nil {
		return r.err
	}

	r.enc.Reset()
	view.EncodeTo(r.enc)
	if _, err := r.w.Write(r.enc.Bytes()); err != nil {
		r.err = fmt.Errorf("replay: write record: %w", err)
		return r.err
	}
	r.count++
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Header returns the header written at the start of the replay.
func (r *Recorder) Header() Header {
	return r.header
}

// Close flushes buffered records and closes the underlying writer.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	err := r.w.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("replay: close: %w", err)
	}
	return r.err
}
