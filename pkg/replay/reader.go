package replay

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/protocol"
)

// Reader reads a replay record by record.
type Reader struct {
	dec    *protocol.Decoder
	closer io.Closer
	header Header
	err    error
}

// NewReader reads and checks the replay header from r.
// If r is an io.Closer, Close closes it.
func NewReader(r io.Reader) (*Reader, error) {
	rd := &Reader{dec: protocol.NewDecoder(bufio.NewReader(r))}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}

	magic, err := rd.dec.ReadBytes(len(Magic))
	if err != nil || !bytes.Equal(magic, Magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	version, err := rd.dec.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if _, ok := model.Lookup(version); !ok {
		return nil, fmt.Errorf("%w: unknown schema version %d", ErrCorrupt, version)
	}
	created, err := rd.dec.ReadInt64()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}

	rd.header = Header{Version: version, Created: time.UnixMilli(created)}
	return rd, nil
}

// Open opens the replay file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Header returns the replay header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record. It returns io.EOF after the last whole
// record and an error wrapping ErrCorrupt if the file ends mid-record or a
// record does not decode.
func (r *Reader) Next() (model.PlayerView, error) {
	if r.err != nil {
		return model.PlayerView{}, r.err
	}

	start := r.dec.Position()
	view, err := model.DecodePlayerView(r.dec)
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrTruncated) && r.dec.Position() == start:
			r.err = io.EOF
		case protocol.IsDecodeError(err):
			r.err = fmt.Errorf("%w: record at offset %d: %v", ErrCorrupt, start, err)
		default:
			r.err = fmt.Errorf("replay: read: %w", err)
		}
		return model.PlayerView{}, r.err
	}
	return view, nil
}

// Close closes the underlying reader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll reads every record from the replay at path.
func ReadAll(path string) (Header, []model.PlayerView, error) {
	r, err := Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()

	var views []model.PlayerView
	for {
		view, err := r.Next()
		if errors.Is(err, io.EOF) {
			return r.Header(), views, nil
		}
		if err != nil {
			return r.Header(), views, err
		}
		views = append(views, view)
	}
}
