package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Decoder is a binary decoder that reads values from a stream.
//
// Reads block until enough bytes are available. When the stream ends before
// a value is complete the decoder returns ErrTruncated; other read errors are
// returned unchanged so transports can tell I/O failures from malformed data.
type Decoder struct {
	r        io.Reader
	scratch  [8]byte
	pos      int64
	maxAlloc int
}

// NewDecoder creates a new decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, maxAlloc: DefaultMaxAllocation}
}

// NewBytesDecoder creates a new decoder from the given byte slice.
func NewBytesDecoder(buf []byte) *Decoder {
	return NewDecoder(bytes.NewReader(buf))
}

// SetMaxAllocation changes the largest string or byte slice the decoder will
// allocate. Values above HardMaxAllocation are capped.
func (d *Decoder) SetMaxAllocation(n int) {
	if n <= 0 || n > HardMaxAllocation {
		n = HardMaxAllocation
	}
	d.maxAlloc = n
}

// Position returns the number of bytes consumed so far.
func (d *Decoder) Position() int64 {
	return d.pos
}

// Remaining returns the number of unread bytes if the underlying reader
// knows it, or -1.
func (d *Decoder) Remaining() int {
	if l, ok := d.r.(interface{ Len() int }); ok {
		return l.Len()
	}
	return -1
}

func (d *Decoder) readFull(p []byte) error {
	n, err := io.ReadFull(d.r, p)
	d.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	return nil
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	if err := d.readFull(d.scratch[:1]); err != nil {
		return 0, err
	}
	return d.scratch[0], nil
}

// ReadBytes reads exactly n bytes into a new slice.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrInvalidEncoding, n)
	}
	if n > d.maxAlloc {
		return nil, ErrAllocationTooLarge
	}
	if rem := d.Remaining(); rem >= 0 && n > rem {
		// Drain what is left so Position reflects the bytes seen.
		_ = d.readFull(make([]byte, rem))
		return nil, ErrTruncated
	}
	b := make([]byte, n)
	if err := d.readFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadBool reads a boolean. Only 0x00 and 0x01 are accepted.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, fmt.Errorf("%w: boolean byte 0x%02x", ErrInvalidEncoding, b)
	}
}

// ReadUint32 reads a uint32 in little-endian byte order.
func (d *Decoder) ReadUint32() (uint32, error) {
	if err := d.readFull(d.scratch[:4]); err != nil {
		return 0, err
	}
	b := d.scratch
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// ReadUint64 reads a uint64 in little-endian byte order.
func (d *Decoder) ReadUint64() (uint64, error) {
	if err := d.readFull(d.scratch[:8]); err != nil {
		return 0, err
	}
	b := d.scratch
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56, nil
}

// ReadInt32 reads an int32 in little-endian byte order.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads an int64 in little-endian byte order.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a float32 in IEEE 754 format.
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a float64 in IEEE 754 format.
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// readLength reads an int32 length prefix and rejects negative values.
func (d *Decoder) readLength() (int, error) {
	n, err := d.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative length prefix %d", ErrInvalidEncoding, n)
	}
	return int(n), nil
}

// ReadString reads a length-prefixed UTF-8 string.
// Returns ErrAllocationTooLarge if the string exceeds the allocation limit
// and ErrInvalidEncoding if the bytes are not valid UTF-8.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.readLength()
	if err != nil {
		return "", err
	}
	b, err := d.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: malformed UTF-8 string", ErrInvalidEncoding)
	}
	return string(b), nil
}

// ReadLenBytes reads length-prefixed bytes.
// Returns a copy of the bytes (safe to retain).
func (d *Decoder) ReadLenBytes() ([]byte, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	return d.ReadBytes(n)
}

// ReadCount reads a sequence element count and validates it against limits.
// Returns ErrCollectionTooLarge if count exceeds MaxCollectionCount.
func (d *Decoder) ReadCount() (int, error) {
	n, err := d.readLength()
	if err != nil {
		return 0, err
	}
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	return n, nil
}

// ReadTag reads a tagged-union discriminant.
func (d *Decoder) ReadTag() (int32, error) {
	return d.ReadInt32()
}
