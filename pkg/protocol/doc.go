// Package protocol implements the binary wire codec shared by codegame
// hosts and player clients.
//
// The codec is deliberately simple: no framing header and no reflection.
// Every value has one fixed encoding, and messages are tagged unions whose
// layouts are fixed at build time by the schema in package model.
//
// # Wire Format
//
// All fixed-width values are little-endian:
//
//	int32, int64     two's complement, 4 / 8 bytes
//	float32, float64 IEEE 754, 4 / 8 bytes
//	bool             1 byte, 0x00 or 0x01
//	string           int32 byte length, then UTF-8 bytes
//	sequence<T>      int32 element count, then elements
//	Option<T>        bool presence flag, then T when present
//	tagged union     int32 discriminant, then variant fields in order
//
// # Errors
//
// Decoding fails with ErrTruncated when the stream ends before a value is
// complete, ErrInvalidEncoding for malformed UTF-8, negative length prefixes
// or bad boolean bytes, and *UnknownDiscriminantError for tags that match no
// variant. None of these is recoverable: the stream position cannot be
// trusted afterwards.
//
// # Handshake
//
// Before any game message the client writes a ClientHello (token and schema
// version) and the server answers with a ServerHello:
//
//	Client                          Server
//	  │                                │
//	  │──── ClientHello ─────────────>│
//	  │     (token, version)          │
//	  │                                │
//	  │<──── ServerHello ─────────────│
//	  │     (status, version)         │
//	  │                                │
//
// # Usage Example
//
//	e := protocol.NewEncoder()
//	e.WriteInt32(42)
//	e.WriteString("hello")
//
//	d := protocol.NewBytesDecoder(e.Bytes())
//	n, err := d.ReadInt32()
//	s, err := d.ReadString()
//
// # File Structure
//
//   - encoder.go: Binary encoder
//   - decoder.go: Stream decoder
//   - sequence.go: Sequence and Option helpers
//   - handshake.go: Handshake values
//   - error.go: Decode errors
//   - limits.go: Allocation limits
package protocol
