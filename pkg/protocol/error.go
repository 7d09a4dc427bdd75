package protocol

import (
	"errors"
	"fmt"
	"io"
)

// Decoding errors. Every one of them is fatal to the connection: once a
// value fails to decode the stream position can no longer be trusted.
var (
	// ErrTruncated is returned when the stream ends before a value is
	// complete. It also matches io.ErrUnexpectedEOF.
	ErrTruncated = fmt.Errorf("protocol: truncated stream: %w", io.ErrUnexpectedEOF)

	// ErrInvalidEncoding is returned for malformed UTF-8, negative length
	// prefixes and out-of-range boolean bytes.
	ErrInvalidEncoding = errors.New("protocol: invalid encoding")

	// ErrUnknownDiscriminant matches every *UnknownDiscriminantError.
	ErrUnknownDiscriminant = errors.New("protocol: unknown discriminant")

	// ErrAllocationTooLarge is returned when a length prefix exceeds the
	// decoder's allocation limit.
	ErrAllocationTooLarge = fmt.Errorf("%w: allocation size exceeds limit", ErrInvalidEncoding)

	// ErrCollectionTooLarge is returned when a sequence count exceeds
	// MaxCollectionCount.
	ErrCollectionTooLarge = fmt.Errorf("%w: collection count exceeds limit", ErrInvalidEncoding)
)

// UnknownDiscriminantError reports a tag that matches no variant of a
// tagged union. There is no resync point after it.
type UnknownDiscriminantError struct {
	// Union is the name of the tagged union being decoded.
	Union string

	// Tag is the discriminant that was read.
	Tag int32
}

// Error implements the error interface.
func (e *UnknownDiscriminantError) Error() string {
	return fmt.Sprintf("protocol: unknown %s discriminant %d", e.Union, e.Tag)
}

// Is reports whether target is ErrUnknownDiscriminant.
func (e *UnknownDiscriminantError) Is(target error) bool {
	return target == ErrUnknownDiscriminant
}

// UnknownTag returns an UnknownDiscriminantError for the given union.
func UnknownTag(union string, tag int32) error {
	return &UnknownDiscriminantError{Union: union, Tag: tag}
}

// IsDecodeError returns true if err is one of the decode-time failures:
// truncation, invalid encoding or an unknown discriminant.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrTruncated) ||
		errors.Is(err, ErrInvalidEncoding) ||
		errors.Is(err, ErrUnknownDiscriminant)
}
