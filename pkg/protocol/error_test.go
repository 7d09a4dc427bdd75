package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestUnknownDiscriminantError(t *testing.T) {
	err := UnknownTag("ServerMessage", 9)

	if !errors.Is(err, ErrUnknownDiscriminant) {
		t.Error("errors.Is(err, ErrUnknownDiscriminant) = false")
	}
	var ude *UnknownDiscriminantError
	if !errors.As(err, &ude) || ude.Tag != 9 || ude.Union != "ServerMessage" {
		t.Errorf("errors.As() = %+v", ude)
	}
	if !strings.Contains(err.Error(), "ServerMessage") {
		t.Errorf("Error() = %q, want union name", err.Error())
	}
}

func TestIsDecodeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"truncated", ErrTruncated, true},
		{"invalid", ErrInvalidEncoding, true},
		{"allocation", ErrAllocationTooLarge, true},
		{"collection", ErrCollectionTooLarge, true},
		{"unknown tag", UnknownTag("DebugData", 3), true},
		{"wrapped", fmt.Errorf("reading view: %w", ErrTruncated), true},
		{"io failure", io.ErrClosedPipe, false},
		{"nil", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDecodeError(tc.err); got != tc.want {
				t.Errorf("IsDecodeError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrTruncatedMatchesUnexpectedEOF(t *testing.T) {
	if !errors.Is(ErrTruncated, io.ErrUnexpectedEOF) {
		t.Error("ErrTruncated should match io.ErrUnexpectedEOF")
	}
	if errors.Is(ErrTruncated, io.EOF) {
		t.Error("ErrTruncated should not match io.EOF")
	}
}
