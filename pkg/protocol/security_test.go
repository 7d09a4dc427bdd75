package protocol

import (
	"errors"
	"testing"
)

// TestAllocationLimits verifies that allocation limits are enforced.
func TestAllocationLimits(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		read    func(d *Decoder) error
		wantErr error
	}{
		{
			name:    "string exceeds limit",
			payload: makeLengthPrefix(DefaultMaxAllocation + 1),
			read:    func(d *Decoder) error { _, err := d.ReadString(); return err },
			wantErr: ErrAllocationTooLarge,
		},
		{
			name:    "bytes exceed limit",
			payload: makeLengthPrefix(DefaultMaxAllocation + 1),
			read:    func(d *Decoder) error { _, err := d.ReadLenBytes(); return err },
			wantErr: ErrAllocationTooLarge,
		},
		{
			name:    "collection exceeds limit",
			payload: makeLengthPrefix(MaxCollectionCount + 1),
			read:    func(d *Decoder) error { _, err := d.ReadCount(); return err },
			wantErr: ErrCollectionTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewBytesDecoder(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Errorf("limit errors should match ErrInvalidEncoding, got %v", err)
			}
		})
	}
}

func TestSetMaxAllocation(t *testing.T) {
	e := NewEncoder()
	e.WriteString("0123456789")

	d := NewBytesDecoder(e.Bytes())
	d.SetMaxAllocation(4)
	if _, err := d.ReadString(); !errors.Is(err, ErrAllocationTooLarge) {
		t.Errorf("ReadString() error = %v, want ErrAllocationTooLarge", err)
	}

	d = NewBytesDecoder(nil)
	d.SetMaxAllocation(HardMaxAllocation * 2)
	if d.maxAlloc != HardMaxAllocation {
		t.Errorf("maxAlloc = %d, want cap %d", d.maxAlloc, HardMaxAllocation)
	}
}

// TestHugeCountDoesNotPreallocate feeds a valid but large count with no
// elements behind it; decoding must fail on truncation, not on memory.
func TestHugeCountDoesNotPreallocate(t *testing.T) {
	d := NewBytesDecoder(makeLengthPrefix(MaxCollectionCount))
	_, err := ReadSlice(d, DecodeInt64)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("ReadSlice() error = %v, want ErrTruncated", err)
	}
}

func makeLengthPrefix(n int) []byte {
	e := NewEncoder()
	e.WriteInt32(int32(n))
	return e.Bytes()
}
