package protocol

// WriteSlice appends a count-prefixed sequence, encoding each element with fn.
func WriteSlice[T any](e *Encoder, items []T, fn func(*Encoder, T)) {
	e.WriteCount(len(items))
	for _, item := range items {
		fn(e, item)
	}
}

// ReadSlice reads a count-prefixed sequence, decoding each element with fn.
// An empty sequence decodes to a non-nil empty slice.
func ReadSlice[T any](d *Decoder, fn func(*Decoder) (T, error)) ([]T, error) {
	n, err := d.ReadCount()
	if err != nil {
		return nil, err
	}
	// Cap the preallocation; a hostile count must not reserve memory
	// before the elements actually arrive.
	items := make([]T, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		item, err := fn(d)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// WriteOption appends an optional value: a presence flag, then the value
// when v is non-nil.
func WriteOption[T any](e *Encoder, v *T, fn func(*Encoder, T)) {
	if v == nil {
		e.WriteBool(false)
		return
	}
	e.WriteBool(true)
	fn(e, *v)
}

// ReadOption reads an optional value written by WriteOption.
func ReadOption[T any](d *Decoder, fn func(*Decoder) (T, error)) (*T, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	v, err := fn(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Element codecs for the primitive types, for use with the generic helpers.

func EncodeInt32(e *Encoder, v int32)     { e.WriteInt32(v) }
func EncodeInt64(e *Encoder, v int64)     { e.WriteInt64(v) }
func EncodeFloat64(e *Encoder, v float64) { e.WriteFloat64(v) }
func EncodeBool(e *Encoder, v bool)       { e.WriteBool(v) }
func EncodeString(e *Encoder, v string)   { e.WriteString(v) }

func DecodeInt32(d *Decoder) (int32, error)     { return d.ReadInt32() }
func DecodeInt64(d *Decoder) (int64, error)     { return d.ReadInt64() }
func DecodeFloat64(d *Decoder) (float64, error) { return d.ReadFloat64() }
func DecodeBool(d *Decoder) (bool, error)       { return d.ReadBool() }
func DecodeString(d *Decoder) (string, error)   { return d.ReadString() }
