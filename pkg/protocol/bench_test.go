package protocol

import (
	"bytes"
	"testing"
)

func BenchmarkEncoder_Primitives(b *testing.B) {
	e := NewEncoderWithCap(64)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.Reset()
		e.WriteInt32(int32(i))
		e.WriteInt64(int64(i))
		e.WriteFloat64(float64(i))
		e.WriteBool(i%2 == 0)
		e.WriteString("unit")
	}
}

func BenchmarkDecoder_Primitives(b *testing.B) {
	e := NewEncoder()
	e.WriteInt32(1)
	e.WriteInt64(2)
	e.WriteFloat64(3)
	e.WriteBool(true)
	e.WriteString("unit")
	data := e.Bytes()
	r := bytes.NewReader(data)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Reset(data)
		d := NewDecoder(r)
		_, _ = d.ReadInt32()
		_, _ = d.ReadInt64()
		_, _ = d.ReadFloat64()
		_, _ = d.ReadBool()
		_, _ = d.ReadString()
	}
}

func BenchmarkReadSlice(b *testing.B) {
	items := make([]int32, 1000)
	for i := range items {
		items[i] = int32(i)
	}
	e := NewEncoder()
	WriteSlice(e, items, EncodeInt32)
	data := e.Bytes()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ReadSlice(NewBytesDecoder(data), DecodeInt32)
	}
}
