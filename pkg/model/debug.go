package model

import "github.com/vango-dev/codegame/pkg/protocol"

// DebugData discriminants.
const (
	DebugDataLog     int32 = 0
	DebugDataCircle  int32 = 1
	DebugDataSegment int32 = 2
)

// DebugData is a primitive the viewer draws for a player. It never affects
// the game.
type DebugData interface {
	protocol.Encodable
	Tag() int32
	debugData()
}

// DebugLog is a line of text shown in the viewer's log panel.
type DebugLog struct {
	Text string
}

// DebugCircle is a filled circle.
type DebugCircle struct {
	Center Vec2
	Radius float64
	Color  Color
}

// DebugSegment is a line segment.
type DebugSegment struct {
	From  Vec2
	To    Vec2
	Width float64
	Color Color
}

func (DebugLog) debugData()     {}
func (DebugCircle) debugData()  {}
func (DebugSegment) debugData() {}

// Tag returns the discriminant.
func (DebugLog) Tag() int32 { return DebugDataLog }

// Tag returns the discriminant.
func (DebugCircle) Tag() int32 { return DebugDataCircle }

// Tag returns the discriminant.
func (DebugSegment) Tag() int32 { return DebugDataSegment }

// EncodeTo implements protocol.Encodable.
func (l DebugLog) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(DebugDataLog)
	e.WriteString(l.Text)
}

// EncodeTo implements protocol.Encodable.
func (c DebugCircle) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(DebugDataCircle)
	c.Center.EncodeTo(e)
	e.WriteFloat64(c.Radius)
	c.Color.EncodeTo(e)
}

// EncodeTo implements protocol.Encodable.
func (s DebugSegment) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(DebugDataSegment)
	s.From.EncodeTo(e)
	s.To.EncodeTo(e)
	e.WriteFloat64(s.Width)
	s.Color.EncodeTo(e)
}

// DecodeDebugData reads a tagged DebugData.
func DecodeDebugData(d *protocol.Decoder) (DebugData, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case DebugDataLog:
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return DebugLog{Text: text}, nil

	case DebugDataCircle:
		var c DebugCircle
		if c.Center, err = DecodeVec2(d); err != nil {
			return nil, err
		}
		if c.Radius, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		if c.Color, err = DecodeColor(d); err != nil {
			return nil, err
		}
		return c, nil

	case DebugDataSegment:
		var s DebugSegment
		if s.From, err = DecodeVec2(d); err != nil {
			return nil, err
		}
		if s.To, err = DecodeVec2(d); err != nil {
			return nil, err
		}
		if s.Width, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		if s.Color, err = DecodeColor(d); err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, protocol.UnknownTag("DebugData", tag)
	}
}

// DebugCommand discriminants.
const (
	DebugCommandAdd   int32 = 0
	DebugCommandClear int32 = 1
)

// DebugCommand is an instruction to the viewer's debug layer.
type DebugCommand interface {
	protocol.Encodable
	Tag() int32
	debugCommand()
}

// DebugAdd appends Data to the current tick's debug layer.
type DebugAdd struct {
	Data DebugData
}

// DebugClear removes everything previously added.
type DebugClear struct{}

func (DebugAdd) debugCommand()   {}
func (DebugClear) debugCommand() {}

// Tag returns the discriminant.
func (DebugAdd) Tag() int32 { return DebugCommandAdd }

// Tag returns the discriminant.
func (DebugClear) Tag() int32 { return DebugCommandClear }

// EncodeTo implements protocol.Encodable.
func (a DebugAdd) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(DebugCommandAdd)
	a.Data.EncodeTo(e)
}

// EncodeTo implements protocol.Encodable.
func (DebugClear) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(DebugCommandClear)
}

// DecodeDebugCommand reads a tagged DebugCommand.
func DecodeDebugCommand(d *protocol.Decoder) (DebugCommand, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case DebugCommandAdd:
		data, err := DecodeDebugData(d)
		if err != nil {
			return nil, err
		}
		return DebugAdd{Data: data}, nil
	case DebugCommandClear:
		return DebugClear{}, nil
	default:
		return nil, protocol.UnknownTag("DebugCommand", tag)
	}
}
