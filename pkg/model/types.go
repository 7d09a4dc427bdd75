package model

import (
	"math"

	"github.com/vango-dev/codegame/pkg/protocol"
)

// SpectatorID is the MyID of a view built for an observer rather than a
// player.
const SpectatorID int32 = -1

// Vec2 is a point or direction on the map.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// EncodeTo implements protocol.Encodable.
func (v Vec2) EncodeTo(e *protocol.Encoder) {
	e.WriteFloat64(v.X)
	e.WriteFloat64(v.Y)
}

// DecodeVec2 reads a Vec2.
func DecodeVec2(d *protocol.Decoder) (Vec2, error) {
	var v Vec2
	var err error
	if v.X, err = d.ReadFloat64(); err != nil {
		return Vec2{}, err
	}
	if v.Y, err = d.ReadFloat64(); err != nil {
		return Vec2{}, err
	}
	return v, nil
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// EncodeTo implements protocol.Encodable.
func (c Color) EncodeTo(e *protocol.Encoder) {
	e.WriteFloat64(c.R)
	e.WriteFloat64(c.G)
	e.WriteFloat64(c.B)
	e.WriteFloat64(c.A)
}

// DecodeColor reads a Color.
func DecodeColor(d *protocol.Decoder) (Color, error) {
	var c Color
	for _, dst := range []*float64{&c.R, &c.G, &c.B, &c.A} {
		v, err := d.ReadFloat64()
		if err != nil {
			return Color{}, err
		}
		*dst = v
	}
	return c, nil
}

// Player is a participant and its current score.
type Player struct {
	ID    int32
	Name  string
	Score int32
}

// EncodeTo implements protocol.Encodable.
func (p Player) EncodeTo(e *protocol.Encoder) {
	e.WriteInt32(p.ID)
	e.WriteString(p.Name)
	e.WriteInt32(p.Score)
}

// DecodePlayer reads a Player.
func DecodePlayer(d *protocol.Decoder) (Player, error) {
	var p Player
	var err error
	if p.ID, err = d.ReadInt32(); err != nil {
		return Player{}, err
	}
	if p.Name, err = d.ReadString(); err != nil {
		return Player{}, err
	}
	if p.Score, err = d.ReadInt32(); err != nil {
		return Player{}, err
	}
	return p, nil
}

// Unit is a game piece owned by a player.
type Unit struct {
	ID       int32
	PlayerID int32
	Position Vec2
	Health   int32
}

// EncodeTo implements protocol.Encodable.
func (u Unit) EncodeTo(e *protocol.Encoder) {
	e.WriteInt32(u.ID)
	e.WriteInt32(u.PlayerID)
	u.Position.EncodeTo(e)
	e.WriteInt32(u.Health)
}

// DecodeUnit reads a Unit.
func DecodeUnit(d *protocol.Decoder) (Unit, error) {
	var u Unit
	var err error
	if u.ID, err = d.ReadInt32(); err != nil {
		return Unit{}, err
	}
	if u.PlayerID, err = d.ReadInt32(); err != nil {
		return Unit{}, err
	}
	if u.Position, err = DecodeVec2(d); err != nil {
		return Unit{}, err
	}
	if u.Health, err = d.ReadInt32(); err != nil {
		return Unit{}, err
	}
	return u, nil
}

// PlayerView is the world state as one player (or a spectator) sees it at
// the start of a tick.
type PlayerView struct {
	MyID             int32
	Tick             int32
	MaxTicks         int32
	MapSize          int32
	ServerTimeMillis int64
	Players          []Player
	Units            []Unit
}

// EncodeTo implements protocol.Encodable.
func (v PlayerView) EncodeTo(e *protocol.Encoder) {
	e.WriteInt32(v.MyID)
	e.WriteInt32(v.Tick)
	e.WriteInt32(v.MaxTicks)
	e.WriteInt32(v.MapSize)
	e.WriteInt64(v.ServerTimeMillis)
	protocol.WriteSlice(e, v.Players, encodeValue[Player])
	protocol.WriteSlice(e, v.Units, encodeValue[Unit])
}

// DecodePlayerView reads a PlayerView.
func DecodePlayerView(d *protocol.Decoder) (PlayerView, error) {
	var v PlayerView
	var err error
	for _, dst := range []*int32{&v.MyID, &v.Tick, &v.MaxTicks, &v.MapSize} {
		if *dst, err = d.ReadInt32(); err != nil {
			return PlayerView{}, err
		}
	}
	if v.ServerTimeMillis, err = d.ReadInt64(); err != nil {
		return PlayerView{}, err
	}
	if v.Players, err = protocol.ReadSlice(d, DecodePlayer); err != nil {
		return PlayerView{}, err
	}
	if v.Units, err = protocol.ReadSlice(d, DecodeUnit); err != nil {
		return PlayerView{}, err
	}
	return v, nil
}

// Unit returns the unit with the given id.
func (v PlayerView) Unit(id int32) (Unit, bool) {
	for _, u := range v.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

// MyUnits returns the units owned by the viewing player.
func (v PlayerView) MyUnits() []Unit {
	var out []Unit
	for _, u := range v.Units {
		if u.PlayerID == v.MyID {
			out = append(out, u)
		}
	}
	return out
}

// UnitOrder tells one unit where to move and whom to attack this tick.
// Nil fields leave that part of the unit's behavior unchanged.
type UnitOrder struct {
	UnitID int32
	MoveTo *Vec2
	Attack *int32
}

// EncodeTo implements protocol.Encodable.
func (o UnitOrder) EncodeTo(e *protocol.Encoder) {
	e.WriteInt32(o.UnitID)
	protocol.WriteOption(e, o.MoveTo, encodeValue[Vec2])
	protocol.WriteOption(e, o.Attack, protocol.EncodeInt32)
}

// DecodeUnitOrder reads a UnitOrder.
func DecodeUnitOrder(d *protocol.Decoder) (UnitOrder, error) {
	var o UnitOrder
	var err error
	if o.UnitID, err = d.ReadInt32(); err != nil {
		return UnitOrder{}, err
	}
	if o.MoveTo, err = protocol.ReadOption(d, DecodeVec2); err != nil {
		return UnitOrder{}, err
	}
	if o.Attack, err = protocol.ReadOption(d, protocol.DecodeInt32); err != nil {
		return UnitOrder{}, err
	}
	return o, nil
}

// Action is a player's answer to GetAction.
type Action struct {
	Orders []UnitOrder
}

// EncodeTo implements protocol.Encodable.
func (a Action) EncodeTo(e *protocol.Encoder) {
	protocol.WriteSlice(e, a.Orders, encodeValue[UnitOrder])
}

// DecodeAction reads an Action.
func DecodeAction(d *protocol.Decoder) (Action, error) {
	orders, err := protocol.ReadSlice(d, DecodeUnitOrder)
	if err != nil {
		return Action{}, err
	}
	return Action{Orders: orders}, nil
}

// DebugState is the viewer's interactive state, returned to a client that
// sends RequestDebugState.
type DebugState struct {
	Cursor      Vec2
	PressedKeys []string
	LockedUnit  *int32
}

// EncodeTo implements protocol.Encodable.
func (s DebugState) EncodeTo(e *protocol.Encoder) {
	s.Cursor.EncodeTo(e)
	protocol.WriteSlice(e, s.PressedKeys, protocol.EncodeString)
	protocol.WriteOption(e, s.LockedUnit, protocol.EncodeInt32)
}

// DecodeDebugState reads a DebugState.
func DecodeDebugState(d *protocol.Decoder) (DebugState, error) {
	var s DebugState
	var err error
	if s.Cursor, err = DecodeVec2(d); err != nil {
		return DebugState{}, err
	}
	if s.PressedKeys, err = protocol.ReadSlice(d, protocol.DecodeString); err != nil {
		return DebugState{}, err
	}
	if s.LockedUnit, err = protocol.ReadOption(d, protocol.DecodeInt32); err != nil {
		return DebugState{}, err
	}
	return s, nil
}

func encodeValue[T protocol.Encodable](e *protocol.Encoder, v T) {
	v.EncodeTo(e)
}
