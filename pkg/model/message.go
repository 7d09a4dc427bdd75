package model

import "github.com/vango-dev/codegame/pkg/protocol"

// ServerMessage discriminants.
const (
	ServerGetAction   int32 = 0
	ServerFinish      int32 = 1
	ServerDebugUpdate int32 = 2
)

// ServerMessage is a message sent from the host to a player.
type ServerMessage interface {
	protocol.Encodable
	Tag() int32
	Kind() string
	serverMessage()
}

// GetAction asks the player for its action at the given view.
type GetAction struct {
	PlayerView PlayerView
}

// Finish tells the player the game is over.
type Finish struct{}

// DebugUpdate lets the player refresh its debug layer between turns.
type DebugUpdate struct {
	PlayerView PlayerView
}

func (GetAction) serverMessage()   {}
func (Finish) serverMessage()      {}
func (DebugUpdate) serverMessage() {}

// Tag returns the discriminant.
func (GetAction) Tag() int32 { return ServerGetAction }

// Tag returns the discriminant.
func (Finish) Tag() int32 { return ServerFinish }

// Tag returns the discriminant.
func (DebugUpdate) Tag() int32 { return ServerDebugUpdate }

// Kind returns the variant name.
func (GetAction) Kind() string { return "GetAction" }

// Kind returns the variant name.
func (Finish) Kind() string { return "Finish" }

// Kind returns the variant name.
func (DebugUpdate) Kind() string { return "DebugUpdate" }

// EncodeTo implements protocol.Encodable.
func (m GetAction) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(ServerGetAction)
	m.PlayerView.EncodeTo(e)
}

// EncodeTo implements protocol.Encodable.
func (Finish) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(ServerFinish)
}

// EncodeTo implements protocol.Encodable.
func (m DebugUpdate) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(ServerDebugUpdate)
	m.PlayerView.EncodeTo(e)
}

// DecodeServerMessage reads a tagged ServerMessage.
func DecodeServerMessage(d *protocol.Decoder) (ServerMessage, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case ServerGetAction:
		view, err := DecodePlayerView(d)
		if err != nil {
			return nil, err
		}
		return GetAction{PlayerView: view}, nil
	case ServerFinish:
		return Finish{}, nil
	case ServerDebugUpdate:
		view, err := DecodePlayerView(d)
		if err != nil {
			return nil, err
		}
		return DebugUpdate{PlayerView: view}, nil
	default:
		return nil, protocol.UnknownTag("ServerMessage", tag)
	}
}

// ClientMessage discriminants.
const (
	ClientDebugMessage      int32 = 0
	ClientActionMessage     int32 = 1
	ClientDebugUpdateDone   int32 = 2
	ClientRequestDebugState int32 = 3
)

// ClientMessage is a message sent from a player to the host.
type ClientMessage interface {
	protocol.Encodable
	Tag() int32
	Kind() string
	clientMessage()
}

// DebugMessage carries one debug command.
type DebugMessage struct {
	Command DebugCommand
}

// ActionMessage carries the player's action for the current tick.
type ActionMessage struct {
	Action Action
}

// DebugUpdateDone acknowledges a DebugUpdate.
type DebugUpdateDone struct{}

// RequestDebugState asks the host for the viewer's DebugState. The host
// answers with a bare DebugState, not a ServerMessage.
type RequestDebugState struct{}

func (DebugMessage) clientMessage()      {}
func (ActionMessage) clientMessage()     {}
func (DebugUpdateDone) clientMessage()   {}
func (RequestDebugState) clientMessage() {}

// Tag returns the discriminant.
func (DebugMessage) Tag() int32 { return ClientDebugMessage }

// Tag returns the discriminant.
func (ActionMessage) Tag() int32 { return ClientActionMessage }

// Tag returns the discriminant.
func (DebugUpdateDone) Tag() int32 { return ClientDebugUpdateDone }

// Tag returns the discriminant.
func (RequestDebugState) Tag() int32 { return ClientRequestDebugState }

// Kind returns the variant name.
func (DebugMessage) Kind() string { return "DebugMessage" }

// Kind returns the variant name.
func (ActionMessage) Kind() string { return "ActionMessage" }

// Kind returns the variant name.
func (DebugUpdateDone) Kind() string { return "DebugUpdateDone" }

// Kind returns the variant name.
func (RequestDebugState) Kind() string { return "RequestDebugState" }

// EncodeTo implements protocol.Encodable.
func (m DebugMessage) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(ClientDebugMessage)
	m.Command.EncodeTo(e)
}

// EncodeTo implements protocol.Encodable.
func (m ActionMessage) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(ClientActionMessage)
	m.Action.EncodeTo(e)
}

// EncodeTo implements protocol.Encodable.
func (DebugUpdateDone) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(ClientDebugUpdateDone)
}

// EncodeTo implements protocol.Encodable.
func (RequestDebugState) EncodeTo(e *protocol.Encoder) {
	e.WriteTag(ClientRequestDebugState)
}

// DecodeClientMessage reads a tagged ClientMessage.
func DecodeClientMessage(d *protocol.Decoder) (ClientMessage, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case ClientDebugMessage:
		cmd, err := DecodeDebugCommand(d)
		if err != nil {
			return nil, err
		}
		return DebugMessage{Command: cmd}, nil
	case ClientActionMessage:
		action, err := DecodeAction(d)
		if err != nil {
			return nil, err
		}
		return ActionMessage{Action: action}, nil
	case ClientDebugUpdateDone:
		return DebugUpdateDone{}, nil
	case ClientRequestDebugState:
		return RequestDebugState{}, nil
	default:
		return nil, protocol.UnknownTag("ClientMessage", tag)
	}
}
