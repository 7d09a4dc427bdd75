// Package model defines the codegame schema: the world state a player sees,
// the actions it answers with, the debug side-channel and the tagged
// messages that carry them.
//
// Every type encodes itself with protocol.Encoder through EncodeTo and has a
// matching Decode function. Tagged unions are sealed interfaces; each
// variant writes its int32 discriminant before its fields:
//
//	ServerMessage = GetAction(0) | Finish(1) | DebugUpdate(2)
//	ClientMessage = DebugMessage(0) | ActionMessage(1)
//	              | DebugUpdateDone(2) | RequestDebugState(3)
//	DebugCommand  = DebugAdd(0) | DebugClear(1)
//	DebugData     = DebugLog(0) | DebugCircle(1) | DebugSegment(2)
//
// Discriminants are never reused for a different shape. Behavior that
// differs between schema versions is described by Schema; see Lookup.
package model
