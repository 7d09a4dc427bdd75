package model

// SchemaName identifies the game schema compiled into this package.
const SchemaName = "codegame"

// SchemaVersion is the schema version this package encodes.
const SchemaVersion int32 = 2

// Schema describes the protocol rules a schema version pins down.
// Both peers agree on a version during the handshake; after that neither
// side guesses at the debug sub-protocol.
type Schema struct {
	// Version is the schema version number exchanged in the handshake.
	Version int32

	// DebugUpdateAck reports whether a client answers every DebugUpdate with
	// DebugUpdateDone.
	DebugUpdateAck bool

	// DebugStateRequests reports whether a client may send RequestDebugState
	// and read a DebugState reply.
	DebugStateRequests bool
}

// Lookup returns the schema for version. The second result is false for
// versions this package cannot speak.
func Lookup(version int32) (Schema, bool) {
	switch version {
	case 1:
		return Schema{Version: 1}, true
	case 2:
		return Schema{Version: 2, DebugUpdateAck: true, DebugStateRequests: true}, true
	default:
		return Schema{}, false
	}
}

// Current returns the schema for SchemaVersion.
func Current() Schema {
	s, _ := Lookup(SchemaVersion)
	return s
}

// Supported returns every schema version Lookup accepts, oldest first.
func Supported() []int32 {
	return []int32{1, 2}
}
