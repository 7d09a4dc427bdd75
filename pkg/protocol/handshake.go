package protocol

import "fmt"

// HandshakeStatus represents the result of a handshake.
type HandshakeStatus int32

const (
	HandshakeOK              HandshakeStatus = 0
	HandshakeVersionMismatch HandshakeStatus = 1
	HandshakeInvalidToken    HandshakeStatus = 2
	HandshakeServerBusy      HandshakeStatus = 3
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case HandshakeOK:
		return "OK"
	case HandshakeVersionMismatch:
		return "VersionMismatch"
	case HandshakeInvalidToken:
		return "InvalidToken"
	case HandshakeServerBusy:
		return "ServerBusy"
	default:
		return "Unknown"
	}
}

// DefaultToken is the token reference clients send when none is configured.
const DefaultToken = "0000000000000000"

// ClientHello is the first value a client writes after connecting.
type ClientHello struct {
	Token   string // Access token issued by the host
	Version int32  // Schema version the client was built against
}

// ServerHello is the server's response to ClientHello.
type ServerHello struct {
	Status  HandshakeStatus // Handshake result
	Version int32           // Schema version the server speaks
}

// EncodeTo encodes a ClientHello using the provided encoder.
func (ch *ClientHello) EncodeTo(e *Encoder) {
	e.WriteString(ch.Token)
	e.WriteInt32(ch.Version)
}

// DecodeClientHello decodes a ClientHello from a decoder.
func DecodeClientHello(d *Decoder) (*ClientHello, error) {
	ch := &ClientHello{}
	var err error

	ch.Token, err = d.ReadString()
	if err != nil {
		return nil, err
	}

	ch.Version, err = d.ReadInt32()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

// EncodeTo encodes a ServerHello using the provided encoder.
func (sh *ServerHello) EncodeTo(e *Encoder) {
	e.WriteInt32(int32(sh.Status))
	e.WriteInt32(sh.Version)
}

// DecodeServerHello decodes a ServerHello from a decoder.
func DecodeServerHello(d *Decoder) (*ServerHello, error) {
	status, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}

	version, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}

	return &ServerHello{
		Status:  HandshakeStatus(status),
		Version: version,
	}, nil
}

// Err returns nil for an accepted handshake and a *HandshakeError otherwise.
func (sh *ServerHello) Err() error {
	if sh.Status == HandshakeOK {
		return nil
	}
	return &HandshakeError{Status: sh.Status, ServerVersion: sh.Version}
}

// HandshakeError is returned when the peer rejects the handshake.
type HandshakeError struct {
	Status        HandshakeStatus
	ServerVersion int32
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	if e.Status == HandshakeVersionMismatch {
		return fmt.Sprintf("protocol: handshake rejected: %s (server speaks version %d)", e.Status, e.ServerVersion)
	}
	return "protocol: handshake rejected: " + e.Status.String()
}

// NewClientHello creates a ClientHello, falling back to DefaultToken.
func NewClientHello(token string, version int32) *ClientHello {
	if token == "" {
		token = DefaultToken
	}
	return &ClientHello{
		Token:   token,
		Version: version,
	}
}

// NewServerHello creates a successful ServerHello.
func NewServerHello(version int32) *ServerHello {
	return &ServerHello{
		Status:  HandshakeOK,
		Version: version,
	}
}

// NewServerHelloError creates a ServerHello with an error status.
func NewServerHelloError(status HandshakeStatus, version int32) *ServerHello {
	return &ServerHello{
		Status:  status,
		Version: version,
	}
}
