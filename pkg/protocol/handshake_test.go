package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestClientHelloEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		hello *ClientHello
	}{
		{
			name:  "default_token",
			hello: NewClientHello("", 2),
		},
		{
			name:  "custom_token",
			hello: &ClientHello{Token: "a1b2c3d4e5f6a7b8", Version: 1},
		},
		{
			name:  "negative_version",
			hello: &ClientHello{Token: "x", Version: -1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeClientHello(NewBytesDecoder(Marshal(tc.hello)))
			if err != nil {
				t.Fatalf("DecodeClientHello() error = %v", err)
			}
			if *decoded != *tc.hello {
				t.Errorf("decoded = %+v, want %+v", decoded, tc.hello)
			}
		})
	}
}

func TestNewClientHelloDefaultsToken(t *testing.T) {
	if got := NewClientHello("", 2).Token; got != DefaultToken {
		t.Errorf("Token = %q, want %q", got, DefaultToken)
	}
}

func TestServerHelloEncodeDecode(t *testing.T) {
	tests := []struct {
		name  string
		hello *ServerHello
	}{
		{"ok", NewServerHello(2)},
		{"version_mismatch", NewServerHelloError(HandshakeVersionMismatch, 2)},
		{"invalid_token", NewServerHelloError(HandshakeInvalidToken, 2)},
		{"busy", NewServerHelloError(HandshakeServerBusy, 2)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeServerHello(NewBytesDecoder(Marshal(tc.hello)))
			if err != nil {
				t.Fatalf("DecodeServerHello() error = %v", err)
			}
			if *decoded != *tc.hello {
				t.Errorf("decoded = %+v, want %+v", decoded, tc.hello)
			}
		})
	}
}

func TestServerHelloErr(t *testing.T) {
	if err := NewServerHello(2).Err(); err != nil {
		t.Errorf("OK hello Err() = %v", err)
	}

	err := NewServerHelloError(HandshakeVersionMismatch, 3).Err()
	var he *HandshakeError
	if !errors.As(err, &he) {
		t.Fatalf("Err() = %v, want *HandshakeError", err)
	}
	if he.Status != HandshakeVersionMismatch || he.ServerVersion != 3 {
		t.Errorf("HandshakeError = %+v", he)
	}
	if !strings.Contains(err.Error(), "version 3") {
		t.Errorf("Error() = %q, want server version mentioned", err.Error())
	}
}

func TestHandshakeStatusString(t *testing.T) {
	tests := []struct {
		status HandshakeStatus
		want   string
	}{
		{HandshakeOK, "OK"},
		{HandshakeVersionMismatch, "VersionMismatch"},
		{HandshakeInvalidToken, "InvalidToken"},
		{HandshakeServerBusy, "ServerBusy"},
		{HandshakeStatus(42), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("HandshakeStatus(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestHandshakeTruncated(t *testing.T) {
	data := Marshal(&ClientHello{Token: "abcdef", Version: 2})
	for n := 0; n < len(data); n++ {
		if _, err := DecodeClientHello(NewBytesDecoder(data[:n])); !errors.Is(err, ErrTruncated) {
			t.Errorf("prefix %d: error = %v, want ErrTruncated", n, err)
		}
	}
}
