package stream

import (
	"context"
	"net"
)

// DialTCP connects to addr with TuneTCP applied.
func DialTCP(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if err := TuneTCP(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// TuneTCP disables Nagle's algorithm on TCP connections. Every message is
// flushed as soon as it is complete.
// Other connection types are left alone.
func TuneTCP(conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		return tc.SetNoDelay(true)
	}
	return nil
}
