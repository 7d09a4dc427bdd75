package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSConn adapts a WebSocket connection to an ordered byte stream.
//
// Each Write is sent as one binary message; Stream issues one Write per
// Flush unless a message overflows the write buffer. Reads concatenate the
// payloads of incoming binary messages, so message boundaries on the
// WebSocket carry no meaning. A normal or going-away close from the peer
// reads as io.EOF. A connection lost without a close frame (1006) is a read
// error, as a reset TCP connection is.
type WSConn struct {
	ws *websocket.Conn
	r  io.Reader

	closeOnce sync.Once
}

// WebSocketConn wraps ws.
func WebSocketConn(ws *websocket.Conn) *WSConn {
	return &WSConn{ws: ws}
}

// Read implements io.Reader.
func (c *WSConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			typ, r, err := c.ws.NextReader()
			if err != nil {
				return 0, wsReadError(err)
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			c.r = r
		}

		n, err := c.r.Read(p)
		if errors.Is(err, io.EOF) {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write implements io.Writer.
func (c *WSConn) Write(p []byte) (int, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a normal close frame and closes the connection.
func (c *WSConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = c.ws.Close()
	})
	return err
}

// SetReadDeadline sets the read deadline on the underlying connection.
func (c *WSConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline on the underlying connection.
func (c *WSConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

// RemoteAddr returns the peer's network address.
func (c *WSConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

func wsReadError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return io.EOF
	}
	return err
}

// DialWebSocket connects to a codegame WebSocket endpoint such as
// ws://host:port/ws.
func DialWebSocket(ctx context.Context, url string, header http.Header) (*WSConn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return WebSocketConn(ws), nil
}
