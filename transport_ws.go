package mqtt311

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketSubprotocol is the subprotocol name MQTT registers for
// WebSocket transports.
const WebSocketSubprotocol = "mqtt"

// wsBufferSize sizes the read and write buffers of the default dialer.
const wsBufferSize = 4096

// WSConn adapts a WebSocket connection to net.Conn. MQTT control
// packets travel as binary messages; message boundaries need not align
// with packet boundaries, so reads drain a buffered message before
// pulling the next one.
type WSConn struct {
	conn *websocket.Conn

	// pending holds the unread tail of the last binary message.
	pending []byte
}

func newWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// Read returns buffered message bytes first, then blocks for the next
// binary message. A text frame on an MQTT connection is a protocol
// violation.
func (c *WSConn) Read(b []byte) (int, error) {
	if len(c.pending) == 0 {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if messageType != websocket.BinaryMessage {
			return 0, ErrProtocolViolation
		}
		c.pending = data
	}

	n := copy(b, c.pending)
	c.pending = c.pending[n:]

	return n, nil
}

// Write sends b as one binary message.
func (c *WSConn) Write(b []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}

	return len(b), nil
}

// Close closes the underlying connection.
func (c *WSConn) Close() error {
	return c.conn.Close()
}

// LocalAddr returns the local network address.
func (c *WSConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *WSConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline sets the read and write deadlines.
func (c *WSConn) SetDeadline(t time.Time) error {
	if err := c.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline.
func (c *WSConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline.
func (c *WSConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// WSDialer connects to MQTT brokers over WebSocket. The address passed
// to Dial is the full ws:// or wss:// URL.
type WSDialer struct {
	// Dialer is the underlying WebSocket dialer. nil selects
	// websocket.DefaultDialer, which does not announce the mqtt
	// subprotocol; prefer NewWSDialer.
	Dialer *websocket.Dialer

	// Header carries extra HTTP headers for the handshake request.
	Header http.Header
}

// NewWSDialer creates a WebSocket dialer announcing the mqtt
// subprotocol.
func NewWSDialer() *WSDialer {
	return &WSDialer{
		Dialer: &websocket.Dialer{
			Subprotocols:    []string{WebSocketSubprotocol},
			ReadBufferSize:  wsBufferSize,
			WriteBufferSize: wsBufferSize,
		},
	}
}

// Dial performs the WebSocket handshake against the URL and wraps the
// result as a Conn.
func (d *WSDialer) Dial(ctx context.Context, address string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	header := d.Header
	if header == nil {
		header = http.Header{}
	}

	conn, _, err := dialer.DialContext(ctx, address, header)
	if err != nil {
		return nil, err
	}

	return newWSConn(conn), nil
}

// SetProxyFromEnvironment routes the handshake through the proxy named
// by the HTTP_PROXY, HTTPS_PROXY and NO_PROXY environment variables.
func (d *WSDialer) SetProxyFromEnvironment() {
	if d.Dialer == nil {
		d.Dialer = &websocket.Dialer{
			Subprotocols: []string{WebSocketSubprotocol},
		}
	}
	d.Dialer.Proxy = http.ProxyFromEnvironment
}
