package mqtt311

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
)

// quicALPN is the ALPN protocol name negotiated for MQTT over QUIC.
const quicALPN = "mqtt"

// defaultQUICTLSConfig returns the TLS configuration used when the
// caller supplies none. QUIC mandates TLS 1.3.
func defaultQUICTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS13,
		NextProtos: []string{quicALPN},
	}
}

// QUICConn adapts one bidirectional QUIC stream to net.Conn so the
// packet codec can treat it like any other transport. The stream
// carries the MQTT session; closing the conn closes the stream and
// then the underlying connection.
type QUICConn struct {
	conn   *quic.Conn
	stream *quic.Stream

	closeOnce sync.Once
	closeErr  error
}

func (c *QUICConn) Read(b []byte) (int, error) {
	return c.stream.Read(b)
}

func (c *QUICConn) Write(b []byte) (int, error) {
	return c.stream.Write(b)
}

// Close tears down the stream and the QUIC connection. Safe to call
// more than once; later calls return the first outcome.
func (c *QUICConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.stream.Close()
		if err := c.conn.CloseWithError(0, ""); c.closeErr == nil {
			c.closeErr = err
		}
	})

	return c.closeErr
}

// LocalAddr returns the local network address.
func (c *QUICConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *QUICConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline sets the read and write deadlines on the stream.
func (c *QUICConn) SetDeadline(t time.Time) error {
	if err := c.stream.SetReadDeadline(t); err != nil {
		return err
	}
	return c.stream.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline on the stream.
func (c *QUICConn) SetReadDeadline(t time.Time) error {
	return c.stream.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline on the stream.
func (c *QUICConn) SetWriteDeadline(t time.Time) error {
	return c.stream.SetWriteDeadline(t)
}

// QUICDialer connects to MQTT brokers over QUIC. Each Dial opens one
// connection with one bidirectional stream for the session.
type QUICDialer struct {
	// TLSConfig is the TLS configuration for the connection. QUIC
	// requires TLS 1.3; a nil config gets a default with the mqtt ALPN.
	TLSConfig *tls.Config

	// QUICConfig tunes the QUIC layer. nil selects quic-go defaults.
	QUICConfig *quic.Config
}

// NewQUICDialer creates a QUIC dialer. A nil tlsConfig selects a
// TLS 1.3 default with the mqtt ALPN.
func NewQUICDialer(tlsConfig *tls.Config) *QUICDialer {
	if tlsConfig == nil {
		tlsConfig = defaultQUICTLSConfig()
	}

	return &QUICDialer{TLSConfig: tlsConfig}
}

// Dial connects to a host:port address and opens the session stream.
func (d *QUICDialer) Dial(ctx context.Context, address string) (Conn, error) {
	tlsConfig := d.TLSConfig
	switch {
	case tlsConfig == nil:
		tlsConfig = defaultQUICTLSConfig()
	case len(tlsConfig.NextProtos) == 0:
		// The ALPN default lands on a clone so the caller's config is
		// never mutated.
		tlsConfig = tlsConfig.Clone()
		tlsConfig.NextProtos = []string{quicALPN}
	}

	conn, err := quic.DialAddr(ctx, address, tlsConfig, d.QUICConfig)
	if err != nil {
		return nil, err
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "failed to open stream")
		return nil, err
	}

	return &QUICConn{conn: conn, stream: stream}, nil
}
