package mqtt311

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Conn represents a network connection for MQTT communication.
// It extends net.Conn with MQTT-specific functionality.
type Conn interface {
	net.Conn
}

// Dialer establishes MQTT connections.
type Dialer interface {
	// Dial connects to the address with the given context.
	Dial(ctx context.Context, address string) (Conn, error)
}

// TCPDialer connects to MQTT brokers over TCP.
type TCPDialer struct {
	// Timeout is the maximum time to wait for a connection.
	// Zero means no timeout.
	Timeout time.Duration
}

// Dial connects to the address. The address may be a bare host:port or
// a tcp:// / mqtt:// URI.
func (d *TCPDialer) Dial(ctx context.Context, address string) (Conn, error) {
	var dialer net.Dialer
	if d.Timeout > 0 {
		dialer.Timeout = d.Timeout
	}
	return dialer.DialContext(ctx, "tcp", hostPortFromAddress(address, "1883"))
}

// TLSDialer connects to MQTT brokers over TLS.
type TLSDialer struct {
	// Config is the TLS configuration.
	Config *tls.Config

	// Timeout is the maximum time to wait for a connection.
	// Zero means no timeout.
	Timeout time.Duration
}

// Dial connects to the address. The address may be a bare host:port or
// a tls:// / ssl:// / mqtts:// URI.
func (d *TLSDialer) Dial(ctx context.Context, address string) (Conn, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{
			Timeout: d.Timeout,
		},
		Config: d.Config,
	}
	return dialer.DialContext(ctx, "tcp", hostPortFromAddress(address, "8883"))
}

// schemeDialer selects a concrete dialer from the address scheme at
// dial time. It is the transport used when no WithDialer option is
// given.
type schemeDialer struct {
	tlsConfig    *tls.Config
	proxyConfig  *ProxyConfig
	proxyFromEnv bool
}

// Dial dispatches on the address scheme. An address without a scheme is
// treated as a plain TCP host:port.
func (d *schemeDialer) Dial(ctx context.Context, address string) (Conn, error) {
	switch scheme := addressScheme(address); scheme {
	case "", "tcp", "mqtt", "ssl", "tls", "mqtts":
		proxyDialer, err := d.resolveProxy(address)
		if err != nil {
			return nil, err
		}
		if proxyDialer != nil {
			switch scheme {
			case "ssl", "tls", "mqtts":
				proxyDialer.TLSConfig = d.tlsConfig
			}
			return proxyDialer.Dial(ctx, address)
		}

		switch scheme {
		case "", "tcp", "mqtt":
			dialer := &TCPDialer{}
			return dialer.Dial(ctx, address)
		default:
			config := d.tlsConfig
			if config == nil {
				config = &tls.Config{MinVersion: tls.VersionTLS12}
			}
			dialer := &TLSDialer{Config: config}
			return dialer.Dial(ctx, address)
		}

	case "ws", "wss":
		dialer := NewWSDialer()
		if d.tlsConfig != nil && dialer.Dialer != nil {
			dialer.Dialer.TLSClientConfig = d.tlsConfig
		}
		// gorilla carries the proxy on the HTTP request, so the
		// environment route is the only one WebSocket supports
		if d.proxyConfig != nil || d.proxyFromEnv {
			dialer.SetProxyFromEnvironment()
		}
		// The WebSocket dialer takes the full URL.
		return dialer.Dial(ctx, address)

	case "unix":
		dialer := NewUnixDialer()
		return dialer.Dial(ctx, unixSocketPath(address))

	case "quic":
		dialer := NewQUICDialer(d.tlsConfig)
		return dialer.Dial(ctx, hostPortFromAddress(address, "8883"))

	default:
		return nil, fmt.Errorf("unsupported scheme: %s", scheme)
	}
}

// resolveProxy returns the proxy dialer for the target address, or nil
// when the connection should be direct. Explicit configuration wins
// over the environment.
func (d *schemeDialer) resolveProxy(address string) (*ProxyDialer, error) {
	if d.proxyConfig != nil {
		return NewProxyDialer(
			d.proxyConfig.URL,
			d.proxyConfig.Username,
			d.proxyConfig.Password,
		)
	}

	if d.proxyFromEnv {
		proxyURL, err := ProxyFromEnvironment(address)
		if err != nil {
			return nil, err
		}
		if proxyURL != nil {
			return NewProxyDialer(proxyURL.String(), "", "")
		}
	}

	return nil, nil
}

// addressScheme returns the URI scheme of an address, or "" when the
// address has none.
func addressScheme(address string) string {
	i := strings.Index(address, "://")
	if i < 0 {
		return ""
	}
	return address[:i]
}

// hostPortFromAddress strips any URI scheme and path from an address
// and fills in the default port when none is present.
func hostPortFromAddress(address, defaultPort string) string {
	if i := strings.Index(address, "://"); i >= 0 {
		address = address[i+3:]
	}
	if i := strings.IndexByte(address, '/'); i >= 0 {
		address = address[:i]
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, defaultPort)
	}
	return address
}

// unixSocketPath extracts the socket file path from a unix:// address:
// unix:///path/to/socket or unix://localhost/path/to/socket.
func unixSocketPath(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return address
	}

	socketPath := u.Path
	if socketPath == "" {
		socketPath = u.Host + u.Path
	}
	return socketPath
}
