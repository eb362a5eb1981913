package mqtt311

import (
	"crypto/tls"
	"errors"
	"time"
)

// Configuration errors returned by NewClient.
var (
	ErrInvalidKeepAlive      = errors.New("keep-alive must be zero or between 1 and 65535 seconds")
	ErrInvalidBackoff        = errors.New("backoff base must be positive and no larger than the maximum")
	ErrInvalidConnectTimeout = errors.New("connect timeout must be positive")
)

// clientOptions holds configuration for a Client.
type clientOptions struct {
	// Connection settings
	clientID     string
	username     string
	password     []byte
	keepAlive    time.Duration
	cleanSession bool
	will         *Will

	// TLS configuration for the scheme-selected dialer
	tlsConfig *tls.Config

	// Transport
	dialer       Dialer
	proxyConfig  *ProxyConfig
	proxyFromEnv bool

	// Timeouts
	connectTimeout time.Duration

	// Reconnect backoff
	backoffBase     time.Duration
	maxBackoff      time.Duration
	backoffStrategy BackoffStrategy

	// Limits
	maxPacketSize uint32

	logger Logger
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *clientOptions {
	return &clientOptions{
		keepAlive:      5 * time.Second,
		cleanSession:   true,
		connectTimeout: 30 * time.Second,
		backoffBase:    1 * time.Second,
		maxBackoff:     30 * time.Second,
		maxPacketSize:  MaxPacketSizeDefault,
		logger:         NewNoOpLogger(),
	}
}

// validate rejects configurations the engine cannot run with. Called
// once by NewClient; per-request validation happens at the handles.
func (o *clientOptions) validate() error {
	if len(o.clientID) > maxUint16 {
		return ErrClientIDTooLong
	}
	if o.clientID == "" && !o.cleanSession {
		return ErrClientIDRequired
	}
	if o.keepAlive < 0 || (o.keepAlive > 0 && o.keepAlive < time.Second) || o.keepAlive/time.Second > maxUint16 {
		return ErrInvalidKeepAlive
	}
	if o.backoffBase <= 0 || o.maxBackoff < o.backoffBase {
		return ErrInvalidBackoff
	}
	if o.connectTimeout <= 0 {
		return ErrInvalidConnectTimeout
	}
	if o.will != nil {
		if err := o.will.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// keepAliveSeconds returns the keep-alive interval as the whole seconds
// carried in the CONNECT packet.
func (o *clientOptions) keepAliveSeconds() uint16 {
	return uint16(o.keepAlive / time.Second)
}

// Option configures a Client.
type Option func(*clientOptions)

// WithClientID sets the client identifier. An empty identifier asks the
// broker to assign one, which the protocol allows only together with a
// clean session.
func WithClientID(id string) Option {
	return func(o *clientOptions) {
		o.clientID = id
	}
}

// WithCredentials sets the username and password for authentication.
func WithCredentials(username, password string) Option {
	return func(o *clientOptions) {
		o.username = username
		o.password = []byte(password)
	}
}

// WithWill sets the Will message the broker publishes if the client
// disconnects unexpectedly. The will is fixed for the lifetime of the
// client; changing it requires constructing a new one.
func WithWill(will *Will) Option {
	return func(o *clientOptions) {
		o.will = will
	}
}

// WithKeepAlive sets the keep-alive interval. The engine sends a
// PINGREQ after a full interval without outbound traffic and fails the
// connection after 1.5 intervals without inbound traffic. Zero disables
// keep-alive.
func WithKeepAlive(d time.Duration) Option {
	return func(o *clientOptions) {
		o.keepAlive = d
	}
}

// WithCleanSession sets whether the broker should discard any previous
// session state on connect.
func WithCleanSession(clean bool) Option {
	return func(o *clientOptions) {
		o.cleanSession = clean
	}
}

// WithTLS sets the TLS configuration used by the scheme-selected dialer
// for tls://, ssl://, wss:// and quic:// addresses. Ignored when
// WithDialer is set.
func WithTLS(config *tls.Config) Option {
	return func(o *clientOptions) {
		o.tlsConfig = config
	}
}

// WithDialer sets the transport dialer, overriding the one selected
// from the address scheme.
func WithDialer(dialer Dialer) Option {
	return func(o *clientOptions) {
		o.dialer = dialer
	}
}

// WithProxy routes connections through the given proxy. Supported URL
// schemes: http and https (HTTP CONNECT) and socks5. Ignored when
// WithDialer is set. Proxying applies to TCP, TLS and WebSocket
// transports; Unix sockets and QUIC connect directly.
func WithProxy(proxyURL string) Option {
	return func(o *clientOptions) {
		o.proxyConfig = &ProxyConfig{URL: proxyURL}
	}
}

// WithProxyAuth routes connections through a proxy that requires
// authentication.
func WithProxyAuth(proxyURL, username, password string) Option {
	return func(o *clientOptions) {
		o.proxyConfig = &ProxyConfig{
			URL:      proxyURL,
			Username: username,
			Password: password,
		}
	}
}

// WithProxyFromEnvironment selects the proxy from the HTTP_PROXY,
// HTTPS_PROXY, and NO_PROXY environment variables. An explicit
// WithProxy takes precedence.
func WithProxyFromEnvironment(enabled bool) Option {
	return func(o *clientOptions) {
		o.proxyFromEnv = enabled
	}
}

// WithConnectTimeout bounds each connection attempt: dialing plus the
// CONNECT/CONNACK exchange.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.connectTimeout = d
	}
}

// WithBackoffBase sets the delay before the first reconnect attempt.
// Subsequent failures double it up to the maximum.
func WithBackoffBase(d time.Duration) Option {
	return func(o *clientOptions) {
		o.backoffBase = d
	}
}

// WithMaxReconnectBackoff caps the delay between reconnect attempts.
func WithMaxReconnectBackoff(d time.Duration) Option {
	return func(o *clientOptions) {
		o.maxBackoff = d
	}
}

// WithBackoffStrategy sets a custom backoff strategy for reconnection
// attempts. If not set, uses exponential backoff (doubling) up to the
// maximum.
func WithBackoffStrategy(strategy BackoffStrategy) Option {
	return func(o *clientOptions) {
		o.backoffStrategy = strategy
	}
}

// WithMaxPacketSize sets the maximum packet size the client will accept.
// This limits the size of incoming MQTT packets to prevent memory
// exhaustion.
//
// Common values:
//   - MaxPacketSizeDefault (4MB): typical broker default
//   - MaxPacketSizeMinimal (16KB): constrained IoT devices
//
// Values exceeding MaxPacketSizeProtocol are clamped to the protocol
// maximum. Zero disables the bound.
//
// Default: MaxPacketSizeDefault (4MB)
func WithMaxPacketSize(size uint32) Option {
	return func(o *clientOptions) {
		if size > MaxPacketSizeProtocol {
			size = MaxPacketSizeProtocol
		}
		o.maxPacketSize = size
	}
}

// WithLogger sets the logger for engine diagnostics. The default
// discards everything.
func WithLogger(logger Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// applyOptions applies all options to the default options.
func applyOptions(opts ...Option) *clientOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
