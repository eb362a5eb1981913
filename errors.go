package mqtt311

import "errors"

// Sentinel errors for the client lifecycle - check with errors.Is().
var (
	// ErrClientClosed is returned by handle calls and NextEvent once the
	// engine has stopped and, for NextEvent, the event queue is drained.
	ErrClientClosed = errors.New("client closed")

	// ErrConnectionLost is the base error of every *ConnectionLostError.
	ErrConnectionLost = errors.New("connection lost")

	// ErrKeepAliveTimeout ends a connection attempt when the broker sends
	// nothing for 1.5 keep-alive intervals.
	ErrKeepAliveTimeout = errors.New("keep-alive timeout")
)

// Sentinel errors for broker refusals - check with errors.Is().
var (
	// ErrConnectRefused is the base error of *ConnectError.
	ErrConnectRefused = errors.New("connect refused")

	// ErrAuthFailed is the base error of *ConnectError for the
	// bad-credentials and not-authorized return codes.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrSubscribeFailed is the base error of *SubscribeError.
	ErrSubscribeFailed = errors.New("subscribe failed")
)

// ConnectionLostError reports an unexpected end of a connection: a
// dial, read or write failure, or a protocol violation on the wire.
// Extract with errors.As(); Cause carries the underlying error.
type ConnectionLostError struct {
	err   error
	Cause error
}

func (e *ConnectionLostError) Error() string {
	if e.Cause != nil {
		return "connection lost: " + e.Cause.Error()
	}
	return "connection lost"
}

func (e *ConnectionLostError) Unwrap() error { return e.err }

// NewConnectionLostError creates a new ConnectionLostError.
func NewConnectionLostError(cause error) *ConnectionLostError {
	return &ConnectionLostError{
		err:   ErrConnectionLost,
		Cause: cause,
	}
}

// ConnectError reports a CONNACK with a non-zero return code. The
// engine still retries after backoff: refused credentials may be a
// transient broker condition. Extract with errors.As().
type ConnectError struct {
	err        error
	ReturnCode ConnectReturnCode
}

func (e *ConnectError) Error() string {
	return "connect failed: " + e.ReturnCode.String()
}

func (e *ConnectError) Unwrap() error { return e.err }

// NewConnectError creates a new ConnectError from a CONNACK return code.
func NewConnectError(code ConnectReturnCode) *ConnectError {
	baseErr := ErrConnectRefused
	if code == ConnectionRefusedBadCredentials || code == ConnectionRefusedNotAuthorized {
		baseErr = ErrAuthFailed
	}
	return &ConnectError{
		err:        baseErr,
		ReturnCode: code,
	}
}

// SubscribeError reports a SUBACK failure code for a topic filter.
// Extract with errors.As().
type SubscribeError struct {
	err         error
	TopicFilter string
}

func (e *SubscribeError) Error() string {
	return "subscribe failed: " + e.TopicFilter
}

func (e *SubscribeError) Unwrap() error { return e.err }

// NewSubscribeError creates a new SubscribeError.
func NewSubscribeError(filter string) *SubscribeError {
	return &SubscribeError{
		err:         ErrSubscribeFailed,
		TopicFilter: filter,
	}
}
