package mqtt311

// ConnectReturnCode represents the return code in a CONNACK packet.
// MQTT v3.1.1 spec: Section 3.2.2.3
type ConnectReturnCode byte

// CONNACK return codes. Values above 5 are reserved.
const (
	// ConnectionAccepted: the broker accepted the connection.
	ConnectionAccepted ConnectReturnCode = 0x00
	// ConnectionRefusedProtocolVersion: unacceptable protocol level.
	ConnectionRefusedProtocolVersion ConnectReturnCode = 0x01
	// ConnectionRefusedIdentifier: client identifier is not allowed.
	ConnectionRefusedIdentifier ConnectReturnCode = 0x02
	// ConnectionRefusedServerUnavailable: the MQTT service is unavailable.
	ConnectionRefusedServerUnavailable ConnectReturnCode = 0x03
	// ConnectionRefusedBadCredentials: malformed user name or password.
	ConnectionRefusedBadCredentials ConnectReturnCode = 0x04
	// ConnectionRefusedNotAuthorized: the client is not authorized to connect.
	ConnectionRefusedNotAuthorized ConnectReturnCode = 0x05
)

// String returns a human-readable description of the return code.
func (c ConnectReturnCode) String() string {
	switch c {
	case ConnectionAccepted:
		return "connection accepted"
	case ConnectionRefusedProtocolVersion:
		return "unacceptable protocol version"
	case ConnectionRefusedIdentifier:
		return "identifier rejected"
	case ConnectionRefusedServerUnavailable:
		return "server unavailable"
	case ConnectionRefusedBadCredentials:
		return "bad user name or password"
	case ConnectionRefusedNotAuthorized:
		return "not authorized"
	default:
		return "reserved return code"
	}
}

// Valid returns true if the return code is one defined by the specification.
func (c ConnectReturnCode) Valid() bool {
	return c <= ConnectionRefusedNotAuthorized
}

// SubackCode represents a per-filter return code in a SUBACK packet.
// MQTT v3.1.1 spec: Section 3.9.3
type SubackCode byte

// SUBACK return codes: the granted maximum QoS, or failure.
const (
	SubackGrantedQoS0 SubackCode = 0x00
	SubackGrantedQoS1 SubackCode = 0x01
	SubackGrantedQoS2 SubackCode = 0x02
	SubackFailure     SubackCode = 0x80
)

// String returns a human-readable description of the SUBACK code.
func (c SubackCode) String() string {
	switch c {
	case SubackGrantedQoS0:
		return "granted QoS 0"
	case SubackGrantedQoS1:
		return "granted QoS 1"
	case SubackGrantedQoS2:
		return "granted QoS 2"
	case SubackFailure:
		return "subscription failed"
	default:
		return "reserved SUBACK code"
	}
}

// Valid returns true if the code is one defined by the specification.
func (c SubackCode) Valid() bool {
	return c <= SubackGrantedQoS2 || c == SubackFailure
}

// Granted returns true when the code reports a granted subscription, and
// the granted QoS level when it does.
func (c SubackCode) Granted() (QoS, bool) {
	if c > SubackGrantedQoS2 {
		return 0, false
	}
	return QoS(c), true
}
