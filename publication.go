package mqtt311

import "errors"

// QoS is an MQTT Quality of Service level.
type QoS byte

// Quality of Service levels.
// MQTT v3.1.1 spec: Section 4.3
const (
	// QoS0 delivers a message at most once, with no acknowledgment.
	QoS0 QoS = 0

	// QoS1 delivers a message at least once, acknowledged by PUBACK.
	QoS1 QoS = 1

	// QoS2 delivers a message exactly once per connection, using the
	// PUBREC/PUBREL/PUBCOMP handshake.
	QoS2 QoS = 2
)

// String returns the string representation of the QoS level.
func (q QoS) String() string {
	switch q {
	case QoS0:
		return "at-most-once"
	case QoS1:
		return "at-least-once"
	case QoS2:
		return "exactly-once"
	default:
		return "invalid"
	}
}

// Valid returns true if the QoS level is 0, 1 or 2.
func (q QoS) Valid() bool {
	return q <= QoS2
}

// ErrInvalidQoS is returned when a QoS level outside 0..2 is supplied.
var ErrInvalidQoS = errors.New("invalid QoS level")

// Publication is an MQTT application message: what a publisher hands to the
// engine and what a subscriber receives from the event stream.
//
// A Publication is immutable once handed to the engine. The engine never
// mutates it, and callers must not modify the Payload slice after passing
// it to PublishHandle.Publish.
type Publication struct {
	// Topic is the topic name to publish to or received from.
	// Must be a valid topic name (no wildcards).
	Topic string

	// QoS is the Quality of Service level (0, 1, or 2).
	QoS QoS

	// Retain indicates if the broker should retain this message.
	// On received publications it marks a retained delivery.
	Retain bool

	// Payload is the application message payload.
	Payload []byte
}

// Clone creates a deep copy of the publication.
func (p *Publication) Clone() *Publication {
	if p == nil {
		return nil
	}

	clone := &Publication{
		Topic:  p.Topic,
		QoS:    p.QoS,
		Retain: p.Retain,
	}

	if p.Payload != nil {
		clone.Payload = make([]byte, len(p.Payload))
		copy(clone.Payload, p.Payload)
	}

	return clone
}

// Validate checks the publication for protocol legality.
func (p *Publication) Validate() error {
	if err := ValidateTopicName(p.Topic); err != nil {
		return err
	}
	if !p.QoS.Valid() {
		return ErrInvalidQoS
	}
	return nil
}

// Will is a publication the broker sends on the client's behalf when the
// connection terminates abnormally. It is attached to the session at CONNECT
// time and owned by the session for its entire lifetime; changing it
// requires constructing a new client.
// MQTT v3.1.1 spec: Section 3.1.2.5
type Will struct {
	// Topic is the topic the broker publishes the will to.
	Topic string

	// QoS is the Quality of Service level for the will publication.
	QoS QoS

	// Retain indicates if the broker should retain the will publication.
	Retain bool

	// Payload is the will message payload.
	Payload []byte
}

// Validate checks the will for protocol legality.
func (w *Will) Validate() error {
	if err := ValidateTopicName(w.Topic); err != nil {
		return err
	}
	if !w.QoS.Valid() {
		return ErrInvalidQoS
	}
	return nil
}
