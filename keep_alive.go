package mqtt311

import "time"

// keepAliveTracker tracks transport activity for a single connection and
// decides when to send PINGREQ and when to declare the server
// unresponsive. The engine goroutine is the sole user, so there is no
// locking.
//
// A PINGREQ is due once nothing has been written for a full keep-alive
// interval. The connection is considered dead once nothing has been
// received for 1.5 intervals, the grace the MQTT spec suggests for
// servers. An interval of zero disables both checks.
type keepAliveTracker struct {
	interval time.Duration
	lastSent time.Time
	lastRecv time.Time
}

func newKeepAliveTracker(interval time.Duration, now time.Time) *keepAliveTracker {
	return &keepAliveTracker{
		interval: interval,
		lastSent: now,
		lastRecv: now,
	}
}

// grace is the receive window: 1.5 times the keep-alive interval.
func (t *keepAliveTracker) grace() time.Duration {
	return t.interval + t.interval/2
}

// Sent records an outbound packet. Any control packet counts, so a busy
// publisher never sends a PINGREQ.
func (t *keepAliveTracker) Sent(now time.Time) {
	t.lastSent = now
}

// Received records an inbound packet.
func (t *keepAliveTracker) Received(now time.Time) {
	t.lastRecv = now
}

// ShouldPing reports whether a PINGREQ is due.
func (t *keepAliveTracker) ShouldPing(now time.Time) bool {
	if t.interval == 0 {
		return false
	}

	return now.Sub(t.lastSent) >= t.interval
}

// Expired reports whether the server has been silent past the grace
// window.
func (t *keepAliveTracker) Expired(now time.Time) bool {
	if t.interval == 0 {
		return false
	}

	return now.Sub(t.lastRecv) >= t.grace()
}

// NextDeadline returns the earliest instant at which ShouldPing or
// Expired can change, so the engine can arm a single timer. Returns the
// zero time when keep-alive is disabled.
func (t *keepAliveTracker) NextDeadline() time.Time {
	if t.interval == 0 {
		return time.Time{}
	}

	pingAt := t.lastSent.Add(t.interval)
	expireAt := t.lastRecv.Add(t.grace())
	if pingAt.Before(expireAt) {
		return pingAt
	}

	return expireAt
}
