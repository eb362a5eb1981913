package mqtt311

import (
	"context"
	"sync"
)

// Event is a notification from the session engine, delivered in order
// through Client.NextEvent. Concrete types: *ConnectedEvent,
// *PublicationEvent, *SubscriptionsEvent, *DisconnectedEvent.
type Event interface {
	isEvent()
}

// ConnectedEvent is emitted after every successful CONNECT/CONNACK
// exchange, including reconnects.
type ConnectedEvent struct {
	// SessionPresent reports whether the broker resumed an existing
	// session. When false, the engine has replayed its subscriptions
	// and re-queued unacknowledged requests as fresh ones.
	SessionPresent bool
}

func (*ConnectedEvent) isEvent() {}

// PublicationEvent carries one inbound PUBLISH delivered to this
// client. Within a connection, QoS 2 duplicates are suppressed; after
// a reconnect the broker may legitimately redeliver QoS 1 and QoS 2
// publications, and those arrive as separate events.
type PublicationEvent struct {
	Publication *Publication
}

func (*PublicationEvent) isEvent() {}

// SubscriptionUpdate describes one topic filter acted on by a SUBACK
// or UNSUBACK.
type SubscriptionUpdate struct {
	TopicFilter string

	// Subscribed is true for a SUBACK entry and false for an
	// UNSUBACK one.
	Subscribed bool

	// Code is the broker's SUBACK return code for the filter: the
	// granted QoS, or SubackFailure. Meaningful only when Subscribed.
	Code SubackCode
}

// SubscriptionsEvent is emitted for every SUBACK and UNSUBACK,
// including subscription replay after a reconnect without session
// state.
type SubscriptionsEvent struct {
	Updates []SubscriptionUpdate
}

func (*SubscriptionsEvent) isEvent() {}

// DisconnectedEvent is emitted when a connection attempt ends for any
// reason other than shutdown. Err carries the cause: a
// *ConnectionLostError for transport and protocol failures, a
// *ConnectError when the broker refused the CONNECT, or
// ErrKeepAliveTimeout. The engine keeps reconnecting after emitting
// it.
type DisconnectedEvent struct {
	Err error
}

func (*DisconnectedEvent) isEvent() {}

// eventQueue is the ordered, unbounded queue behind Client.NextEvent.
// The engine pushes, any number of consumers pop; once closed it keeps
// serving queued events until drained.
type eventQueue struct {
	mu       sync.Mutex
	events   []Event
	notEmpty chan struct{}
	closed   bool
}

func newEventQueue() *eventQueue {
	return &eventQueue{notEmpty: make(chan struct{})}
}

func (q *eventQueue) notifyLocked() {
	close(q.notEmpty)
	q.notEmpty = make(chan struct{})
}

// Push appends an event. Pushing after Close is a no-op.
func (q *eventQueue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.events = append(q.events, ev)
	q.notifyLocked()
}

// Pop returns the next event, blocking until one is available, the
// context ends, or the queue is both closed and drained (then
// ErrClientClosed).
func (q *eventQueue) Pop(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events[0] = nil
			q.events = q.events[1:]
			q.mu.Unlock()

			return ev, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClientClosed
		}
		wait := q.notEmpty
		q.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.events)
}

// Close marks the end of the event sequence. Queued events remain
// readable; Pop returns ErrClientClosed once they are drained.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	q.notifyLocked()
}
