package mqtt311

import (
	"context"
	"errors"
)

// ErrNilPublication is returned by Publish when given a nil publication.
var ErrNilPublication = errors.New("nil publication")

// PublishHandle publishes application messages through a Client. It is
// a value type: copies share the client and are safe for concurrent use
// from any goroutine.
type PublishHandle struct {
	c *Client
}

// PublishHandle returns a publishing handle. The first handle call or
// NextEvent starts the engine.
func (c *Client) PublishHandle() PublishHandle {
	return PublishHandle{c: c}
}

// Publish submits a publication and blocks until its delivery promise
// resolves: after the write for QoS 0, on PUBACK for QoS 1, on PUBCOMP
// for QoS 2. Promises survive reconnects. ctx bounds only this wait;
// abandoning it does not withdraw the request.
func (h PublishHandle) Publish(ctx context.Context, pub *Publication) error {
	if pub == nil {
		return ErrNilPublication
	}
	if err := pub.Validate(); err != nil {
		return err
	}

	req := newRequest(requestPublish)
	req.pub = pub

	return h.c.submit(ctx, req)
}

// SubscriptionHandle manages subscription state through a Client. It is
// a value type: copies share the client and are safe for concurrent use
// from any goroutine.
type SubscriptionHandle struct {
	c *Client
}

// SubscriptionHandle returns a subscription handle. The first handle
// call or NextEvent starts the engine.
func (c *Client) SubscriptionHandle() SubscriptionHandle {
	return SubscriptionHandle{c: c}
}

// Subscribe requests a subscription at the given QoS and blocks until
// the broker acknowledges it. A SUBACK failure code resolves the wait
// with a *SubscribeError. The granted level arrives in the
// SubscriptionsEvent; after a session loss the engine re-requests the
// level asked for here, not the granted one.
func (h SubscriptionHandle) Subscribe(ctx context.Context, filter string, qos QoS) error {
	if err := ValidateTopicFilter(filter); err != nil {
		return err
	}
	if !qos.Valid() {
		return ErrInvalidQoS
	}

	req := newRequest(requestSubscribe)
	req.subs = []Subscription{{TopicFilter: filter, QoS: qos}}

	return h.c.submit(ctx, req)
}

// Unsubscribe removes a subscription and blocks until the broker
// acknowledges it. UNSUBACK carries no failure codes, so the wait
// resolves without error whether or not the filter was subscribed.
func (h SubscriptionHandle) Unsubscribe(ctx context.Context, filter string) error {
	if err := ValidateTopicFilter(filter); err != nil {
		return err
	}

	req := newRequest(requestUnsubscribe)
	req.filters = []string{filter}

	return h.c.submit(ctx, req)
}

// ShutdownHandle stops a Client. It is a value type: copies share the
// client and are safe for concurrent use from any goroutine.
type ShutdownHandle struct {
	c *Client
}

// ShutdownHandle returns a shutdown handle.
func (c *Client) ShutdownHandle() ShutdownHandle {
	return ShutdownHandle{c: c}
}

// Shutdown stops the engine: when connected it sends DISCONNECT first
// so the broker discards the will, then fails every pending request
// with ErrClientClosed and closes the event stream. Shutdown is
// idempotent; concurrent and repeated calls all return nil once the
// engine has stopped.
func (h ShutdownHandle) Shutdown(ctx context.Context) error {
	c := h.c
	c.ensureStarted()

	req := newRequest(requestShutdown)

	// Deliver through the command channel so shutdown is ordered after
	// every request accepted before it, then trip the signal that wakes
	// the dial and backoff waits.
	select {
	case c.commands <- req:
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	c.signalShutdown()

	select {
	case err := <-req.done:
		return err
	case <-c.done:
		select {
		case err := <-req.done:
			return err
		default:
			return nil
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
