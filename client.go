package mqtt311

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrAddressRequired is returned by NewClient when no broker address is
// given.
var ErrAddressRequired = errors.New("broker address required")

// errShuttingDown aborts a connection attempt when shutdown trips
// mid-dial or mid-handshake. It never leaves the engine.
var errShuttingDown = errors.New("shutting down")

const (
	// commandQueueSize bounds requests accepted but not yet seen by the
	// engine goroutine. Submission blocks when it is full.
	commandQueueSize = 64

	// inboundQueueSize bounds packets read off the wire but not yet
	// processed.
	inboundQueueSize = 8

	// disconnectGrace bounds the DISCONNECT write during shutdown.
	disconnectGrace = time.Second
)

// clientState tracks where the engine is in its lifecycle. The engine
// goroutine is the sole writer; states appear in logs only.
type clientState int

const (
	stateConnecting clientState = iota
	stateConnected
	stateBackingOff
	stateShuttingDown
	stateStopped
)

// String returns the state name.
func (s clientState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateBackingOff:
		return "backing-off"
	case stateShuttingDown:
		return "shutting-down"
	case stateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// requestKind identifies what a request asks the engine to do.
type requestKind int

const (
	requestPublish requestKind = iota
	requestSubscribe
	requestUnsubscribe
	requestShutdown
)

// ackState records which acknowledgment an in-flight exchange waits for.
type ackState int

const (
	awaitingPuback ackState = iota
	awaitingPubrec
	awaitingPubcomp
	awaitingSuback
	awaitingUnsuback
)

// request is one application command travelling through the engine. The
// handle that created it waits on done; the engine goroutine owns every
// other field once the request is accepted.
type request struct {
	kind requestKind

	// pub carries the message for publish requests.
	pub *Publication

	// subs carries the filters for subscribe requests. Handle calls
	// submit exactly one; the replay after a session loss batches all
	// established subscriptions into one request.
	subs []Subscription

	// filters carries the filters for unsubscribe requests.
	filters []string

	packetID uint16
	state    ackState

	// done receives the request's outcome exactly once. nil for
	// engine-internal requests such as subscription replay.
	done     chan error
	resolved bool
}

func newRequest(kind requestKind) *request {
	return &request{kind: kind, done: make(chan error, 1)}
}

// resolve completes the request. Only the first outcome is delivered;
// later calls are no-ops.
func (r *request) resolve(err error) {
	if r.resolved {
		return
	}
	r.resolved = true

	if r.done != nil {
		r.done <- err
	}
}

// inbound is one reader-to-engine handoff: a decoded packet or the
// error that ended the connection.
type inbound struct {
	pkt Packet
	err error
}

// Client is an MQTT v3.1.1 session engine. It owns one broker
// connection at a time, reconnects with exponential backoff, and keeps
// QoS and subscription state alive across reconnects.
//
// A single goroutine owns the connection, the session and the packet id
// space. Applications talk to it through value handles (PublishHandle,
// SubscriptionHandle, ShutdownHandle) and consume the event stream via
// NextEvent. The engine starts lazily on the first handle call or
// NextEvent and runs until Shutdown.
type Client struct {
	address string
	options *clientOptions
	dialer  Dialer
	logger  Logger

	commands chan *request
	events   *eventQueue

	// shutdown wakes the dial and backoff waits; the command channel
	// carries the ordered shutdown request itself.
	shutdown     chan struct{}
	shutdownOnce sync.Once

	// done closes when the engine has stopped.
	done      chan struct{}
	startOnce sync.Once

	// Engine goroutine state. Nothing below is touched by handles.
	session   *session
	packetIDs *PacketIDAllocator
	backoff   *backoff
	keepAlive *keepAliveTracker
	state     clientState
}

// NewClient creates a client for the given broker address. The address
// scheme selects the transport: tcp:// or mqtt:// (plain TCP, also the
// default for bare host:port), ssl://, tls:// or mqtts:// (TLS), ws://
// and wss:// (WebSocket), unix:// (Unix domain socket) and quic://
// (QUIC). WithDialer overrides the scheme entirely.
//
// The engine does not connect yet; it starts on the first handle call
// or NextEvent.
func NewClient(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, ErrAddressRequired
	}

	options := applyOptions(opts...)
	if err := options.validate(); err != nil {
		return nil, err
	}

	dialer := options.dialer
	if dialer == nil {
		switch scheme := addressScheme(address); scheme {
		case "", "tcp", "mqtt", "ssl", "tls", "mqtts", "ws", "wss", "unix", "quic":
		default:
			return nil, fmt.Errorf("unsupported address scheme %q", scheme)
		}
		dialer = &schemeDialer{
			tlsConfig:    options.tlsConfig,
			proxyConfig:  options.proxyConfig,
			proxyFromEnv: options.proxyFromEnv,
		}
	}

	logger := options.logger.WithFields(LogFields{
		LogFieldClientID: options.clientID,
		LogFieldAddress:  address,
	})

	return &Client{
		address:   address,
		options:   options,
		dialer:    dialer,
		logger:    logger,
		commands:  make(chan *request, commandQueueSize),
		events:    newEventQueue(),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		session:   newSession(options.clientID, options.cleanSession),
		packetIDs: NewPacketIDAllocator(),
		backoff:   newBackoff(options.backoffBase, options.maxBackoff, options.backoffStrategy),
	}, nil
}

// NextEvent returns the next engine event, blocking until one arrives
// or ctx ends. After shutdown it drains the events that remain and then
// returns ErrClientClosed.
func (c *Client) NextEvent(ctx context.Context) (Event, error) {
	c.ensureStarted()
	return c.events.Pop(ctx)
}

// Done returns a channel that closes once the engine has stopped. A
// client that never started never closes it.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) ensureStarted() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

func (c *Client) signalShutdown() {
	c.shutdownOnce.Do(func() {
		close(c.shutdown)
	})
}

func (c *Client) isShutdown() bool {
	select {
	case <-c.shutdown:
		return true
	default:
		return false
	}
}

// submit hands a request to the engine and waits for its outcome. ctx
// bounds both the hand-off and the wait; an abandoned wait does not
// withdraw the request.
func (c *Client) submit(ctx context.Context, req *request) error {
	c.ensureStarted()

	select {
	case c.commands <- req:
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-c.done:
		// The engine stopped while we waited. Prefer the real outcome
		// if the final drain delivered one.
		select {
		case err := <-req.done:
			return err
		default:
			return ErrClientClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the engine goroutine: connect, serve, back off, repeat, until
// shutdown.
func (c *Client) run() {
	defer close(c.done)
	defer c.events.Close()

	for {
		if c.isShutdown() {
			c.finish(nil)
			return
		}

		shutdownReq, err := c.attempt()
		if shutdownReq != nil {
			c.finish(shutdownReq)
			return
		}
		if c.isShutdown() {
			c.finish(nil)
			return
		}

		c.logger.Warn("connection attempt failed", LogFields{LogFieldError: err})
		c.events.Push(&DisconnectedEvent{Err: err})

		c.setState(stateBackingOff)
		delay := c.backoff.Next(err)
		c.logger.Debug("backing off", LogFields{
			LogFieldAttempt: c.backoff.Attempt(),
			LogFieldDelay:   delay,
		})

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-c.shutdown:
			timer.Stop()
			c.finish(nil)
			return
		}
	}
}

// finish moves the engine to stopped: every pending request fails with
// ErrClientClosed and queued shutdown requests complete.
func (c *Client) finish(shutdownReq *request) {
	c.setState(stateShuttingDown)
	c.signalShutdown()

	for _, req := range c.session.DrainAll() {
		req.resolve(ErrClientClosed)
	}

	for {
		select {
		case req := <-c.commands:
			if req.kind == requestShutdown {
				req.resolve(nil)
			} else {
				req.resolve(ErrClientClosed)
			}
		default:
			if shutdownReq != nil {
				shutdownReq.resolve(nil)
			}
			c.setState(stateStopped)
			c.logger.Info("client stopped", nil)
			return
		}
	}
}

func (c *Client) setState(next clientState) {
	c.state = next
	c.logger.Debug("state change", LogFields{"state": next.String()})
}

// attempt runs one connection from dial to teardown. It returns the
// shutdown request when the connection ended because of one, otherwise
// the error that ended it.
func (c *Client) attempt() (*request, error) {
	c.setState(stateConnecting)
	c.logger.Info("connecting", nil)

	deadline := time.Now().Add(c.options.connectTimeout)

	conn, err := c.dialBroker(deadline)
	if err != nil {
		return nil, NewConnectionLostError(err)
	}

	readCh := make(chan inbound, inboundQueueSize)
	stop := make(chan struct{})
	go c.readPackets(conn, readCh, stop)

	teardown := func() {
		conn.Close()
		close(stop)
	}

	c.keepAlive = newKeepAliveTracker(c.options.keepAlive, time.Now())

	connack, err := c.handshake(conn, readCh, deadline)
	if err != nil {
		teardown()
		return nil, err
	}

	c.setState(stateConnected)
	c.backoff.Reset()

	sessionPresent := connack.SessionPresent
	if sessionPresent && c.session.cleanSession {
		// A broker resuming a clean session is out of spec; treat the
		// session as fresh.
		c.logger.Warn("session present with clean session requested", nil)
		sessionPresent = false
	}

	c.logger.Info("connected", LogFields{LogFieldSessionPresent: sessionPresent})
	c.events.Push(&ConnectedEvent{SessionPresent: sessionPresent})

	if sessionPresent {
		c.requeueSubscriptionChanges()
		if err := c.retransmitInflight(conn); err != nil {
			teardown()
			return nil, NewConnectionLostError(err)
		}
	} else {
		c.resetSessionState()
	}

	shutdownReq, err := c.serve(conn, readCh)
	if shutdownReq != nil {
		c.sendDisconnect(conn)
	}
	teardown()

	return shutdownReq, err
}

// dialBroker dials the broker, giving up at the deadline or when
// shutdown trips.
func (c *Client) dialBroker(deadline time.Time) (Conn, error) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	watch := make(chan struct{})
	go func() {
		select {
		case <-c.shutdown:
			cancel()
		case <-watch:
		}
	}()
	defer close(watch)

	conn, err := c.dialer.Dial(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	return conn, nil
}

// handshake sends CONNECT and waits for the CONNACK that accepts or
// refuses the session.
func (c *Client) handshake(conn Conn, readCh <-chan inbound, deadline time.Time) (*ConnackPacket, error) {
	connect := &ConnectPacket{
		ClientID:     c.session.clientID,
		CleanSession: c.session.cleanSession,
		KeepAlive:    c.options.keepAliveSeconds(),
		Username:     c.options.username,
		Password:     c.options.password,
	}
	if will := c.options.will; will != nil {
		connect.WillFlag = true
		connect.WillTopic = will.Topic
		connect.WillPayload = will.Payload
		connect.WillQoS = will.QoS
		connect.WillRetain = will.Retain
	}

	if err := c.write(conn, connect); err != nil {
		return nil, NewConnectionLostError(fmt.Errorf("failed to send CONNECT: %w", err))
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case in := <-readCh:
		if in.err != nil {
			return nil, NewConnectionLostError(in.err)
		}

		connack, ok := in.pkt.(*ConnackPacket)
		if !ok {
			return nil, NewConnectionLostError(fmt.Errorf("expected CONNACK, got %s: %w", in.pkt.Type(), ErrProtocolViolation))
		}
		c.keepAlive.Received(time.Now())

		if connack.ReturnCode != ConnectionAccepted {
			c.logger.Warn("connection refused", LogFields{LogFieldReturnCode: connack.ReturnCode.String()})
			return nil, NewConnectError(connack.ReturnCode)
		}

		return connack, nil

	case <-timer.C:
		return nil, NewConnectionLostError(errors.New("timeout waiting for CONNACK"))

	case <-c.shutdown:
		return nil, errShuttingDown
	}
}

// readPackets is the reader goroutine: it decodes packets off the
// connection and hands them to the engine until the connection ends or
// the engine tears the attempt down.
func (c *Client) readPackets(conn Conn, readCh chan<- inbound, stop <-chan struct{}) {
	for {
		pkt, _, err := ReadPacket(conn, c.options.maxPacketSize)
		if err != nil {
			select {
			case readCh <- inbound{err: err}:
			case <-stop:
			}
			return
		}

		select {
		case readCh <- inbound{pkt: pkt}:
		case <-stop:
			return
		}
	}
}

// serve is the connected loop. It multiplexes inbound packets,
// application commands and the keep-alive clock until the connection
// fails or a shutdown request arrives.
func (c *Client) serve(conn Conn, readCh <-chan inbound) (*request, error) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		if err := c.flushWaiting(conn); err != nil {
			return nil, NewConnectionLostError(err)
		}

		var keepAliveCh <-chan time.Time
		if deadline := c.keepAlive.NextDeadline(); !deadline.IsZero() {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(time.Until(deadline))
			keepAliveCh = timer.C
		}

		select {
		case in := <-readCh:
			if in.err != nil {
				return nil, NewConnectionLostError(in.err)
			}
			c.keepAlive.Received(time.Now())
			if err := c.handlePacket(conn, in.pkt); err != nil {
				return nil, err
			}

		case req := <-c.commands:
			if req.kind == requestShutdown {
				c.setState(stateShuttingDown)
				c.logger.Info("shutting down", nil)
				return req, nil
			}
			c.session.PushWaiting(req)

		case <-keepAliveCh:
			now := time.Now()
			if c.keepAlive.Expired(now) {
				c.logger.Warn("keep-alive expired", nil)
				return nil, ErrKeepAliveTimeout
			}
			if c.keepAlive.ShouldPing(now) {
				c.logger.Debug("sending PINGREQ", nil)
				if err := c.write(conn, &PingreqPacket{}); err != nil {
					return nil, NewConnectionLostError(err)
				}
			}
		}
	}
}

// flushWaiting writes queued requests in order until the queue empties
// or the head stalls on packet id exhaustion.
func (c *Client) flushWaiting(conn Conn) error {
	for {
		req := c.session.PeekWaiting()
		if req == nil {
			return nil
		}

		if req.kind == requestPublish && req.pub.QoS == QoS0 {
			c.session.PopWaiting()

			pkt := &PublishPacket{}
			pkt.FromPublication(req.pub)
			if err := c.write(conn, pkt); err != nil {
				// Not yet on the wire; the retry next attempt starts
				// from this request again.
				c.session.UnshiftWaiting(req)
				return err
			}
			req.resolve(nil)
			continue
		}

		id, err := c.packetIDs.Allocate()
		if err != nil {
			// Head-of-line stall: everything behind waits until an
			// acknowledgment frees an id.
			if errors.Is(err, ErrPacketIDExhausted) {
				return nil
			}
			return err
		}

		c.session.PopWaiting()
		req.packetID = id

		var pkt Packet
		switch req.kind {
		case requestPublish:
			if req.pub.QoS == QoS1 {
				req.state = awaitingPuback
			} else {
				req.state = awaitingPubrec
			}
			publish := &PublishPacket{PacketID: id}
			publish.FromPublication(req.pub)
			pkt = publish

		case requestSubscribe:
			req.state = awaitingSuback
			pkt = &SubscribePacket{PacketID: id, Subscriptions: req.subs}

		case requestUnsubscribe:
			req.state = awaitingUnsuback
			pkt = &UnsubscribePacket{PacketID: id, TopicFilters: req.filters}
		}

		// Track before writing so the acknowledgment cannot race the
		// bookkeeping.
		c.session.TrackInflight(req)

		if err := c.write(conn, pkt); err != nil {
			return err
		}
	}
}

// handlePacket dispatches one inbound packet. A non-nil return ends the
// attempt.
func (c *Client) handlePacket(conn Conn, pkt Packet) error {
	switch p := pkt.(type) {
	case *PublishPacket:
		return c.handlePublish(conn, p)
	case *PubackPacket:
		c.handlePuback(p)
		return nil
	case *PubrecPacket:
		return c.handlePubrec(conn, p)
	case *PubrelPacket:
		return c.handlePubrel(conn, p)
	case *PubcompPacket:
		c.handlePubcomp(p)
		return nil
	case *SubackPacket:
		return c.handleSuback(p)
	case *UnsubackPacket:
		c.handleUnsuback(p)
		return nil
	case *PingrespPacket:
		return nil
	default:
		// The server half of v3.1.1 never sends CONNECT, SUBSCRIBE,
		// UNSUBSCRIBE, PINGREQ or DISCONNECT.
		return NewConnectionLostError(fmt.Errorf("unexpected %s packet: %w", pkt.Type(), ErrProtocolViolation))
	}
}

// handlePublish dispatches an inbound message and acknowledges it
// according to its QoS.
func (c *Client) handlePublish(conn Conn, pkt *PublishPacket) error {
	switch pkt.QoS {
	case QoS0:
		c.events.Push(&PublicationEvent{Publication: pkt.ToPublication()})
		return nil

	case QoS1:
		c.events.Push(&PublicationEvent{Publication: pkt.ToPublication()})
		if err := c.write(conn, &PubackPacket{PacketID: pkt.PacketID}); err != nil {
			return NewConnectionLostError(err)
		}
		return nil

	default: // QoS 2
		if c.session.MarkInboundQoS2(pkt.PacketID) {
			c.events.Push(&PublicationEvent{Publication: pkt.ToPublication()})
		} else {
			c.logger.Debug("duplicate QoS 2 publish suppressed", LogFields{
				LogFieldPacketID: pkt.PacketID,
				LogFieldTopic:    pkt.Topic,
			})
		}
		if err := c.write(conn, &PubrecPacket{PacketID: pkt.PacketID}); err != nil {
			return NewConnectionLostError(err)
		}
		return nil
	}
}

func (c *Client) handlePuback(pkt *PubackPacket) {
	req, ok := c.session.Inflight(pkt.PacketID)
	if !ok || req.kind != requestPublish || req.state != awaitingPuback {
		c.logger.Debug("unexpected PUBACK", LogFields{LogFieldPacketID: pkt.PacketID})
		return
	}

	c.session.RemoveInflight(pkt.PacketID)
	c.packetIDs.Release(pkt.PacketID)
	req.resolve(nil)
}

func (c *Client) handlePubrec(conn Conn, pkt *PubrecPacket) error {
	req, ok := c.session.Inflight(pkt.PacketID)
	if !ok || req.kind != requestPublish ||
		(req.state != awaitingPubrec && req.state != awaitingPubcomp) {
		c.logger.Debug("unexpected PUBREC", LogFields{LogFieldPacketID: pkt.PacketID})
		return nil
	}

	// A duplicate PUBREC means the broker missed our PUBREL; answer it
	// again either way.
	req.state = awaitingPubcomp
	if err := c.write(conn, &PubrelPacket{PacketID: pkt.PacketID}); err != nil {
		return NewConnectionLostError(err)
	}

	return nil
}

func (c *Client) handlePubrel(conn Conn, pkt *PubrelPacket) error {
	if !c.session.ReleaseInboundQoS2(pkt.PacketID) {
		c.logger.Debug("PUBREL for unknown packet id", LogFields{LogFieldPacketID: pkt.PacketID})
	}

	// PUBCOMP goes back even for an unknown id so the broker's side of
	// the exchange can complete.
	if err := c.write(conn, &PubcompPacket{PacketID: pkt.PacketID}); err != nil {
		return NewConnectionLostError(err)
	}

	return nil
}

func (c *Client) handlePubcomp(pkt *PubcompPacket) {
	req, ok := c.session.Inflight(pkt.PacketID)
	if !ok || req.kind != requestPublish || req.state != awaitingPubcomp {
		c.logger.Debug("unexpected PUBCOMP", LogFields{LogFieldPacketID: pkt.PacketID})
		return
	}

	c.session.RemoveInflight(pkt.PacketID)
	c.packetIDs.Release(pkt.PacketID)
	req.resolve(nil)
}

func (c *Client) handleSuback(pkt *SubackPacket) error {
	req, ok := c.session.Inflight(pkt.PacketID)
	if !ok || req.kind != requestSubscribe || req.state != awaitingSuback {
		c.logger.Debug("unexpected SUBACK", LogFields{LogFieldPacketID: pkt.PacketID})
		return nil
	}

	if len(pkt.ReturnCodes) != len(req.subs) {
		return NewConnectionLostError(fmt.Errorf("SUBACK carries %d return codes for %d filters: %w",
			len(pkt.ReturnCodes), len(req.subs), ErrProtocolViolation))
	}

	c.session.RemoveInflight(pkt.PacketID)
	c.packetIDs.Release(pkt.PacketID)

	updates := make([]SubscriptionUpdate, 0, len(req.subs))
	var failed string
	for i, sub := range req.subs {
		code := pkt.ReturnCodes[i]
		if _, granted := code.Granted(); granted {
			c.session.UpsertSubscription(sub)
		} else if failed == "" {
			failed = sub.TopicFilter
		}
		updates = append(updates, SubscriptionUpdate{
			TopicFilter: sub.TopicFilter,
			Subscribed:  true,
			Code:        code,
		})
	}
	c.events.Push(&SubscriptionsEvent{Updates: updates})

	if failed != "" {
		req.resolve(NewSubscribeError(failed))
	} else {
		req.resolve(nil)
	}

	return nil
}

func (c *Client) handleUnsuback(pkt *UnsubackPacket) {
	req, ok := c.session.Inflight(pkt.PacketID)
	if !ok || req.kind != requestUnsubscribe || req.state != awaitingUnsuback {
		c.logger.Debug("unexpected UNSUBACK", LogFields{LogFieldPacketID: pkt.PacketID})
		return
	}

	c.session.RemoveInflight(pkt.PacketID)
	c.packetIDs.Release(pkt.PacketID)

	updates := make([]SubscriptionUpdate, 0, len(req.filters))
	for _, filter := range req.filters {
		c.session.RemoveSubscription(filter)
		updates = append(updates, SubscriptionUpdate{TopicFilter: filter})
	}
	c.events.Push(&SubscriptionsEvent{Updates: updates})

	req.resolve(nil)
}

// requeueSubscriptionChanges pulls unacknowledged SUBSCRIBE and
// UNSUBSCRIBE exchanges out of flight and queues them to be sent fresh.
// The protocol retransmits only publish exchanges after a resume.
func (c *Client) requeueSubscriptionChanges() {
	var changes []*request
	for _, req := range c.session.InflightOrdered() {
		if req.kind == requestPublish {
			continue
		}
		c.session.RemoveInflight(req.packetID)
		c.packetIDs.Release(req.packetID)
		req.packetID = 0
		changes = append(changes, req)
	}

	if len(changes) == 0 {
		return
	}

	c.logger.Debug("re-queued subscription changes", LogFields{"count": len(changes)})
	c.session.UnshiftWaiting(changes...)
}

// retransmitInflight resends unacknowledged publish exchanges after the
// broker resumed the session: PUBLISH with DUP for exchanges still
// awaiting PUBACK or PUBREC, PUBREL for those awaiting PUBCOMP, in
// packet id order.
func (c *Client) retransmitInflight(conn Conn) error {
	reqs := c.session.InflightOrdered()
	if len(reqs) == 0 {
		return nil
	}

	c.logger.Debug("retransmitting in-flight publishes", LogFields{"count": len(reqs)})

	for _, req := range reqs {
		switch req.state {
		case awaitingPuback, awaitingPubrec:
			pkt := &PublishPacket{PacketID: req.packetID, DUP: true}
			pkt.FromPublication(req.pub)
			if err := c.write(conn, pkt); err != nil {
				return err
			}
		case awaitingPubcomp:
			if err := c.write(conn, &PubrelPacket{PacketID: req.packetID}); err != nil {
				return err
			}
		}
	}

	return nil
}

// resetSessionState rebuilds after the broker reported no session
// present: every in-flight exchange restarts as a fresh request at the
// head of the queue, behind one SUBSCRIBE that re-establishes the
// subscription state.
func (c *Client) resetSessionState() {
	reqs := c.session.TakeInflight()
	c.session.DiscardAckState()
	c.packetIDs.Reset()

	for _, req := range reqs {
		req.packetID = 0
	}
	c.session.UnshiftWaiting(reqs...)
	if len(reqs) > 0 {
		c.logger.Debug("re-queued unacknowledged requests", LogFields{"count": len(reqs)})
	}

	if subs := c.session.Subscriptions(); len(subs) > 0 {
		c.logger.Debug("replaying subscriptions", LogFields{"count": len(subs)})
		c.session.UnshiftWaiting(&request{kind: requestSubscribe, subs: subs})
	}
}

// write encodes one packet onto the connection and feeds the keep-alive
// clock.
func (c *Client) write(conn Conn, pkt Packet) error {
	if _, err := WritePacket(conn, pkt, 0); err != nil {
		return err
	}
	c.keepAlive.Sent(time.Now())

	return nil
}

// sendDisconnect tells the broker the disconnect is deliberate so it
// discards the will. Failures only get logged; the connection is coming
// down either way.
func (c *Client) sendDisconnect(conn Conn) {
	conn.SetWriteDeadline(time.Now().Add(disconnectGrace))
	if _, err := WritePacket(conn, &DisconnectPacket{}, 0); err != nil {
		c.logger.Debug("DISCONNECT send failed", LogFields{LogFieldError: err})
	}
	conn.SetWriteDeadline(time.Time{})
}
