package mqtt311

import "sort"

// session holds the client side of an MQTT session: its identity,
// requests accepted but not yet written, exchanges in flight on the
// wire, the inbound QoS 2 receipt set, and the subscription state used
// for replay. It survives reconnects unless the broker reports no
// session present.
//
// The engine goroutine is the sole owner, so there is no locking.
type session struct {
	// clientID identifies the session to the broker. Empty asks the
	// broker to assign one, which v3.1.1 permits only with cleanSession.
	clientID string

	// cleanSession tells the broker to discard any server-side state
	// for this client id on every connect.
	cleanSession bool

	// waiting is the FIFO of accepted requests not yet written. The
	// head stalls when the packet id space is exhausted; order is
	// strict.
	waiting []*request

	// inflight maps packet id to the exchange awaiting its terminal
	// acknowledgment (PUBACK, PUBCOMP, SUBACK or UNSUBACK).
	inflight map[uint16]*request

	// inboundQoS2 records packet ids for which a PUBREC was sent but
	// the PUBREL has not yet arrived. Duplicate deliveries with these
	// ids are acknowledged without being dispatched again.
	inboundQoS2 map[uint16]struct{}

	// subs is the established subscription state in grant order,
	// replayed in a single SUBSCRIBE when the broker drops the
	// session.
	subs []Subscription
}

func newSession(clientID string, cleanSession bool) *session {
	return &session{
		clientID:     clientID,
		cleanSession: cleanSession,
		inflight:     make(map[uint16]*request),
		inboundQoS2:  make(map[uint16]struct{}),
	}
}

// PushWaiting appends a request to the tail of the waiting queue.
func (s *session) PushWaiting(req *request) {
	s.waiting = append(s.waiting, req)
}

// UnshiftWaiting inserts requests at the head of the waiting queue,
// preserving their order ahead of everything already queued.
func (s *session) UnshiftWaiting(reqs ...*request) {
	if len(reqs) == 0 {
		return
	}

	s.waiting = append(reqs, s.waiting...)
}

// PeekWaiting returns the head of the waiting queue without removing
// it, or nil when the queue is empty.
func (s *session) PeekWaiting() *request {
	if len(s.waiting) == 0 {
		return nil
	}

	return s.waiting[0]
}

// PopWaiting removes and returns the head of the waiting queue, or nil
// when the queue is empty.
func (s *session) PopWaiting() *request {
	if len(s.waiting) == 0 {
		return nil
	}

	req := s.waiting[0]
	s.waiting[0] = nil
	s.waiting = s.waiting[1:]

	return req
}

// TrackInflight records a request under its packet id. Called before
// the packet is written so an acknowledgment racing the write cannot
// miss the entry.
func (s *session) TrackInflight(req *request) {
	s.inflight[req.packetID] = req
}

// Inflight returns the exchange tracked under a packet id.
func (s *session) Inflight(id uint16) (*request, bool) {
	req, ok := s.inflight[id]
	return req, ok
}

// RemoveInflight removes and returns the exchange tracked under a
// packet id.
func (s *session) RemoveInflight(id uint16) (*request, bool) {
	req, ok := s.inflight[id]
	if ok {
		delete(s.inflight, id)
	}

	return req, ok
}

// InflightOrdered returns all in-flight exchanges in ascending packet
// id order, the order retransmission must follow.
func (s *session) InflightOrdered() []*request {
	ids := make([]uint16, 0, len(s.inflight))
	for id := range s.inflight {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	reqs := make([]*request, 0, len(ids))
	for _, id := range ids {
		reqs = append(reqs, s.inflight[id])
	}

	return reqs
}

// TakeInflight removes all in-flight exchanges and returns them in
// ascending packet id order.
func (s *session) TakeInflight() []*request {
	reqs := s.InflightOrdered()
	for id := range s.inflight {
		delete(s.inflight, id)
	}

	return reqs
}

// InflightCount returns the number of exchanges awaiting a terminal
// acknowledgment.
func (s *session) InflightCount() int {
	return len(s.inflight)
}

// MarkInboundQoS2 records an inbound QoS 2 packet id. It returns false
// when the id is already present, meaning the delivery is a duplicate
// and must not be dispatched again.
func (s *session) MarkInboundQoS2(id uint16) bool {
	if _, ok := s.inboundQoS2[id]; ok {
		return false
	}

	s.inboundQoS2[id] = struct{}{}

	return true
}

// ReleaseInboundQoS2 completes an inbound QoS 2 exchange, typically on
// PUBREL. It reports whether the id was being tracked.
func (s *session) ReleaseInboundQoS2(id uint16) bool {
	if _, ok := s.inboundQoS2[id]; !ok {
		return false
	}

	delete(s.inboundQoS2, id)

	return true
}

// UpsertSubscription adds a subscription to the established state or
// updates the QoS of an existing one, keeping grant order stable.
func (s *session) UpsertSubscription(sub Subscription) {
	for i := range s.subs {
		if s.subs[i].TopicFilter == sub.TopicFilter {
			s.subs[i].QoS = sub.QoS
			return
		}
	}

	s.subs = append(s.subs, sub)
}

// RemoveSubscription removes a topic filter from the established state.
func (s *session) RemoveSubscription(filter string) bool {
	for i := range s.subs {
		if s.subs[i].TopicFilter == filter {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return true
		}
	}

	return false
}

// Subscriptions returns a copy of the established subscription state
// in grant order.
func (s *session) Subscriptions() []Subscription {
	if len(s.subs) == 0 {
		return nil
	}

	subs := make([]Subscription, len(s.subs))
	copy(subs, s.subs)

	return subs
}

// DiscardAckState clears everything tied to the broker's copy of the
// session: the inbound QoS 2 receipt set. Used when a CONNACK reports
// no session present; outbound exchanges are re-queued separately so
// their completions survive.
func (s *session) DiscardAckState() {
	for id := range s.inboundQoS2 {
		delete(s.inboundQoS2, id)
	}
}

// DrainAll removes every tracked request, waiting and in-flight, and
// returns them: waiting queue first in order, then in-flight exchanges
// in packet id order. Used at shutdown to fail outstanding completions.
func (s *session) DrainAll() []*request {
	reqs := make([]*request, 0, len(s.waiting)+len(s.inflight))
	reqs = append(reqs, s.waiting...)
	s.waiting = nil

	reqs = append(reqs, s.TakeInflight()...)

	return reqs
}
