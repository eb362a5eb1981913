// Package router dispatches delivered publications to handlers by
// condition. It sits on top of the client's event surface: an event
// loop feeds publications in, the router fans them out.
package router

import (
	"sync"

	"github.com/nyanzebra/mqtt311"
)

// Handler processes a delivered publication.
type Handler func(pub *mqtt311.Publication)

// Condition defines filtering criteria for publication routing.
type Condition struct {
	topicFilter *string
	qos         *mqtt311.QoS
	retain      *bool
}

// ConditionOption configures a Condition.
type ConditionOption func(*Condition)

// WithTopic sets the topic filter for publication matching.
// Supports MQTT wildcards: + (single level) and # (multi level).
func WithTopic(filter string) ConditionOption {
	return func(c *Condition) {
		c.topicFilter = &filter
	}
}

// WithQoS filters publications by the QoS level they were delivered at.
func WithQoS(qos mqtt311.QoS) ConditionOption {
	return func(c *Condition) {
		c.qos = &qos
	}
}

// WithRetain filters publications by the retain flag. Subscribing with
// WithRetain(true) picks out the broker's stored state replay.
func WithRetain(retain bool) ConditionOption {
	return func(c *Condition) {
		c.retain = &retain
	}
}

// registration holds a handler with its conditions.
type registration struct {
	handler   Handler
	condition Condition
}

// Router dispatches publications to handlers based on conditions.
// Supports MQTT wildcards: + (single level) and # (multi level).
type Router struct {
	mu       sync.RWMutex
	handlers []registration
}

// New creates a new Router.
func New() *Router {
	return &Router{
		handlers: make([]registration, 0),
	}
}

// Handle registers a handler with optional conditions. A handler with
// no conditions receives every publication.
//
// Examples:
//
//	r.Handle(handler, WithTopic("sensors/#"))
//	r.Handle(handler, WithTopic("sensors/#"), WithQoS(mqtt311.QoS1))
//	r.Handle(handler, WithTopic("config/#"), WithRetain(true))
func (r *Router) Handle(handler Handler, opts ...ConditionOption) {
	var cond Condition
	for _, opt := range opts {
		opt(&cond)
	}

	r.mu.Lock()
	r.handlers = append(r.handlers, registration{
		handler:   handler,
		condition: cond,
	})
	r.mu.Unlock()
}

// matches checks if a condition matches the publication.
func (c *Condition) matches(pub *mqtt311.Publication) bool {
	if c.topicFilter != nil && !mqtt311.TopicMatch(*c.topicFilter, pub.Topic) {
		return false
	}
	if c.qos != nil && *c.qos != pub.QoS {
		return false
	}
	if c.retain != nil && *c.retain != pub.Retain {
		return false
	}
	return true
}

// Route dispatches a publication to all matching handlers.
// Multiple handlers may be called if multiple conditions match.
func (r *Router) Route(pub *mqtt311.Publication) {
	if pub == nil {
		return
	}

	r.mu.RLock()
	var matched []Handler
	for _, reg := range r.handlers {
		if reg.condition.matches(pub) {
			matched = append(matched, reg.handler)
		}
	}
	r.mu.RUnlock()

	for _, handler := range matched {
		handler(pub)
	}
}

// Dispatch routes the publication carried by ev, if any. It returns
// true when ev was a publication, so an event loop can fall through to
// its own handling for connection and subscription events:
//
//	for {
//	    ev, err := client.NextEvent(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if r.Dispatch(ev) {
//	        continue
//	    }
//	    // handle the rest
//	}
func (r *Router) Dispatch(ev mqtt311.Event) bool {
	pubEv, ok := ev.(*mqtt311.PublicationEvent)
	if !ok {
		return false
	}
	r.Route(pubEv.Publication)
	return true
}

// Filters returns all unique registered topic filters, for driving the
// client's subscriptions from the routing table.
func (r *Router) Filters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, reg := range r.handlers {
		if reg.condition.topicFilter != nil {
			seen[*reg.condition.topicFilter] = struct{}{}
		}
	}

	filters := make([]string, 0, len(seen))
	for filter := range seen {
		filters = append(filters, filter)
	}
	return filters
}

// Len returns the number of registered handlers.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Clear removes all handlers.
func (r *Router) Clear() {
	r.mu.Lock()
	r.handlers = r.handlers[:0]
	r.mu.Unlock()
}
