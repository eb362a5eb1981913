package mqtt311

import "errors"

var (
	ErrPacketIDExhausted = errors.New("no available packet IDs")
	ErrPacketIDNotFound  = errors.New("packet ID not found")
)

// PacketIDAllocator issues and recycles packet IDs (1-65535) for in-flight
// QoS 1/2 and subscription exchanges. An ID is never handed out twice while
// still allocated; it returns to the pool only on Release, which the engine
// calls when the terminal acknowledgment for the exchange arrives.
//
// The allocator is not safe for concurrent use. The connection actor is its
// sole owner; handles never touch it directly.
// MQTT v3.1.1 spec: Section 2.3.1
type PacketIDAllocator struct {
	used map[uint16]struct{}
	next uint16
}

// NewPacketIDAllocator creates a new packet ID allocator.
func NewPacketIDAllocator() *PacketIDAllocator {
	return &PacketIDAllocator{
		used: make(map[uint16]struct{}),
		next: 1,
	}
}

// Allocate returns the next available packet ID, skipping the reserved
// value zero on wraparound. Returns ErrPacketIDExhausted when all 65535
// IDs are in flight.
func (a *PacketIDAllocator) Allocate() (uint16, error) {
	if len(a.used) >= maxUint16 {
		return 0, ErrPacketIDExhausted
	}

	start := a.next
	for {
		if _, ok := a.used[a.next]; !ok {
			id := a.next
			a.used[id] = struct{}{}
			a.advance()
			return id, nil
		}
		a.advance()
		if a.next == start {
			return 0, ErrPacketIDExhausted
		}
	}
}

func (a *PacketIDAllocator) advance() {
	a.next++
	if a.next == 0 {
		a.next = 1
	}
}

// Release returns a packet ID to the pool.
func (a *PacketIDAllocator) Release(id uint16) error {
	if _, ok := a.used[id]; !ok {
		return ErrPacketIDNotFound
	}
	delete(a.used, id)
	return nil
}

// IsUsed returns true if the packet ID is currently allocated.
func (a *PacketIDAllocator) IsUsed(id uint16) bool {
	_, ok := a.used[id]
	return ok
}

// InUse returns the count of packet IDs currently allocated.
func (a *PacketIDAllocator) InUse() int {
	return len(a.used)
}

// Reset releases all packet IDs at once. Used when the broker reports no
// session present and every in-flight exchange restarts as a fresh request.
func (a *PacketIDAllocator) Reset() {
	clear(a.used)
	a.next = 1
}
