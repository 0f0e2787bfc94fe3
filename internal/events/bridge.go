package events

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Bridge re-emits a fixed set of event types from a Bus onto a Queue,
// preserving each producer's emission order even though Bus handlers run
// concurrently across goroutines: every bridged event type gets its own Bus
// subscription that does nothing but forward onto the Queue, and Queue.Emit
// enqueues under a single mutex, so two events emitted in order P1-before-P2
// by the same producer always land on the Queue in that order.
//
// There is deliberately no wildcard mode (bridging "every event type"):
// explicit types keep the bridge's behavior auditable as the event taxonomy
// grows.
type Bridge struct {
	bus   *Bus
	queue *Queue

	mu     sync.Mutex
	active bool
	subs   map[EventType]SubscriptionID
}

// NewBridge creates a Bridge wired between bus and queue. Call Start to begin
// forwarding eventTypes; the set can be changed later with AddEventType and
// RemoveEventType regardless of active state.
func NewBridge(bus *Bus, queue *Queue, eventTypes ...EventType) *Bridge {
	b := &Bridge{
		bus:   bus,
		queue: queue,
		subs:  make(map[EventType]SubscriptionID),
	}
	for _, et := range eventTypes {
		b.subs[et] = 0
	}
	return b
}

// Start begins forwarding every configured event type from the Bus to the
// Queue. Calling Start while already active is a no-op.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return
	}
	for et := range b.subs {
		b.subs[et] = b.bus.Subscribe(et, b.forward, 0)
	}
	b.active = true
}

// Stop unsubscribes the bridge from the Bus. Configured event types are
// remembered so a later Start resumes forwarding the same set.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}
	for et, id := range b.subs {
		b.bus.Unsubscribe(et, id)
		b.subs[et] = 0
	}
	b.active = false
}

// IsActive reports whether the bridge is currently forwarding.
func (b *Bridge) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// AddEventType starts forwarding an additional event type. If the bridge is
// already active, the new type is subscribed immediately.
func (b *Bridge) AddEventType(et EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[et]; ok {
		return
	}
	if b.active {
		b.subs[et] = b.bus.Subscribe(et, b.forward, 0)
	} else {
		b.subs[et] = 0
	}
}

// RemoveEventType stops forwarding et. If the bridge is active, it
// unsubscribes from the Bus immediately.
func (b *Bridge) RemoveEventType(et EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.subs[et]
	if !ok {
		return
	}
	if b.active {
		b.bus.Unsubscribe(et, id)
	}
	delete(b.subs, et)
}

// forward is the Bus handler shared by every bridged event type. It only
// enqueues onto the Queue — it never executes UI logic itself — so a bridge
// handler can never be the thing that panics the render loop.
func (b *Bridge) forward(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event_type", string(ev.Type)).Msg("events: bridge forward panicked")
		}
	}()
	b.queue.Emit(ev)
}
