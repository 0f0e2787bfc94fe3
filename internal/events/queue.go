package events

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// queuedEvent wraps an Event with the time it was enqueued, for debounce
// bookkeeping and time-budget accounting during Drain.
type queuedEvent struct {
	event Event
	at    time.Time
}

// Queue is a single-consumer FIFO drained synchronously by whatever loop
// renders the UI. Unlike Bus, handlers registered here run on the draining
// goroutine itself, in descending-priority, registration-stable order, so a
// renderer can rely on strict ordering within one Drain call.
type Queue struct {
	mu   sync.Mutex
	subs map[EventType][]subscription
	next uint64

	items []queuedEvent

	debounce      time.Duration
	pendingTimers map[EventType]*time.Timer
	pendingEvent  map[EventType]Event
}

// NewQueue creates an empty Queue with no debouncing.
func NewQueue() *Queue {
	return &Queue{
		subs:          make(map[EventType][]subscription),
		pendingTimers: make(map[EventType]*time.Timer),
		pendingEvent:  make(map[EventType]Event),
	}
}

// SetDebounce configures a per-event-type debounce delay: repeated Emit calls
// for the same event type within delay of each other collapse to the last
// one. Pass 0 to disable debouncing (the default).
func (q *Queue) SetDebounce(delay time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.debounce = delay
}

// Subscribe registers handler for eventType at the given priority. Higher
// priority handlers run first within a Drain call; ties keep registration
// order.
func (q *Queue) Subscribe(eventType EventType, handler Handler, priority int) SubscriptionID {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	id := q.next
	list := append(q.subs[eventType], subscription{id: id, handler: handler, priority: priority})
	sortByPriority(list)
	q.subs[eventType] = list
	return SubscriptionID(id)
}

// Unsubscribe removes a previously registered subscription.
func (q *Queue) Unsubscribe(eventType EventType, id SubscriptionID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.subs[eventType]
	for i, s := range list {
		if s.id == uint64(id) {
			q.subs[eventType] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Emit enqueues ev for a future Drain call. If debouncing is enabled for
// ev.Type, the enqueue is delayed and collapsed with any other Emit of the
// same type that arrives before the delay elapses.
func (q *Queue) Emit(ev Event) {
	q.mu.Lock()
	delay := q.debounce
	if delay <= 0 {
		q.items = append(q.items, queuedEvent{event: ev, at: time.Now()})
		q.mu.Unlock()
		return
	}

	q.pendingEvent[ev.Type] = ev
	if t, ok := q.pendingTimers[ev.Type]; ok {
		t.Stop()
	}
	et := ev.Type
	q.pendingTimers[et] = time.AfterFunc(delay, func() { q.flushDebounced(et) })
	q.mu.Unlock()
}

// flushDebounced moves the latest pending event of the given type onto the
// queue once its debounce delay has elapsed.
func (q *Queue) flushDebounced(et EventType) {
	q.mu.Lock()
	ev, ok := q.pendingEvent[et]
	if ok {
		delete(q.pendingEvent, et)
		delete(q.pendingTimers, et)
		q.items = append(q.items, queuedEvent{event: ev, at: time.Now()})
	}
	q.mu.Unlock()
}

// Size returns the number of events currently queued (not counting debounced
// events still pending their delay).
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain runs queued events' handlers synchronously on the calling goroutine,
// in FIFO arrival order, stopping when maxEvents have run (0 = unlimited) or
// timeBudget has elapsed (0 = unlimited) or the queue empties, whichever
// comes first. It returns the number of events processed.
func (q *Queue) Drain(maxEvents int, timeBudget time.Duration) int {
	deadline := time.Time{}
	if timeBudget > 0 {
		deadline = time.Now().Add(timeBudget)
	}

	processed := 0
	for {
		if maxEvents > 0 && processed >= maxEvents {
			return processed
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return processed
		}

		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return processed
		}
		item := q.items[0]
		q.items = q.items[1:]
		handlers := append([]subscription(nil), q.subs[item.event.Type]...)
		q.mu.Unlock()

		for _, s := range handlers {
			q.runHandler(s.handler, item.event)
		}
		processed++
	}
}

// runHandler invokes handler with panic recovery so one bad subscriber never
// stalls the render loop.
func (q *Queue) runHandler(handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event_type", string(ev.Type)).Msg("events: queue handler panicked")
		}
	}()
	handler(ev)
}

// Clear cancels any pending debounce timers, drops all queued events, and
// removes every subscription.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, t := range q.pendingTimers {
		t.Stop()
	}
	q.pendingTimers = make(map[EventType]*time.Timer)
	q.pendingEvent = make(map[EventType]Event)
	q.items = nil
	q.subs = make(map[EventType][]subscription)
}

// sortByPriority orders subscriptions highest-priority first. Stable so
// same-priority handlers keep registration order.
func sortByPriority(list []subscription) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority > list[j].priority
	})
}
