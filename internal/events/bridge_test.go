package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainEventually(t *testing.T, q *Queue, want int, timeout time.Duration) int {
	t.Helper()
	deadline := time.Now().Add(timeout)
	total := 0
	for time.Now().Before(deadline) {
		total += q.Drain(0, 0)
		if total >= want {
			return total
		}
		time.Sleep(time.Millisecond)
	}
	return total
}

func TestBridge_ForwardsConfiguredEventTypesOnly(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown(true)
	queue := NewQueue()

	var received []EventType
	queue.Subscribe(EventAgentTaskStart, func(ev Event) { received = append(received, ev.Type) }, 0)
	queue.Subscribe(EventAgentTaskStop, func(ev Event) { received = append(received, ev.Type) }, 0)

	bridge := NewBridge(bus, queue, EventAgentTaskStart)
	bridge.Start()
	defer bridge.Stop()

	bus.Emit(Event{Type: EventAgentTaskStart})
	bus.Emit(Event{Type: EventAgentTaskStop}) // not bridged, should never reach the queue

	require.Equal(t, 1, drainEventually(t, queue, 1, time.Second))
	assert.Equal(t, []EventType{EventAgentTaskStart}, received)
}

func TestBridge_StopPreventsFurtherForwarding(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown(true)
	queue := NewQueue()
	queue.Subscribe(EventAgentTaskStart, func(Event) {}, 0)

	bridge := NewBridge(bus, queue, EventAgentTaskStart)
	bridge.Start()
	bridge.Stop()
	assert.False(t, bridge.IsActive())

	bus.Emit(Event{Type: EventAgentTaskStart})
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, queue.Size())
}

func TestBridge_AddEventTypeWhileActive(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown(true)
	queue := NewQueue()
	queue.Subscribe(EventAgentMessageStart, func(Event) {}, 0)

	bridge := NewBridge(bus, queue)
	bridge.Start()
	defer bridge.Stop()
	bridge.AddEventType(EventAgentMessageStart)

	bus.Emit(Event{Type: EventAgentMessageStart})

	require.Equal(t, 1, drainEventually(t, queue, 1, time.Second))
}

func TestBridge_RemoveEventTypeWhileActive(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown(true)
	queue := NewQueue()
	queue.Subscribe(EventAgentMessageStop, func(Event) {}, 0)

	bridge := NewBridge(bus, queue, EventAgentMessageStop)
	bridge.Start()
	defer bridge.Stop()
	bridge.RemoveEventType(EventAgentMessageStop)

	bus.Emit(Event{Type: EventAgentMessageStop})
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, queue.Size())
}

func TestBridge_PreservesPerProducerOrderIntoQueue(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown(true)
	queue := NewQueue()

	var deltas []string
	queue.Subscribe(EventAgentMessageDelta, func(ev Event) { deltas = append(deltas, ev.Delta) }, 0)

	bridge := NewBridge(bus, queue, EventAgentMessageDelta)
	bridge.Start()
	defer bridge.Stop()

	for _, d := range []string{"a", "b", "c", "d", "e"} {
		bus.Emit(Event{Type: EventAgentMessageDelta, Delta: d})
	}

	require.Equal(t, 5, drainEventually(t, queue, 5, time.Second))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, deltas)
}
