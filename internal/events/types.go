// Package events implements the two-tier event pipeline between the
// orchestrator and whatever surface renders its output: an EventBus that
// fans events out to any number of concurrent subscribers, and a UI Event
// Queue that a single render thread drains in strict order. A Bridge
// connects the two so concurrent Bus handlers never race the UI's ordering
// guarantees.
package events

import "encoding/json"

// EventType is a closed enum of every event the orchestrator (or a command)
// can emit. New types are added here, not inferred from arbitrary strings.
type EventType string

const (
	EventAgentTaskStart     EventType = "agent.task.start"
	EventAgentTaskStop      EventType = "agent.task.stop"
	EventAgentMessageStart  EventType = "agent.message.start"
	EventAgentMessageDelta  EventType = "agent.message.delta"
	EventAgentMessageStop   EventType = "agent.message.stop"
	EventAgentToolCallStart    EventType = "agent.tool.call.start"
	EventAgentToolCallReady    EventType = "agent.tool.call.ready"
	EventAgentToolAwaitApprove EventType = "agent.tool.await_approval"
	EventAgentToolResult       EventType = "agent.tool.result"
	EventAgentError         EventType = "agent.error"
	EventConfigLLMChanged   EventType = "config.llm.changed"
)

// Event is the payload carried through both the Bus and the Queue. Only the
// fields relevant to Type are populated; each field's comment names the
// event types it goes with.
type Event struct {
	Type EventType

	Delta string // agent.message.delta

	ToolName      string          // agent.tool.call.start/ready, agent.tool.result, agent.tool.await_approval
	ToolID        string          // agent.tool.call.start/ready, agent.tool.result, agent.tool.await_approval
	ToolArguments json.RawMessage // agent.tool.call.ready
	ToolResult    string          // agent.tool.result

	Err error // agent.error

	Provider string // config.llm.changed
	Model    string // config.llm.changed
}

// Handler processes one Event. Handlers must tolerate being invoked from any
// worker goroutine and must not block for long — both the Bus and the Queue
// assume handler duration is bounded.
type Handler func(Event)
