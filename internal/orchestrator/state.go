// Package orchestrator drives a single conversation's turn loop: it calls
// the LLM provider through the advisor chain, streams the response out onto
// an event bus, executes whatever tools the model asked for (snapshotting
// the workspace first when a tool can mutate it), and persists the resulting
// transcript — repeating until the model stops calling tools or calls its
// finishing tool.
package orchestrator

import (
	"fmt"

	"github.com/agentcore/agentcore/internal/chatmodel"
)

// State names a point in a turn's lifecycle. Orchestrator doesn't expose a
// getter for the current state — RunTurn runs a whole turn synchronously —
// but the names document the state machine RunTurn implements.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingUser     State = "awaiting_user"
	StateCallingLLM       State = "calling_llm"
	StateStreaming        State = "streaming"
	StateParsingTools     State = "parsing_tools"
	StateAwaitingApproval State = "awaiting_approval"
	StateExecutingTools   State = "executing_tools"
	StateTerminated       State = "terminated"
)

// ProviderError wraps a failure from the LLM provider (after the provider's
// own retry wrapper has given up). It always aborts the current turn.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("provider error: %v", e.Err) }
func (e *ProviderError) Unwrap() error  { return e.Err }

// InvariantViolation signals an internal bug — a state the orchestrator
// believes can never happen (e.g. a tool_call message that was never paired
// before being handed to the provider). RunTurn also returns it when a turn
// exceeds its iteration limit without finishing. Unlike every other error
// case it is not recoverable within the turn: the caller should treat it as
// fatal.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Detail)
}

// TurnResult summarizes one RunTurn call for the caller (typically the
// session layer, which uses it to decide whether to persist and whether the
// conversation is done).
type TurnResult struct {
	// Messages is every message appended to the transcript during this
	// call — the user message, one or more assistant messages, and any
	// tool-result messages — in append order.
	Messages []chatmodel.Message
	// Done reports whether a finishing tool was called, ending the task.
	Done bool
}
