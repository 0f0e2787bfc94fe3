package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/agentcore/agentcore/internal/advisor"
	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/events"
	"github.com/agentcore/agentcore/internal/llmprovider"
	"github.com/agentcore/agentcore/internal/localtools"
	"github.com/agentcore/agentcore/internal/session"
	"github.com/agentcore/agentcore/internal/toolregistry"
	"github.com/rs/zerolog/log"
)

// defaultMaxIterations bounds how many CALLING_LLM round trips a single
// RunTurn call will make before giving up — the same runaway-loop backstop
// the teacher's agentic loop carries as defaultMaxTurns.
const defaultMaxIterations = 20

// PersistFunc is called once per message appended to the transcript, in
// append order, so a caller can save incrementally rather than only at the
// end of a turn. A nil PersistFunc disables incremental persistence.
type PersistFunc func(msg chatmodel.Message) error

// Orchestrator runs the per-turn state machine described in State's doc
// comment. One Orchestrator is scoped to a single conversation: Model,
// Chain, and Tools are fixed for its lifetime, but the transcript it
// operates on is passed into each RunTurn call so the same Orchestrator can
// serve a resumed session.
type Orchestrator struct {
	Provider llmprovider.Provider
	Chain    *advisor.Chain
	Tools    *toolregistry.Registry
	Bus      *events.Bus

	// Checkpoints snapshots the workspace before any mutating tool call.
	// Nil disables checkpointing (e.g. in tests).
	Checkpoints *session.CheckpointStore

	// Persist is invoked after every message is appended to the
	// transcript. Nil disables incremental persistence.
	Persist PersistFunc

	Model             string
	ParallelToolCalls bool
	MaxIterations     int
}

func (o *Orchestrator) maxIterations() int {
	if o.MaxIterations > 0 {
		return o.MaxIterations
	}
	return defaultMaxIterations
}

func (o *Orchestrator) emit(ev events.Event) {
	if o.Bus != nil {
		o.Bus.Emit(ev)
	}
}

func (o *Orchestrator) persist(msg chatmodel.Message) {
	if o.Persist == nil {
		return
	}
	_ = o.Persist(msg) // best-effort: a persistence failure must not abort the turn
}

// RunTurn appends userText to transcript as a user message, then drives the
// CALLING_LLM/STREAMING/PARSING_TOOLS/EXECUTING_TOOLS cycle until the model
// responds with no tool calls or calls its finishing tool. transcript is
// both read and appended to in place; the returned TurnResult additionally
// lists only the messages appended during this call.
func (o *Orchestrator) RunTurn(ctx context.Context, transcript *[]chatmodel.Message, userText string) (TurnResult, error) {
	var result TurnResult

	userMsg := chatmodel.UserText(userText)
	*transcript = append(*transcript, userMsg)
	result.Messages = append(result.Messages, userMsg)
	o.persist(userMsg)

	o.emit(events.Event{Type: events.EventAgentTaskStart})

	for iter := 0; iter < o.maxIterations(); iter++ {
		assistantMsg, toolCalls, adviceFinish, streamErr := o.callAndStream(ctx, *transcript)

		*transcript = append(*transcript, assistantMsg)
		result.Messages = append(result.Messages, assistantMsg)
		o.persist(assistantMsg)

		if streamErr != nil {
			o.emit(events.Event{Type: events.EventAgentError, Err: streamErr})
			o.emit(events.Event{Type: events.EventAgentTaskStop})
			return result, &ProviderError{Err: streamErr}
		}

		if len(toolCalls) == 0 {
			o.emit(events.Event{Type: events.EventAgentTaskStop})
			return result, nil
		}

		toolMsgs, finishing := o.executeTools(ctx, toolCalls)
		for _, m := range toolMsgs {
			*transcript = append(*transcript, m)
			result.Messages = append(result.Messages, m)
			o.persist(m)
		}

		if ctx.Err() != nil {
			o.emit(events.Event{Type: events.EventAgentTaskStop})
			return result, ctx.Err()
		}

		if finishing || adviceFinish {
			result.Done = true
			o.emit(events.Event{Type: events.EventAgentTaskStop})
			return result, nil
		}
	}

	o.emit(events.Event{Type: events.EventAgentTaskStop})
	return result, &InvariantViolation{Detail: "turn loop exceeded max iterations without finishing"}
}

// callAndStream runs one CALLING_LLM/STREAMING round trip: it builds a
// request from transcript, runs the advisor chain's before hooks, opens the
// stream, and accumulates text and tool calls as they arrive. On a stream
// error, the partial assistant message accumulated so far is still returned
// (with an <error> suffix appended) so no work is silently lost. The bool
// result reports whether the advisor chain's after-call pass (e.g. the
// finish_task sentinel advisor) signaled the turn loop should terminate.
func (o *Orchestrator) callAndStream(ctx context.Context, transcript []chatmodel.Message) (chatmodel.Message, []chatmodel.ToolCall, bool, error) {
	req := llmprovider.Request{
		Model:             o.Model,
		Messages:          transcript,
		Tools:             o.Tools.AllSpecs(),
		ParallelToolCalls: o.ParallelToolCalls,
	}

	if err := o.Chain.BeforeCall(ctx, &req); err != nil {
		return chatmodel.AssistantText(""), nil, false, err
	}
	if err := o.Chain.BeforeStream(ctx, &req); err != nil {
		return chatmodel.AssistantText(""), nil, false, err
	}

	stream, err := o.Provider.Stream(ctx, req)
	if err != nil {
		return chatmodel.AssistantText(""), nil, false, err
	}
	defer stream.Close()

	o.emit(events.Event{Type: events.EventAgentMessageStart})

	var text string
	var toolCalls []chatmodel.ToolCall
	var streamErr error

	for {
		chunk, recvErr := stream.Recv()
		if recvErr == io.EOF {
			break
		}
		if recvErr != nil {
			streamErr = recvErr
			break
		}

		if err := o.Chain.AfterStream(ctx, &req, &chunk); err != nil {
			streamErr = err
			break
		}

		switch chunk.Type {
		case chatmodel.EventTextDelta:
			if chunk.Text != "" {
				text += chunk.Text
				o.emit(events.Event{Type: events.EventAgentMessageDelta, Delta: chunk.Text})
			}
		case chatmodel.EventToolCall:
			if chunk.Tool != nil {
				tc := *chunk.Tool
				toolCalls = append(toolCalls, tc)
				// The wire provider only surfaces a tool call once its name
				// and arguments are fully assembled, so start and ready fire
				// back to back rather than name-then-later-arguments.
				o.emit(events.Event{Type: events.EventAgentToolCallStart, ToolName: tc.Name, ToolID: tc.ID})
				o.emit(events.Event{Type: events.EventAgentToolCallReady, ToolName: tc.Name, ToolID: tc.ID, ToolArguments: tc.Arguments})
			}
		case chatmodel.EventError:
			streamErr = chunk.Err
		}

		if streamErr != nil {
			break
		}
	}

	o.emit(events.Event{Type: events.EventAgentMessageStop})

	if streamErr != nil && text != "" {
		text += fmt.Sprintf("\n<error>%v</error>", streamErr)
	}

	msg := buildAssistantMessage(text, toolCalls)

	var finishTask bool
	if streamErr == nil {
		resp := &advisor.Response{Message: msg}
		if err := o.Chain.AfterCall(ctx, &req, resp); err != nil {
			streamErr = err
		} else {
			finishTask = resp.FinishTask
		}
	}

	return msg, toolCalls, finishTask, streamErr
}

func buildAssistantMessage(text string, toolCalls []chatmodel.ToolCall) chatmodel.Message {
	var parts []chatmodel.Part
	if text != "" {
		parts = append(parts, chatmodel.Part{Type: chatmodel.PartText, Text: text})
	}
	for i := range toolCalls {
		tc := toolCalls[i]
		parts = append(parts, chatmodel.Part{Type: chatmodel.PartToolCall, ToolCall: &tc})
	}
	return chatmodel.Message{ID: chatmodel.NewMessageID(), Role: chatmodel.RoleAssistant, Parts: parts}
}

// executeTools runs each tool call in order (PARSING_TOOLS/EXECUTING_TOOLS),
// snapshotting the workspace first for any tool whose kind can mutate it.
// finishing reports whether any executed call was a toolregistry.FinishingTool.
func (o *Orchestrator) executeTools(ctx context.Context, calls []chatmodel.ToolCall) (msgs []chatmodel.Message, finishing bool) {
	for _, call := range calls {
		if ctx.Err() != nil {
			return msgs, finishing
		}

		tool, ok := o.Tools.Get(call.Name)
		if !ok {
			msgs = append(msgs, chatmodel.ToolResultMessage(call.ID, call.Name, fmt.Sprintf("%s is not found", call.Name)))
			continue
		}

		o.snapshotIfMutating(ctx, call.Name)

		o.emit(events.Event{Type: events.EventAgentToolCallStart, ToolName: call.Name, ToolID: call.ID})

		// AWAITING_APPROVAL: tools whose descriptor declares approval_required
		// block inside Execute on the approval manager's prompt. Surface that
		// wait as its own event so a UI can distinguish "running" from
		// "blocked on the user" before the result comes back.
		if tool.Spec().ApprovalRequired {
			o.emit(events.Event{Type: events.EventAgentToolAwaitApprove, ToolName: call.Name, ToolID: call.ID})
		}

		output, err := tool.Execute(ctx, call.Arguments)
		var resultText string
		switch {
		case errors.Is(err, toolregistry.ErrApprovalRefused):
			resultText = fmt.Sprintf("User refused to execute the tool: %s", call.Name)
		case err != nil:
			resultText = fmt.Sprintf("Error: %v", err)
		default:
			resultText = output.Content
		}

		o.emit(events.Event{
			Type:       events.EventAgentToolResult,
			ToolName:   call.Name,
			ToolID:     call.ID,
			ToolResult: resultText,
		})

		msgs = append(msgs, chatmodel.ToolResultMessage(call.ID, call.Name, resultText))

		if o.Tools.IsFinishingTool(call.Name) {
			finishing = true
		}
	}
	return msgs, finishing
}

// snapshotIfMutating checkpoints the workspace before a tool whose kind can
// change it runs. A snapshot failure is logged and skipped — per the
// checkpoint store's contract, Snapshot errors never abort a turn; only
// Restore errors are fatal.
func (o *Orchestrator) snapshotIfMutating(ctx context.Context, toolName string) {
	if o.Checkpoints == nil {
		return
	}
	if !isMutatorKind(localtools.GetToolKind(toolName)) {
		return
	}
	if _, err := o.Checkpoints.Snapshot(ctx, toolName); err != nil {
		log.Warn().Err(err).Str("tool", toolName).Msg("checkpoint snapshot failed; continuing without a checkpoint")
	}
}

func isMutatorKind(kind localtools.ToolKind) bool {
	for _, k := range localtools.MutatorKinds {
		if k == kind {
			return true
		}
	}
	return false
}
