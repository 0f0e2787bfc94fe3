package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/agentcore/agentcore/internal/advisor"
	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/events"
	"github.com/agentcore/agentcore/internal/llmprovider"
	"github.com/agentcore/agentcore/internal/localtools"
	"github.com/agentcore/agentcore/internal/toolregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream replays a fixed slice of events, then io.EOF, or a trailing
// error if streamErr is set.
type fakeStream struct {
	events    []chatmodel.StreamEvent
	streamErr error
	i         int
}

func (s *fakeStream) Recv() (chatmodel.StreamEvent, error) {
	if s.i < len(s.events) {
		ev := s.events[s.i]
		s.i++
		return ev, nil
	}
	if s.streamErr != nil {
		return chatmodel.StreamEvent{}, s.streamErr
	}
	return chatmodel.StreamEvent{}, io.EOF
}

func (s *fakeStream) Close() error { return nil }

// fakeProvider replays one fakeStream per call to Stream, consuming turns
// list in order; if turns runs out the last entry repeats.
type fakeProvider struct {
	turns []*fakeStream
	calls int
}

func (p *fakeProvider) Name() string                          { return "fake" }
func (p *fakeProvider) Credential() string                    { return "" }
func (p *fakeProvider) Capabilities() llmprovider.Capabilities { return llmprovider.Capabilities{ToolCalls: true} }

func (p *fakeProvider) Stream(ctx context.Context, req llmprovider.Request) (llmprovider.Stream, error) {
	idx := p.calls
	if idx >= len(p.turns) {
		idx = len(p.turns) - 1
	}
	p.calls++
	return p.turns[idx], nil
}

// fakeTool returns result, or err when set, recording every call it received.
type fakeTool struct {
	name      string
	result    string
	err       error
	finishing bool
	calls     *[]string
}

func (t *fakeTool) Spec() chatmodel.ToolSpec {
	return chatmodel.ToolSpec{Name: t.name}
}

func (t *fakeTool) Execute(ctx context.Context, args json.RawMessage) (toolregistry.ToolOutput, error) {
	if t.calls != nil {
		*t.calls = append(*t.calls, t.name)
	}
	if t.err != nil {
		return toolregistry.ToolOutput{}, t.err
	}
	return toolregistry.ToolOutput{Content: t.result}, nil
}

func (t *fakeTool) Preview(args json.RawMessage) string { return t.name }

func (t *fakeTool) IsFinishingTool() bool { return t.finishing }

func textDelta(s string) chatmodel.StreamEvent {
	return chatmodel.StreamEvent{Type: chatmodel.EventTextDelta, Text: s}
}

func toolCallEvent(id, name, args string) chatmodel.StreamEvent {
	return chatmodel.StreamEvent{
		Type: chatmodel.EventToolCall,
		Tool: &chatmodel.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)},
	}
}

func newOrchestrator(provider llmprovider.Provider, registry *toolregistry.Registry) *Orchestrator {
	return &Orchestrator{
		Provider: provider,
		Chain:    advisor.NewChain(),
		Tools:    registry,
		Bus:      events.NewBus(),
		Model:    "test-model",
	}
}

func TestRunTurn_NoToolCallsEndsTurn(t *testing.T) {
	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{textDelta("hello "), textDelta("world")}},
	}}
	o := newOrchestrator(provider, toolregistry.New())

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "hi")

	require.NoError(t, err)
	assert.False(t, result.Done)
	require.Len(t, transcript, 2)
	assert.Equal(t, chatmodel.RoleUser, transcript[0].Role)
	assert.Equal(t, chatmodel.RoleAssistant, transcript[1].Role)
	assert.Equal(t, "hello world", transcript[1].Text())
}

func TestRunTurn_ToolCallIsPairedWithResultAndLoops(t *testing.T) {
	var calls []string
	registry := toolregistry.New()
	require.NoError(t, registry.Register("read_file", &fakeTool{name: "read_file", result: "file contents", calls: &calls}))

	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{toolCallEvent("call-1", "read_file", `{"path":"a.txt"}`)}},
		{events: []chatmodel.StreamEvent{textDelta("done")}},
	}}
	o := newOrchestrator(provider, registry)

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "read a.txt")

	require.NoError(t, err)
	assert.False(t, result.Done)
	assert.Equal(t, []string{"read_file"}, calls)
	assert.False(t, chatmodel.HasUnresolvedToolCalls(transcript))

	var roles []chatmodel.Role
	for _, m := range transcript {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []chatmodel.Role{
		chatmodel.RoleUser, chatmodel.RoleAssistant, chatmodel.RoleTool, chatmodel.RoleAssistant,
	}, roles)
}

func TestRunTurn_FinishingToolEndsTurnAsDone(t *testing.T) {
	registry := toolregistry.New()
	require.NoError(t, registry.Register(localtools.FinishTaskToolName, &fakeTool{
		name: localtools.FinishTaskToolName, result: "ok", finishing: true,
	}))

	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{toolCallEvent("call-1", localtools.FinishTaskToolName, `{}`)}},
	}}
	o := newOrchestrator(provider, registry)

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "wrap up")

	require.NoError(t, err)
	assert.True(t, result.Done)
}

func TestRunTurn_UnknownToolProducesNotFoundResultAndContinues(t *testing.T) {
	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{toolCallEvent("call-1", "does_not_exist", `{}`)}},
		{events: []chatmodel.StreamEvent{textDelta("recovered")}},
	}}
	o := newOrchestrator(provider, toolregistry.New())

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "call missing tool")

	require.NoError(t, err)
	assert.False(t, result.Done)

	var toolMsg chatmodel.Message
	for _, m := range transcript {
		if m.Role == chatmodel.RoleTool {
			toolMsg = m
		}
	}
	require.NotEmpty(t, toolMsg.Parts)
	assert.Contains(t, toolMsg.Parts[0].ToolResult.Content, "does_not_exist is not found")
}

func TestRunTurn_ToolExecutionErrorIsCapturedNotRaised(t *testing.T) {
	registry := toolregistry.New()
	require.NoError(t, registry.Register("shell", &fakeTool{name: "shell", err: errors.New("boom")}))

	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{toolCallEvent("call-1", "shell", `{}`)}},
		{events: []chatmodel.StreamEvent{textDelta("recovered")}},
	}}
	o := newOrchestrator(provider, registry)

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "run shell")

	require.NoError(t, err)
	assert.False(t, result.Done)

	var toolMsg chatmodel.Message
	for _, m := range transcript {
		if m.Role == chatmodel.RoleTool {
			toolMsg = m
		}
	}
	assert.Contains(t, toolMsg.Parts[0].ToolResult.Content, "boom")
}

func TestRunTurn_ApprovalRefusalProducesFixedResultText(t *testing.T) {
	registry := toolregistry.New()
	require.NoError(t, registry.Register("write_file", &fakeTool{
		name: "write_file", err: toolregistry.ErrApprovalRefused,
	}))

	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{toolCallEvent("call-1", "write_file", `{}`)}},
		{events: []chatmodel.StreamEvent{textDelta("recovered")}},
	}}
	o := newOrchestrator(provider, registry)

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "write a file")

	require.NoError(t, err)
	assert.False(t, result.Done)

	var toolMsg chatmodel.Message
	for _, m := range transcript {
		if m.Role == chatmodel.RoleTool {
			toolMsg = m
		}
	}
	require.NotEmpty(t, toolMsg.Parts)
	assert.Equal(t, "User refused to execute the tool: write_file", toolMsg.Parts[0].ToolResult.Content)
}

func TestRunTurn_FinishTaskAdvisorEndsTurnAsDone(t *testing.T) {
	registry := toolregistry.New()
	require.NoError(t, registry.Register(localtools.FinishTaskToolName, &fakeTool{
		name: localtools.FinishTaskToolName, result: "ok",
	}))

	chain := advisor.NewChain(advisor.NewFinishTaskAdvisor())

	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{toolCallEvent("call-1", localtools.FinishTaskToolName, `{}`)}},
	}}
	o := newOrchestrator(provider, registry)
	o.Chain = chain

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "wrap up")

	require.NoError(t, err)
	assert.True(t, result.Done)
}

func TestRunTurn_ProviderErrorAbortsTurnPreservingPartialText(t *testing.T) {
	provider := &fakeProvider{turns: []*fakeStream{
		{
			events:    []chatmodel.StreamEvent{textDelta("partial response")},
			streamErr: errors.New("connection reset"),
		},
	}}
	o := newOrchestrator(provider, toolregistry.New())

	var transcript []chatmodel.Message
	result, err := o.RunTurn(context.Background(), &transcript, "hi")

	require.Error(t, err)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.False(t, result.Done)

	require.Len(t, transcript, 2)
	assistant := transcript[1]
	assert.Contains(t, assistant.Text(), "partial response")
	assert.Contains(t, assistant.Text(), "<error>")
}

func TestRunTurn_EmitsBusEventsAcrossTurn(t *testing.T) {
	provider := &fakeProvider{turns: []*fakeStream{
		{events: []chatmodel.StreamEvent{textDelta("hi")}},
	}}
	o := newOrchestrator(provider, toolregistry.New())

	var seen []events.EventType
	o.Bus.Subscribe(events.EventAgentTaskStart, func(ev events.Event) { seen = append(seen, ev.Type) }, 0)
	o.Bus.Subscribe(events.EventAgentTaskStop, func(ev events.Event) { seen = append(seen, ev.Type) }, 0)
	o.Bus.Subscribe(events.EventAgentMessageStart, func(ev events.Event) { seen = append(seen, ev.Type) }, 0)
	o.Bus.Subscribe(events.EventAgentMessageStop, func(ev events.Event) { seen = append(seen, ev.Type) }, 0)

	var transcript []chatmodel.Message
	_, err := o.RunTurn(context.Background(), &transcript, "hi")
	require.NoError(t, err)
	o.Bus.Shutdown(true)

	assert.Contains(t, seen, events.EventAgentTaskStart)
	assert.Contains(t, seen, events.EventAgentMessageStart)
	assert.Contains(t, seen, events.EventAgentMessageStop)
	assert.Contains(t, seen, events.EventAgentTaskStop)
}
