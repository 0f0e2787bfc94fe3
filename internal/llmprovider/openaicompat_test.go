package llmprovider

import (
	"testing"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/stretchr/testify/assert"
)

func TestNewOpenAICompatProvider_StripsChatCompletionsSuffix(t *testing.T) {
	p := NewOpenAICompatProvider("http://localhost:1234/v1/chat/completions", "", "local-model", "Local")
	assert.Equal(t, "http://localhost:1234/v1", p.baseURL)
}

func TestBuildCompatMessages_AssistantToolCallRoundTrip(t *testing.T) {
	msgs := []chatmodel.Message{
		chatmodel.UserText("what's 2+2?"),
		{
			Role: chatmodel.RoleAssistant,
			Parts: []chatmodel.Part{
				{Type: chatmodel.PartToolCall, ToolCall: &chatmodel.ToolCall{ID: "call_1", Name: "calculator", Arguments: []byte(`{"expr":"2+2"}`)}},
			},
		},
		chatmodel.ToolResultMessage("call_1", "calculator", "4"),
	}

	out := buildCompatMessages(msgs)
	assert.Len(t, out, 3)
	assert.Equal(t, "assistant", out[1].Role)
	assert.Len(t, out[1].ToolCalls, 1)
	assert.Equal(t, "call_1", out[1].ToolCalls[0].ID)
	assert.Equal(t, "tool", out[2].Role)
	assert.Equal(t, "call_1", out[2].ToolCallID)
}

func TestCompatToolState_AccumulatesByIndex(t *testing.T) {
	state := newCompatToolState()
	state.Add([]oaiToolCall{{Index: 0, ID: "call_1", Type: "function"}})
	state.Add([]oaiToolCall{{Index: 0, Function: struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	}{Name: "calculator"}}})
	state.Add([]oaiToolCall{{Index: 0, Function: struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	}{Arguments: `{"expr":"2+2"}`}}})

	calls := state.Calls()
	if assert.Len(t, calls, 1) {
		assert.Equal(t, "call_1", calls[0].ID)
		assert.Equal(t, "calculator", calls[0].Name)
		assert.JSONEq(t, `{"expr":"2+2"}`, string(calls[0].Arguments))
	}
}
