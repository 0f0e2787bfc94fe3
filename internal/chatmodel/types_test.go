package chatmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserText_BuildsSingleTextPart(t *testing.T) {
	msg := UserText("hello")
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Text())
	assert.NotEmpty(t, msg.ID)
}

func TestToolResultMessage_CarriesToolResult(t *testing.T) {
	msg := ToolResultMessage("call-1", "shell", "done")
	require := assert.New(t)
	require.Equal(RoleTool, msg.Role)
	require.Len(msg.Parts, 1)
	require.Equal(PartToolResult, msg.Parts[0].Type)
	require.Equal("call-1", msg.Parts[0].ToolResult.ID)
	require.Equal("done", msg.Parts[0].ToolResult.Content)
}

func TestToolCallsIn_IgnoresNonToolCallParts(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Parts: []Part{
			{Type: PartText, Text: "thinking"},
			{Type: PartToolCall, ToolCall: &ToolCall{ID: "1", Name: "shell"}},
			{Type: PartToolCall, ToolCall: &ToolCall{ID: "2", Name: "grep"}},
		},
	}
	calls := msg.ToolCallsIn()
	require := assert.New(t)
	require.Len(calls, 2)
	require.Equal("shell", calls[0].Name)
	require.Equal("grep", calls[1].Name)
}

func TestText_ConcatenatesAllTextParts(t *testing.T) {
	msg := Message{
		Parts: []Part{
			{Type: PartText, Text: "foo"},
			{Type: PartToolCall, ToolCall: &ToolCall{ID: "1"}},
			{Type: PartText, Text: "bar"},
		},
	}
	assert.Equal(t, "foobar", msg.Text())
}

func TestHasUnresolvedToolCalls_TrueWhenResultMissing(t *testing.T) {
	transcript := []Message{
		UserText("go"),
		{
			Role: RoleAssistant,
			Parts: []Part{
				{Type: PartToolCall, ToolCall: &ToolCall{ID: "call-1", Name: "shell"}},
			},
		},
	}
	assert.True(t, HasUnresolvedToolCalls(transcript))
}

func TestHasUnresolvedToolCalls_FalseWhenPaired(t *testing.T) {
	transcript := []Message{
		UserText("go"),
		{
			Role: RoleAssistant,
			Parts: []Part{
				{Type: PartToolCall, ToolCall: &ToolCall{ID: "call-1", Name: "shell"}},
			},
		},
		ToolResultMessage("call-1", "shell", "done"),
	}
	assert.False(t, HasUnresolvedToolCalls(transcript))
}

func TestHasUnresolvedToolCalls_EmptyTranscript(t *testing.T) {
	assert.False(t, HasUnresolvedToolCalls(nil))
}
