package advisor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/llmprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRecorder struct {
	BaseAdvisor
	name   string
	order  *[]string
	before string
	after  string
}

func (o *orderRecorder) Name() string { return o.name }

func (o *orderRecorder) BeforeCall(ctx context.Context, req *llmprovider.Request) error {
	*o.order = append(*o.order, o.name+":"+o.before)
	return nil
}

func (o *orderRecorder) AfterCall(ctx context.Context, req *llmprovider.Request, resp *Response) error {
	*o.order = append(*o.order, o.name+":"+o.after)
	return nil
}

func TestChain_BeforeForwardAfterReverse(t *testing.T) {
	var order []string
	chain := NewChain(
		&orderRecorder{name: "a", order: &order, before: "before", after: "after"},
		&orderRecorder{name: "b", order: &order, before: "before", after: "after"},
		&orderRecorder{name: "c", order: &order, before: "before", after: "after"},
	)

	req := &llmprovider.Request{Messages: []chatmodel.Message{chatmodel.UserText("hi")}}
	require.NoError(t, chain.BeforeCall(context.Background(), req))
	require.NoError(t, chain.AfterCall(context.Background(), req, &Response{}))

	assert.Equal(t, []string{
		"a:before", "b:before", "c:before",
		"c:after", "b:after", "a:after",
	}, order)
}

func TestSystemPromptAdvisor_InsertsLeadingSystemMessage(t *testing.T) {
	a := NewSystemPromptAdvisor("/workspace", func() string { return "test-model" })
	req := &llmprovider.Request{Messages: []chatmodel.Message{chatmodel.UserText("hello")}}

	require.NoError(t, a.BeforeCall(context.Background(), req))

	require.Len(t, req.Messages, 2)
	assert.Equal(t, chatmodel.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Text(), "/workspace")
	assert.Contains(t, req.Messages[0].Text(), "test-model")
}

func TestSystemPromptAdvisor_LeavesExistingSystemMessageAlone(t *testing.T) {
	a := NewSystemPromptAdvisor("/workspace", func() string { return "test-model" })
	req := &llmprovider.Request{Messages: []chatmodel.Message{
		chatmodel.SystemText("custom prompt"),
		chatmodel.UserText("hello"),
	}}

	require.NoError(t, a.BeforeCall(context.Background(), req))

	require.Len(t, req.Messages, 2)
	assert.Equal(t, "custom prompt", req.Messages[0].Text())
}

func TestFinishTaskAdvisor_DetectsSentinelCall(t *testing.T) {
	a := NewFinishTaskAdvisor()
	resp := &Response{
		Message: chatmodel.Message{
			Role: chatmodel.RoleAssistant,
			Parts: []chatmodel.Part{
				{Type: chatmodel.PartToolCall, ToolCall: &chatmodel.ToolCall{ID: "1", Name: FinishTaskSentinelTool}},
			},
		},
	}

	require.NoError(t, a.AfterCall(context.Background(), &llmprovider.Request{}, resp))
	assert.True(t, resp.FinishTask)
}

func TestFinishTaskAdvisor_IgnoresOtherCalls(t *testing.T) {
	a := NewFinishTaskAdvisor()
	resp := &Response{
		Message: chatmodel.Message{
			Role: chatmodel.RoleAssistant,
			Parts: []chatmodel.Part{
				{Type: chatmodel.PartToolCall, ToolCall: &chatmodel.ToolCall{ID: "1", Name: "read_file"}},
			},
		},
	}

	require.NoError(t, a.AfterCall(context.Background(), &llmprovider.Request{}, resp))
	assert.False(t, resp.FinishTask)
}

func TestRequestLogAdvisor_WritesOneRecordPerDoneEvent(t *testing.T) {
	dir := t.TempDir()
	advisorLog, err := NewRequestLogAdvisor(dir, "sess-1")
	require.NoError(t, err)
	defer advisorLog.Close()

	req := &llmprovider.Request{Model: "test-model", Messages: []chatmodel.Message{chatmodel.UserText("hi")}}
	ctx := context.Background()

	require.NoError(t, advisorLog.AfterStream(ctx, req, &chatmodel.StreamEvent{Type: chatmodel.EventTextDelta, Text: "Hel"}))
	require.NoError(t, advisorLog.AfterStream(ctx, req, &chatmodel.StreamEvent{Type: chatmodel.EventTextDelta, Text: "lo"}))
	require.NoError(t, advisorLog.AfterStream(ctx, req, &chatmodel.StreamEvent{Type: chatmodel.EventDone}))
	require.NoError(t, advisorLog.Close())

	data, err := os.ReadFile(filepath.Join(dir, "sess-1.jsonl"))
	require.NoError(t, err)

	var entry requestLogEntry
	require.NoError(t, json.Unmarshal(data[:len(data)-1], &entry)) // strip trailing newline
	assert.Equal(t, "Hello", entry.Response.Text)
	assert.Equal(t, "test-model", entry.Request.Model)
}
