package advisor

import (
	"context"

	"github.com/agentcore/agentcore/internal/llmprovider"
)

// FinishTaskSentinelTool is the tool name the orchestrator's turn loop
// treats as "the agent is done": a call to it terminates the loop instead
// of triggering another round.
const FinishTaskSentinelTool = "finish_task"

// FinishTaskAdvisor watches the assembled response's tool calls for the
// finish_task sentinel and marks Response.FinishTask when it's seen. Runs
// last in the chain (first on the after_call reverse pass) so it always
// sees the final assembled message.
type FinishTaskAdvisor struct {
	BaseAdvisor
}

func NewFinishTaskAdvisor() *FinishTaskAdvisor {
	return &FinishTaskAdvisor{}
}

func (a *FinishTaskAdvisor) Name() string { return "finish_task" }

func (a *FinishTaskAdvisor) AfterCall(ctx context.Context, req *llmprovider.Request, resp *Response) error {
	for _, tc := range resp.Message.ToolCallsIn() {
		if tc.Name == FinishTaskSentinelTool {
			resp.FinishTask = true
			return nil
		}
	}
	return nil
}
