package localtools

import (
	"context"
	"encoding/json"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/toolregistry"
)

// FinishTaskToolName is the tool spec name the orchestrator watches for to
// end its turn loop (see advisor.FinishTaskAdvisor).
const FinishTaskToolName = "finish_task"

// FinishTaskArgs are the arguments for the finish_task tool.
type FinishTaskArgs struct {
	Summary string `json:"summary,omitempty"`
}

// FinishTaskTool is the sentinel tool the model calls once it considers the
// user's request fully addressed. It has no side effects of its own — its
// only job is to be recognized by toolregistry.FinishingTool so the
// orchestrator knows to stop after this turn.
type FinishTaskTool struct{}

// NewFinishTaskTool creates a new finish_task tool.
func NewFinishTaskTool() *FinishTaskTool { return &FinishTaskTool{} }

func (t *FinishTaskTool) Spec() chatmodel.ToolSpec {
	return chatmodel.ToolSpec{
		Name:             FinishTaskToolName,
		Permission:       chatmodel.PermissionExecute,
		ApprovalRequired: false,
		Description: `Call this once the user's request has been fully addressed and no
further action is needed. Include a brief summary of what was done.`,
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"summary": map[string]interface{}{
					"type":        "string",
					"description": "Brief summary of what was accomplished",
				},
			},
			"additionalProperties": false,
		},
	}
}

func (t *FinishTaskTool) Execute(ctx context.Context, args json.RawMessage) (toolregistry.ToolOutput, error) {
	var a FinishTaskArgs
	_ = json.Unmarshal(args, &a)
	if a.Summary != "" {
		return textOutput(a.Summary), nil
	}
	return textOutput("Task complete."), nil
}

func (t *FinishTaskTool) Preview(args json.RawMessage) string {
	var a FinishTaskArgs
	if err := json.Unmarshal(args, &a); err == nil && a.Summary != "" {
		return a.Summary
	}
	return "finishing task"
}

// IsFinishingTool marks finish_task as the orchestrator's loop-exit signal.
func (t *FinishTaskTool) IsFinishingTool() bool { return true }
