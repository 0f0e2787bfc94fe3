package advisor

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/llmprovider"
)

// SystemPromptAdvisor ensures every request carries a leading system
// message, rendering one from the agent role template when the caller
// hasn't supplied its own. Runs first in the chain so every later advisor
// can assume req.Messages[0] is the system message.
type SystemPromptAdvisor struct {
	BaseAdvisor

	WorkspacePath string
	ModelName     func() string // resolved lazily; the active model can change mid-session via /model
	Now           func() time.Time
}

func NewSystemPromptAdvisor(workspacePath string, modelName func() string) *SystemPromptAdvisor {
	return &SystemPromptAdvisor{WorkspacePath: workspacePath, ModelName: modelName}
}

func (a *SystemPromptAdvisor) Name() string { return "system_prompt" }

func (a *SystemPromptAdvisor) BeforeCall(ctx context.Context, req *llmprovider.Request) error {
	if len(req.Messages) > 0 && req.Messages[0].Role == chatmodel.RoleSystem {
		return nil
	}
	req.Messages = append([]chatmodel.Message{chatmodel.SystemText(a.render(req))}, req.Messages...)
	return nil
}

func (a *SystemPromptAdvisor) render(req *llmprovider.Request) string {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	model := req.Model
	if a.ModelName != nil {
		if m := a.ModelName(); m != "" {
			model = m
		}
	}

	toolNames := make([]string, 0, len(req.Tools))
	for _, t := range req.Tools {
		toolNames = append(toolNames, t.Name)
	}

	return fmt.Sprintf(`You are an autonomous coding agent working in a local workspace. Use the
available tools to inspect and modify the workspace as needed to satisfy the
user's request, and call finish_task once it is fully addressed.

Context:
- Timestamp: %s
- Workspace: %s
- Operating System: %s/%s
- Model: %s
- Available tools: %s`,
		now().Format(time.RFC3339),
		a.WorkspacePath,
		runtime.GOOS, runtime.GOARCH,
		model,
		strings.Join(toolNames, ", "),
	)
}
