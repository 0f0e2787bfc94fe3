package mcp

import (
	"context"
	"encoding/json"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/toolregistry"
)

// registryTool adapts a pool-owned MCP tool to the toolregistry.Tool
// contract so the orchestrator never has to know a tool call is actually a
// round trip to a subprocess or HTTP endpoint.
type registryTool struct {
	pool          *Pool
	qualifiedName string
	spec          ToolSpec
}

func (t *registryTool) Spec() chatmodel.ToolSpec {
	return chatmodel.ToolSpec{
		Name:        t.qualifiedName,
		Description: t.spec.Description,
		Schema:      t.spec.Schema,
		// MCP tools run arbitrary server-defined code; treat them as the
		// most privileged kind and always require approval.
		Permission:       chatmodel.PermissionExecute,
		ApprovalRequired: true,
	}
}

func (t *registryTool) Execute(ctx context.Context, args json.RawMessage) (toolregistry.ToolOutput, error) {
	content, err := t.pool.CallTool(ctx, t.qualifiedName, args)
	if err != nil {
		return toolregistry.ToolOutput{}, err
	}
	return toolregistry.ToolOutput{Content: content}, nil
}

func (t *registryTool) Preview(args json.RawMessage) string {
	return t.qualifiedName + " " + string(args)
}

// PublishServerTools registers (or re-registers, on reconnect) a single
// server's current tool list into reg as one atomic group swap.
func PublishServerTools(pool *Pool, reg *toolregistry.Registry, serverName string) {
	tools := pool.ToolsForServer(serverName)
	group := make(map[string]toolregistry.Tool, len(tools))
	for _, spec := range tools {
		group[spec.Name] = &registryTool{pool: pool, qualifiedName: spec.Name, spec: spec}
	}
	reg.ReplaceGroup(serverName, group)
}

// WithdrawServerTools clears a disabled/disconnected server's tools from
// the registry.
func WithdrawServerTools(reg *toolregistry.Registry, serverName string) {
	reg.ClearGroup(serverName)
}
