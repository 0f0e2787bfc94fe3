// Package chatmodel defines the role/message/tool-call data model shared by
// the LLM provider, context manager, advisor chain, and orchestrator.
package chatmodel

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Role identifies a message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartType identifies a message content part.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
	PartImage      PartType = "image"
)

// ImageData holds an inline base64-encoded image.
type ImageData struct {
	MediaType string
	Base64    string
}

// Message is one turn in the transcript. ID is stable across compaction and
// is used by the session store and RequestLogAdvisor for keying.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Part represents a single content part of a message.
type Part struct {
	Type       PartType    `json:"type"`
	Text       string      `json:"text,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	ImageData  *ImageData  `json:"image_data,omitempty"`
}

// ToolPermission classifies the kind of access a tool exercises, so callers
// can reason about blast radius without inspecting the tool's implementation.
type ToolPermission string

const (
	PermissionRead    ToolPermission = "read"
	PermissionWrite   ToolPermission = "write"
	PermissionExecute ToolPermission = "execute"
)

// ToolSpec describes a callable tool as exposed to the provider.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}

	// Permission classifies the tool's access for display and policy
	// decisions. ApprovalRequired marks tools whose invocation must be
	// confirmed by the user (or an auto-approval rule) before it runs.
	Permission       ToolPermission
	ApprovalRequired bool
}

// ToolChoiceMode controls tool selection behavior for a request.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceName     ToolChoiceMode = "name"
)

// ToolChoice configures which tool the model should call.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string
}

// ToolCall is a model-requested tool invocation. Index carries the
// provider's stream index so delta reassembly during accumulation is
// explicit rather than positional.
type ToolCall struct {
	ID        string
	Index     int
	Name      string
	Arguments json.RawMessage
}

// ToolResult is the output of executing a ToolCall.
type ToolResult struct {
	ID      string
	Name    string
	Content string
}

func NewMessageID() string {
	return uuid.NewString()
}

func SystemText(text string) Message {
	return Message{ID: NewMessageID(), Role: RoleSystem, Parts: []Part{{Type: PartText, Text: text}}}
}

func UserText(text string) Message {
	return Message{ID: NewMessageID(), Role: RoleUser, Parts: []Part{{Type: PartText, Text: text}}}
}

func AssistantText(text string) Message {
	return Message{ID: NewMessageID(), Role: RoleAssistant, Parts: []Part{{Type: PartText, Text: text}}}
}

func ToolResultMessage(id, name, content string) Message {
	return Message{
		ID:   NewMessageID(),
		Role: RoleTool,
		Parts: []Part{{
			Type:       PartToolResult,
			ToolResult: &ToolResult{ID: id, Name: name, Content: content},
		}},
	}
}

// ToolCallsIn returns every tool call part in the message, in order.
func (m Message) ToolCallsIn() []ToolCall {
	var out []ToolCall
	for _, p := range m.Parts {
		if p.Type == PartToolCall && p.ToolCall != nil {
			out = append(out, *p.ToolCall)
		}
	}
	return out
}

// Text concatenates every text part in the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}

// HasUnresolvedToolCalls reports whether any assistant tool call in the
// transcript still lacks a matching tool-result message. This is
// the enforcement point for the tool-call pairing invariant (every
// tool_call part must be paired with exactly one tool_result before the
// next user turn).
func HasUnresolvedToolCalls(transcript []Message) bool {
	pending := map[string]bool{}
	for _, msg := range transcript {
		switch msg.Role {
		case RoleAssistant:
			for _, tc := range msg.ToolCallsIn() {
				pending[tc.ID] = true
			}
		case RoleTool:
			for _, p := range msg.Parts {
				if p.Type == PartToolResult && p.ToolResult != nil {
					delete(pending, p.ToolResult.ID)
				}
			}
		}
	}
	return len(pending) > 0
}
