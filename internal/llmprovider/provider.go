// Package llmprovider implements the LLM Provider contract: a single
// OpenAI-compatible chat-completions wire client plus the retry wrapper
// every provider is run behind.
package llmprovider

import (
	"context"

	"github.com/agentcore/agentcore/internal/chatmodel"
)

// Provider streams model output for a single request.
type Provider interface {
	Name() string
	Credential() string
	Capabilities() Capabilities
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Capabilities describe optional features a provider supports.
type Capabilities struct {
	NativeWebSearch    bool
	NativeWebFetch     bool
	ToolCalls          bool
	SupportsToolChoice bool
	ManagesOwnContext  bool
}

// Stream yields events until io.EOF.
type Stream interface {
	Recv() (chatmodel.StreamEvent, error)
	Close() error
}

// Request represents a single model turn.
type Request struct {
	Model             string
	Messages          []chatmodel.Message
	Tools             []chatmodel.ToolSpec
	ToolChoice        chatmodel.ToolChoice
	ParallelToolCalls bool
	Search            bool
	ReasoningEffort   string
	MaxOutputTokens   int
	Temperature       float32
	TopP              float32
	Debug             bool
}

// ModelInfo describes a model a provider offers.
type ModelInfo struct {
	ID          string
	DisplayName string
	Created     int64
	OwnedBy     string
}
