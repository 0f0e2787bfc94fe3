// Package advisor implements the ordered request/response interceptor chain
// that runs around every LLM turn: system prompt injection, skills
// announcement, context-window enforcement, request/response logging, and
// finish-task detection.
package advisor

import (
	"context"
	"fmt"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/llmprovider"
)

// Response is the orchestrator's assembled view of a completed turn, built
// up from streamed chunks and handed to AfterCall once the stream reaches
// EventDone.
type Response struct {
	Message    chatmodel.Message
	Usage      chatmodel.Usage
	FinishTask bool // set by FinishTaskAdvisor once it sees the sentinel call
}

// Advisor is a request/response interceptor run as part of a Chain. All
// four hooks are optional; advisors embed BaseAdvisor and override only the
// ones they need. Advisors must be pure with respect to ordering — no
// hidden coupling to another advisor's state.
type Advisor interface {
	Name() string
	BeforeCall(ctx context.Context, req *llmprovider.Request) error
	BeforeStream(ctx context.Context, req *llmprovider.Request) error
	AfterStream(ctx context.Context, req *llmprovider.Request, chunk *chatmodel.StreamEvent) error
	AfterCall(ctx context.Context, req *llmprovider.Request, resp *Response) error
}

// BaseAdvisor provides no-op implementations of every hook so a concrete
// advisor only needs to implement the ones it cares about.
type BaseAdvisor struct{}

func (BaseAdvisor) BeforeCall(ctx context.Context, req *llmprovider.Request) error { return nil }
func (BaseAdvisor) BeforeStream(ctx context.Context, req *llmprovider.Request) error {
	return nil
}
func (BaseAdvisor) AfterStream(ctx context.Context, req *llmprovider.Request, chunk *chatmodel.StreamEvent) error {
	return nil
}
func (BaseAdvisor) AfterCall(ctx context.Context, req *llmprovider.Request, resp *Response) error {
	return nil
}

// Chain runs a fixed, ordered list of advisors around a turn. before_* hooks
// run in registration order; after_* hooks run in reverse, so the last
// advisor to touch the outgoing request is the first to see the response.
type Chain struct {
	advisors []Advisor
}

// NewChain builds a Chain from an ordered advisor list. Order is
// significant: see the built-in advisor doc comments for the expected
// arrangement (system prompt, skills, context, request log, finish task).
func NewChain(advisors ...Advisor) *Chain {
	return &Chain{advisors: advisors}
}

func (c *Chain) BeforeCall(ctx context.Context, req *llmprovider.Request) error {
	for _, a := range c.advisors {
		if err := a.BeforeCall(ctx, req); err != nil {
			return fmt.Errorf("advisor %s: before_call: %w", a.Name(), err)
		}
	}
	return nil
}

func (c *Chain) BeforeStream(ctx context.Context, req *llmprovider.Request) error {
	for _, a := range c.advisors {
		if err := a.BeforeStream(ctx, req); err != nil {
			return fmt.Errorf("advisor %s: before_stream: %w", a.Name(), err)
		}
	}
	return nil
}

func (c *Chain) AfterStream(ctx context.Context, req *llmprovider.Request, chunk *chatmodel.StreamEvent) error {
	for i := len(c.advisors) - 1; i >= 0; i-- {
		a := c.advisors[i]
		if err := a.AfterStream(ctx, req, chunk); err != nil {
			return fmt.Errorf("advisor %s: after_stream: %w", a.Name(), err)
		}
	}
	return nil
}

func (c *Chain) AfterCall(ctx context.Context, req *llmprovider.Request, resp *Response) error {
	for i := len(c.advisors) - 1; i >= 0; i-- {
		a := c.advisors[i]
		if err := a.AfterCall(ctx, req, resp); err != nil {
			return fmt.Errorf("advisor %s: after_call: %w", a.Name(), err)
		}
	}
	return nil
}

// appendSystemText appends a text part to a message in place. Parts are
// value types, so growing a message's text means adding a new part rather
// than mutating an existing one.
func appendSystemText(msg *chatmodel.Message, text string) {
	msg.Parts = append(msg.Parts, chatmodel.Part{Type: chatmodel.PartText, Text: text})
}
