package advisor

import (
	"context"

	"github.com/agentcore/agentcore/internal/contextmgr"
	"github.com/agentcore/agentcore/internal/llmprovider"
)

// ContextAdvisor enforces the token budget by compacting the outgoing
// request's message list through a contextmgr.Manager before it's sent, and
// feeding provider-reported usage back in once the turn completes.
type ContextAdvisor struct {
	BaseAdvisor

	Manager *contextmgr.Manager

	// OnNotice is invoked the first time a turn triggers compaction, so the
	// orchestrator can surface a one-time "context compacted" event.
	OnNotice func()
}

func NewContextAdvisor(mgr *contextmgr.Manager, onNotice func()) *ContextAdvisor {
	return &ContextAdvisor{Manager: mgr, OnNotice: onNotice}
}

func (a *ContextAdvisor) Name() string { return "context" }

func (a *ContextAdvisor) BeforeCall(ctx context.Context, req *llmprovider.Request) error {
	if a.Manager == nil || !a.Manager.NeedsCompaction(req.Messages) {
		return nil
	}

	compacted, err := a.Manager.Compact(ctx, req.Messages)
	if err != nil {
		// Compact already degrades summarize-older to sliding-window
		// internally; a hard error here means even that failed, so leave
		// the request untouched rather than abort the turn.
		return nil
	}
	req.Messages = compacted

	if !a.Manager.ContextNoticeEmitted() && a.OnNotice != nil {
		a.OnNotice()
	}
	return nil
}

func (a *ContextAdvisor) AfterCall(ctx context.Context, req *llmprovider.Request, resp *Response) error {
	if a.Manager != nil {
		a.Manager.RecordUsage(resp.Usage)
	}
	return nil
}
