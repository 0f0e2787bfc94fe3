// Package contextmgr keeps a transcript within a provider's context window,
// using either a sliding-window drop or a summarize-older compaction
// strategy once a token budget threshold is crossed.
package contextmgr

import (
	"context"
	"fmt"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/llmprovider"
)

// Strategy selects how compaction behaves once the threshold is crossed.
type Strategy string

const (
	StrategySlidingWindow   Strategy = "sliding_window"
	StrategySummarizeOlder  Strategy = "summarize_older"
)

// Config controls when and how the Manager compacts a transcript.
type Config struct {
	Strategy        Strategy
	MaxInputTokens  int     // provider's context window, in tokens
	ThresholdRatio  float64 // compact once usage crosses this fraction of MaxInputTokens
	KeepRecentTurns int     // sliding window: number of most-recent messages always kept verbatim
	SummarizeModel  string  // summarize_older: model name for the sub-call (empty = same as main)
}

func DefaultConfig() Config {
	return Config{
		Strategy:        StrategySlidingWindow,
		MaxInputTokens:  128_000,
		ThresholdRatio:  0.85,
		KeepRecentTurns: 20,
	}
}

// Summarizer performs the sub-call summarize-older needs. It is satisfied
// by a thin adapter over llmprovider.Provider.
type Summarizer interface {
	Summarize(ctx context.Context, model string, transcript []chatmodel.Message) (string, error)
}

// Manager tracks running token usage for a session and compacts the
// transcript it's handed once the configured threshold is crossed.
type Manager struct {
	cfg        Config
	encoder    TokenEstimator
	summarizer Summarizer

	lastTotalTokens int
	contextNotice   bool
}

func New(cfg Config, encoder TokenEstimator, summarizer Summarizer) *Manager {
	if encoder == nil {
		encoder = HeuristicEstimator{}
	}
	return &Manager{cfg: cfg, encoder: encoder, summarizer: summarizer}
}

// EstimateTokens returns the Manager's best estimate of a transcript's
// token count using its configured TokenEstimator.
func (m *Manager) EstimateTokens(messages []chatmodel.Message) int {
	total := 0
	for _, msg := range messages {
		total += m.encoder.EstimateMessage(msg)
	}
	return total
}

// RecordUsage stores the provider-reported usage for the most recent turn,
// which is what NeedsCompaction checks against (provider-reported usage is
// authoritative over the heuristic estimate when available).
func (m *Manager) RecordUsage(u chatmodel.Usage) {
	m.lastTotalTokens = u.InputTokens + u.OutputTokens
}

// NeedsCompaction reports whether the last recorded (or estimated) token
// total has crossed the configured threshold.
func (m *Manager) NeedsCompaction(messages []chatmodel.Message) bool {
	total := m.lastTotalTokens
	if total == 0 {
		total = m.EstimateTokens(messages)
	}
	threshold := int(float64(m.cfg.MaxInputTokens) * m.cfg.ThresholdRatio)
	return total >= threshold
}

// Compact returns a new transcript honoring the tool-call pairing
// invariant: it never splits an assistant tool_call message from its
// paired tool_result message (property T1). System messages (index 0, by
// convention) are always preserved.
func (m *Manager) Compact(ctx context.Context, messages []chatmodel.Message) ([]chatmodel.Message, error) {
	if len(messages) == 0 {
		return messages, nil
	}

	switch m.cfg.Strategy {
	case StrategySummarizeOlder:
		return m.compactSummarizeOlder(ctx, messages)
	default:
		return m.compactSlidingWindow(messages), nil
	}
}

func (m *Manager) compactSlidingWindow(messages []chatmodel.Message) []chatmodel.Message {
	keep := m.cfg.KeepRecentTurns
	if keep <= 0 {
		keep = 1
	}

	var head []chatmodel.Message
	if len(messages) > 0 && messages[0].Role == chatmodel.RoleSystem {
		head = append(head, messages[0])
	}

	cut := len(messages) - keep
	if cut <= len(head) {
		return messages
	}

	// Never cut inside a tool_call/tool_result pair: walk the cut point back
	// to the nearest boundary where nothing after it is still unresolved.
	for cut > len(head) && chatmodel.HasUnresolvedToolCalls(messages[:cut]) {
		cut--
	}

	result := make([]chatmodel.Message, 0, len(head)+len(messages)-cut)
	result = append(result, head...)
	result = append(result, messages[cut:]...)
	return result
}

// summarizeOlderPrompt is the fixed instruction used for the summarize-
// older sub-call (resolves spec.md Open Question 2: the exact
// summarization instruction).
const summarizeOlderPrompt = "Summarize the following conversation turns preserving tool call/result pairing and any unresolved action items, in under %d tokens."

func (m *Manager) compactSummarizeOlder(ctx context.Context, messages []chatmodel.Message) ([]chatmodel.Message, error) {
	if m.summarizer == nil {
		return m.compactSlidingWindow(messages), nil
	}

	keep := m.cfg.KeepRecentTurns
	if keep <= 0 {
		keep = 1
	}

	var head []chatmodel.Message
	start := 0
	if len(messages) > 0 && messages[0].Role == chatmodel.RoleSystem {
		head = append(head, messages[0])
		start = 1
	}

	cut := len(messages) - keep
	if cut <= start {
		return messages, nil
	}
	for cut > start && chatmodel.HasUnresolvedToolCalls(messages[:cut]) {
		cut--
	}

	older := messages[start:cut]
	if len(older) == 0 {
		return messages, nil
	}

	budget := m.cfg.MaxInputTokens / 10
	summary, err := m.summarizer.Summarize(ctx, m.cfg.SummarizeModel, older)
	if err != nil {
		return m.compactSlidingWindow(messages), nil
	}
	_ = budget // not forwarded: Summarize takes no length limit, and providerSummarizer's prompt uses a fixed 2000-token cap

	result := make([]chatmodel.Message, 0, len(head)+1+len(messages)-cut)
	result = append(result, head...)
	result = append(result, chatmodel.SystemText("[earlier conversation summary]\n"+summary))
	result = append(result, messages[cut:]...)
	return result, nil
}

// ContextNoticeEmitted reports and latches whether the user-facing
// "context compacted" notice has already been emitted this session. The
// latch is never reset, so the notice is emitted at most once per session.
func (m *Manager) ContextNoticeEmitted() bool {
	was := m.contextNotice
	m.contextNotice = true
	return was
}

// providerSummarizer adapts an llmprovider.Provider into a Summarizer by
// issuing a single non-tool, non-streaming-consumed turn.
type providerSummarizer struct {
	provider llmprovider.Provider
}

func NewProviderSummarizer(p llmprovider.Provider) Summarizer {
	return &providerSummarizer{provider: p}
}

func (s *providerSummarizer) Summarize(ctx context.Context, model string, transcript []chatmodel.Message) (string, error) {
	prompt := fmt.Sprintf(summarizeOlderPrompt, 2000)
	req := llmprovider.Request{
		Model: model,
		Messages: append([]chatmodel.Message{
			chatmodel.SystemText(prompt),
		}, transcript...),
	}

	stream, err := s.provider.Stream(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var text string
	for {
		event, err := stream.Recv()
		if err != nil {
			break
		}
		if event.Type == chatmodel.EventTextDelta {
			text += event.Text
		}
		if event.Type == chatmodel.EventDone {
			break
		}
	}
	return text, nil
}
