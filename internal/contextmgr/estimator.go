package contextmgr

import (
	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator estimates the token cost of a single message.
type TokenEstimator interface {
	EstimateMessage(msg chatmodel.Message) int
}

// HeuristicEstimator approximates token count as roughly 4 characters per
// token, the same rough heuristic the teacher's engine falls back to when
// no tokenizer is available for the active model.
type HeuristicEstimator struct{}

func (HeuristicEstimator) EstimateMessage(msg chatmodel.Message) int {
	chars := 0
	for _, p := range msg.Parts {
		chars += len(p.Text)
		if p.ToolCall != nil {
			chars += len(p.ToolCall.Name) + len(p.ToolCall.Arguments)
		}
		if p.ToolResult != nil {
			chars += len(p.ToolResult.Content)
		}
	}
	// +4 for role/field overhead per message, matching the per-message
	// fixed cost OpenAI-compatible tokenizers charge.
	return chars/4 + 4
}

// TiktokenEstimator uses a real BPE encoding when one is registered for the
// active model family, falling back to the heuristic on any lookup/encode
// failure so a tokenizer gap never blocks compaction from running.
type TiktokenEstimator struct {
	encoding string
	fallback TokenEstimator
}

func NewTiktokenEstimator(encoding string) *TiktokenEstimator {
	return &TiktokenEstimator{encoding: encoding, fallback: HeuristicEstimator{}}
}

func (t *TiktokenEstimator) EstimateMessage(msg chatmodel.Message) int {
	enc, err := tiktoken.GetEncoding(t.encoding)
	if err != nil {
		return t.fallback.EstimateMessage(msg)
	}
	total := 4
	for _, p := range msg.Parts {
		if p.Text != "" {
			total += len(enc.Encode(p.Text, nil, nil))
		}
		if p.ToolCall != nil {
			total += len(enc.Encode(string(p.ToolCall.Arguments), nil, nil))
		}
		if p.ToolResult != nil {
			total += len(enc.Encode(p.ToolResult.Content, nil, nil))
		}
	}
	return total
}
