package advisor

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/llmprovider"
	"github.com/rs/zerolog/log"
)

// RequestLogAdvisor writes one combined JSONL record per turn to a
// per-session debug log. Streaming deltas are buffered in memory, keyed by
// a hash of the outgoing request's message list, and flushed as a single
// record when the stream's finish_reason (EventDone) arrives — rather than
// one noisy line per chunk.
type RequestLogAdvisor struct {
	BaseAdvisor

	sessionID string

	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	pending map[string]*pendingTurn
}

type pendingTurn struct {
	text      strings.Builder
	toolCalls []chatmodel.ToolCall
	usage     chatmodel.Usage
}

// NewRequestLogAdvisor opens (creating if needed) the per-session log file
// dir/sessionID.jsonl. dir is pruned of entries older than 7 days on open.
func NewRequestLogAdvisor(dir, sessionID string) (*RequestLogAdvisor, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("request log: %w", err)
	}
	_ = CleanupOldLogs(dir, 7*24*time.Hour)

	path := filepath.Join(dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("request log: %w", err)
	}

	return &RequestLogAdvisor{
		sessionID: sessionID,
		file:      f,
		writer:    bufio.NewWriter(f),
		pending:   make(map[string]*pendingTurn),
	}, nil
}

func (a *RequestLogAdvisor) Name() string { return "request_log" }

func (a *RequestLogAdvisor) AfterStream(ctx context.Context, req *llmprovider.Request, chunk *chatmodel.StreamEvent) error {
	if a == nil || a.file == nil || chunk == nil {
		return nil
	}

	hash := hashRequest(req)

	a.mu.Lock()
	defer a.mu.Unlock()

	pt, ok := a.pending[hash]
	if !ok {
		pt = &pendingTurn{}
		a.pending[hash] = pt
	}

	switch chunk.Type {
	case chatmodel.EventTextDelta:
		pt.text.WriteString(chunk.Text)
	case chatmodel.EventToolCall:
		if chunk.Tool != nil {
			pt.toolCalls = append(pt.toolCalls, *chunk.Tool)
		}
	case chatmodel.EventUsage:
		if chunk.Use != nil {
			pt.usage = *chunk.Use
		}
	case chatmodel.EventDone:
		a.writeLocked(hash, req, pt)
		delete(a.pending, hash)
	}
	return nil
}

// Close flushes and closes the underlying log file. Safe to call on a nil
// receiver.
func (a *RequestLogAdvisor) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.writer.Flush(); err != nil {
		return err
	}
	return a.file.Close()
}

type requestLogEntry struct {
	Timestamp string             `json:"timestamp"`
	SessionID string             `json:"session_id"`
	Hash      string             `json:"request_hash"`
	Request   requestLogRequest  `json:"request"`
	Response  requestLogResponse `json:"response"`
}

type requestLogRequest struct {
	Model    string              `json:"model"`
	Messages []requestLogMessage `json:"messages"`
	Tools    []string            `json:"tools,omitempty"`
}

type requestLogMessage struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
}

type requestLogResponse struct {
	Text      string               `json:"text,omitempty"`
	ToolCalls []requestLogToolCall `json:"tool_calls,omitempty"`
	Usage     chatmodel.Usage      `json:"usage"`
}

type requestLogToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

func (a *RequestLogAdvisor) writeLocked(hash string, req *llmprovider.Request, pt *pendingTurn) {
	messages := make([]requestLogMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = requestLogMessage{Role: string(m.Role), Text: m.Text()}
	}

	toolNames := make([]string, 0, len(req.Tools))
	for _, t := range req.Tools {
		toolNames = append(toolNames, t.Name)
	}

	toolCalls := make([]requestLogToolCall, 0, len(pt.toolCalls))
	for _, tc := range pt.toolCalls {
		toolCalls = append(toolCalls, requestLogToolCall{Name: tc.Name, Arguments: string(tc.Arguments)})
	}

	entry := requestLogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: a.sessionID,
		Hash:      hash,
		Request: requestLogRequest{
			Model:    req.Model,
			Messages: messages,
			Tools:    toolNames,
		},
		Response: requestLogResponse{
			Text:      pt.text.String(),
			ToolCalls: toolCalls,
			Usage:     pt.usage,
		},
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Warn().Err(err).Msg("request log: failed to marshal entry")
		return
	}

	a.writer.Write(data)
	a.writer.WriteString("\n")
	if err := a.writer.Flush(); err != nil {
		log.Warn().Err(err).Msg("request log: failed to flush")
	}
}

func hashRequest(req *llmprovider.Request) string {
	h := sha256.New()
	for _, m := range req.Messages {
		fmt.Fprintf(h, "%s:%s|", m.Role, m.Text())
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// CleanupOldLogs removes JSONL request-log files older than maxAge from dir.
func CleanupOldLogs(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jsonl" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
	return nil
}
