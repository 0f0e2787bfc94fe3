// Package session implements the per-workspace transcript store (one JSON
// file per session, atomic writes) and the shadow-git checkpoint store used
// to snapshot and restore the workspace around tool execution.
package session

import (
	"strings"
	"time"

	"github.com/agentcore/agentcore/internal/chatmodel"
)

// Session is a persisted transcript plus the metadata needed to list and
// resume it without loading the full message history.
type Session struct {
	ID                  string              `json:"id"`
	InitialUserQuestion  string              `json:"initial_user_question,omitempty"`
	MessageCount         int                 `json:"message_count"`
	LastUserMessagePreview string            `json:"last_user_message_preview,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Messages             []chatmodel.Message `json:"messages"`
}

// Summary is the lightweight view returned by ListRecent and Search —
// enough to render a picker without loading every session's full
// transcript.
type Summary struct {
	ID                     string    `json:"id"`
	InitialUserQuestion    string    `json:"initial_user_question,omitempty"`
	MessageCount           int       `json:"message_count"`
	LastUserMessagePreview string    `json:"last_user_message_preview,omitempty"`
	UpdatedAt              time.Time `json:"updated_at"`
}

const previewLimit = 200

// lastUserMessagePreview returns the truncated text of the most recent user
// message in the transcript, walking backward from the end.
func lastUserMessagePreview(messages []chatmodel.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != chatmodel.RoleUser {
			continue
		}
		text := msg.Text()
		if text == "" {
			continue
		}
		return truncatePreview(text, previewLimit)
	}
	return ""
}

func truncatePreview(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
