// Package chat drives a conversation turn: classify the user's intent,
// select tools, call the model, interpret content blocks, gate or run
// tool invocations, and loop until the model stops asking for tools.
package chat

import (
	"github.com/martinacantaro/aurora/llm"
)

// PendingToolCall is the tool invocation awaiting user approval.
// Destructive only escalates how the confirmation is presented; the
// gating itself is the same for every mutating tool.
type PendingToolCall struct {
	ToolUseID   string
	ToolName    string
	ToolInput   map[string]any
	Destructive bool

	// auditID links back to the persisted tool_calls row.
	auditID string
}

// Session holds the transient per-conversation turn state. It lives
// outside the durable message store: the pending assistant content must
// carry the original tool_use block so the continuation request can
// correlate the tool result, and storage only keeps message text.
// One Session per conversation; turns never run concurrently against it.
type Session struct {
	ConversationID string

	pendingTool *PendingToolCall

	// pendingContent is the assistant's full content for the turn being
	// gated: the preserved text blocks plus exactly one tool_use block.
	pendingContent []llm.ContentBlock

	pendingExtraction *Extraction

	// lastUserQuery is the text that triggered the current turn; tool
	// selection for continuations reruns against it, not tool output.
	lastUserQuery string
}

func NewSession(conversationID string) *Session {
	return &Session{ConversationID: conversationID}
}

// PendingConfirmation returns the tool call awaiting approval, or nil.
func (s *Session) PendingConfirmation() *PendingToolCall {
	return s.pendingTool
}

// PendingExtraction returns the unprocessed extraction, or nil.
func (s *Session) PendingExtraction() *Extraction {
	return s.pendingExtraction
}

// DismissExtraction drops the pending extraction without processing it.
func (s *Session) DismissExtraction() {
	s.pendingExtraction = nil
}

func (s *Session) clearPendingTool() {
	s.pendingTool = nil
	s.pendingContent = nil
}
