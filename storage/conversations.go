package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID        string
	Title     string
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	ID             string
	ConversationID string
	Role           string // user, assistant, system
	Content        string
	Completed      bool
	InputTokens    int
	OutputTokens   int
	CreatedAt      time.Time
}

// ToolCall status values. Transitions only move forward:
// pending -> running -> success|error, or pending -> cancelled.
const (
	ToolCallPending   = "pending"
	ToolCallRunning   = "running"
	ToolCallSuccess   = "success"
	ToolCallError     = "error"
	ToolCallCancelled = "cancelled"
)

var toolCallTransitions = map[string][]string{
	ToolCallPending: {ToolCallRunning, ToolCallCancelled},
	ToolCallRunning: {ToolCallSuccess, ToolCallError},
}

type ToolCall struct {
	ID                   string
	ConversationID       string
	ToolUseID            string
	ToolName             string
	ToolInput            string // JSON
	ToolOutput           sql.NullString
	Status               string
	ErrorMessage         string
	RequiresConfirmation bool
	ConfirmedAt          sql.NullTime
	CreatedAt            time.Time
}

func (s *Store) CreateConversation(title string) (*Conversation, error) {
	now := time.Now()
	conv := &Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO conversations (id, title, archived, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)`,
		conv.ID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}

	return conv, nil
}

func (s *Store) GetConversation(id string) (*Conversation, error) {
	var conv Conversation
	err := s.db.QueryRow(`
		SELECT id, title, archived, created_at, updated_at FROM conversations WHERE id = ?`, id).
		Scan(&conv.ID, &conv.Title, &conv.Archived, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) ListConversations(includeArchived bool) ([]Conversation, error) {
	query := `SELECT id, title, archived, created_at, updated_at FROM conversations`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var conv Conversation
		err := rows.Scan(&conv.ID, &conv.Title, &conv.Archived, &conv.CreatedAt, &conv.UpdatedAt)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}

	return convs, rows.Err()
}

func (s *Store) ArchiveConversation(id string) error {
	result, err := s.db.Exec(`UPDATE conversations SET archived = 1, updated_at = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}

	return nil
}

func (s *Store) AppendMessage(conversationID, role, content string) (*Message, error) {
	if role != "user" && role != "assistant" && role != "system" {
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	msg := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Completed:      true,
		CreatedAt:      time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO messages (id, conversation_id, role, content, completed, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	_, err = tx.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		msg.CreatedAt, conversationID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return msg, nil
}

// SetMessageTokens backfills token counts on an assistant message.
func (s *Store) SetMessageTokens(messageID string, inputTokens, outputTokens int) error {
	result, err := s.db.Exec(`UPDATE messages SET input_tokens = ?, output_tokens = ? WHERE id = ?`,
		inputTokens, outputTokens, messageID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: message %s", ErrNotFound, messageID)
	}

	return nil
}

// RecentMessages returns the last n messages in chronological order.
func (s *Store) RecentMessages(conversationID string, n int) ([]Message, error) {
	if n <= 0 {
		n = 50
	}

	rows, err := s.db.Query(`
		SELECT id, conversation_id, role, content, completed, input_tokens, output_tokens, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at DESC LIMIT ?`, conversationID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var msg Message
		err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.Completed, &msg.InputTokens, &msg.OutputTokens, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, nil
}

// CreateToolCall records a tool invocation attempt in pending status.
func (s *Store) CreateToolCall(conversationID, toolUseID, toolName, toolInput string, requiresConfirmation bool) (*ToolCall, error) {
	call := &ToolCall{
		ID:                   uuid.New().String(),
		ConversationID:       conversationID,
		ToolUseID:            toolUseID,
		ToolName:             toolName,
		ToolInput:            toolInput,
		Status:               ToolCallPending,
		RequiresConfirmation: requiresConfirmation,
		CreatedAt:            time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO tool_calls (id, conversation_id, tool_use_id, tool_name, tool_input, status, requires_confirmation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		call.ID, call.ConversationID, call.ToolUseID, call.ToolName, call.ToolInput,
		call.Status, call.RequiresConfirmation, call.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tool call: %w", err)
	}

	return call, nil
}

func (s *Store) GetToolCall(id string) (*ToolCall, error) {
	var call ToolCall
	err := s.db.QueryRow(`
		SELECT id, conversation_id, tool_use_id, tool_name, tool_input, tool_output,
		       status, error_message, requires_confirmation, confirmed_at, created_at
		FROM tool_calls WHERE id = ?`, id).
		Scan(&call.ID, &call.ConversationID, &call.ToolUseID, &call.ToolName, &call.ToolInput,
			&call.ToolOutput, &call.Status, &call.ErrorMessage, &call.RequiresConfirmation,
			&call.ConfirmedAt, &call.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: tool call %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// AdvanceToolCall moves a tool call to a new status. Only the forward
// transitions enumerated in toolCallTransitions are allowed.
func (s *Store) AdvanceToolCall(id, status string) error {
	call, err := s.GetToolCall(id)
	if err != nil {
		return err
	}

	allowed := false
	for _, next := range toolCallTransitions[call.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: tool call transition %s -> %s", ErrValidation, call.Status, status)
	}

	_, err = s.db.Exec(`UPDATE tool_calls SET status = ? WHERE id = ?`, status, id)
	return err
}

// MarkToolCallConfirmed stamps the confirmation time on a pending call.
func (s *Store) MarkToolCallConfirmed(id string) error {
	result, err := s.db.Exec(`UPDATE tool_calls SET confirmed_at = ? WHERE id = ? AND status = ?`,
		time.Now(), id, ToolCallPending)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: pending tool call %s", ErrNotFound, id)
	}

	return nil
}

// FinishToolCall records the terminal result of a running tool call.
func (s *Store) FinishToolCall(id string, output string, execErr string) error {
	status := ToolCallSuccess
	if execErr != "" {
		status = ToolCallError
	}

	if err := s.AdvanceToolCall(id, status); err != nil {
		return err
	}

	var toolOutput sql.NullString
	if output != "" {
		toolOutput = sql.NullString{String: output, Valid: true}
	}

	_, err := s.db.Exec(`UPDATE tool_calls SET tool_output = ?, error_message = ? WHERE id = ?`,
		toolOutput, execErr, id)
	return err
}

func (s *Store) ListToolCalls(conversationID string) ([]ToolCall, error) {
	rows, err := s.db.Query(`
		SELECT id, conversation_id, tool_use_id, tool_name, tool_input, tool_output,
		       status, error_message, requires_confirmation, confirmed_at, created_at
		FROM tool_calls WHERE conversation_id = ?
		ORDER BY created_at`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []ToolCall
	for rows.Next() {
		var call ToolCall
		err := rows.Scan(&call.ID, &call.ConversationID, &call.ToolUseID, &call.ToolName,
			&call.ToolInput, &call.ToolOutput, &call.Status, &call.ErrorMessage,
			&call.RequiresConfirmation, &call.ConfirmedAt, &call.CreatedAt)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}
