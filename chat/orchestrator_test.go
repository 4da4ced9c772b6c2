package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/martinacantaro/aurora/llm"
	"github.com/martinacantaro/aurora/storage"
	"github.com/martinacantaro/aurora/tools"
)

// scriptedModel replays canned responses in order.
type scriptedModel struct {
	responses []*llm.Response
	calls     int
	requests  []llm.Request
}

func (m *scriptedModel) Send(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.requests = append(m.requests, req)
	if m.calls >= len(m.responses) {
		return nil, errors.New("no scripted response left")
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

// streamingModel replays its scripted responses as delta streams,
// chunking each response's text into word-sized StreamTextDelta events.
type streamingModel struct {
	scriptedModel
	streamCalls int
}

func (m *streamingModel) Stream(ctx context.Context, req llm.Request) <-chan llm.StreamEvent {
	m.streamCalls++
	ch := make(chan llm.StreamEvent, 16)

	resp, err := m.scriptedModel.Send(ctx, req)

	go func() {
		defer close(ch)
		if err != nil {
			ch <- llm.StreamEvent{Type: llm.StreamError, Err: err}
			return
		}
		ch <- llm.StreamEvent{Type: llm.StreamMessageStart}
		for _, word := range strings.SplitAfter(resp.TextContent(), " ") {
			if word != "" {
				ch <- llm.StreamEvent{Type: llm.StreamTextDelta, Text: word}
			}
		}
		ch <- llm.StreamEvent{Type: llm.StreamDone, Response: resp}
	}()

	return ch
}

type fixedClassifier struct {
	intent llm.Intent
}

func (c fixedClassifier) Classify(ctx context.Context, message string) llm.Intent {
	return c.intent
}

func textResponse(text string) *llm.Response {
	return &llm.Response{
		Content:    []llm.ContentBlock{llm.TextBlock(text)},
		StopReason: "end_turn",
		Usage:      llm.Usage{InputTokens: 10, OutputTokens: 5},
	}
}

func toolUseResponse(text string, uses ...llm.ContentBlock) *llm.Response {
	content := []llm.ContentBlock{}
	if text != "" {
		content = append(content, llm.TextBlock(text))
	}
	content = append(content, uses...)
	return &llm.Response{
		Content:    content,
		StopReason: "tool_use",
		Usage:      llm.Usage{InputTokens: 10, OutputTokens: 5},
	}
}

func toolUse(id, name string, input map[string]any) llm.ContentBlock {
	return llm.ContentBlock{Type: llm.BlockToolUse, ID: id, Name: name, Input: input}
}

func newTestOrchestrator(t *testing.T, model ModelClient, intent llm.Intent) (*Orchestrator, *storage.Store, *Session) {
	t.Helper()

	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry, err := tools.NewRegistry(nil,
		tools.NewBoardsModule(store),
		tools.NewHabitsModule(store),
		tools.NewGoalsModule(store),
		tools.NewJournalModule(store),
		tools.NewFinanceModule(store),
		tools.NewCalendarModule(store),
		tools.NewAnalyticsModule(store),
	)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	conv, err := store.CreateConversation("test")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	orchestrator := NewOrchestrator(store, model, fixedClassifier{intent}, registry, tools.NewSelector(registry), nil)
	return orchestrator, store, NewSession(conv.ID)
}

func TestSendMessagePlainChat(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{textResponse("Hi there!")}}
	orchestrator, store, session := newTestOrchestrator(t, model, llm.IntentConversationOnly)

	result, err := orchestrator.SendMessage(context.Background(), session, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Messages) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(result.Messages))
	}
	if result.Messages[1].Content != "Hi there!" {
		t.Errorf("unexpected assistant content: %q", result.Messages[1].Content)
	}
	if result.PendingConfirmation != nil {
		t.Error("no confirmation expected for plain chat")
	}
	if len(model.requests[0].Tools) != 0 {
		t.Error("conversation-only intent must not ship tools")
	}

	calls, err := store.ListToolCalls(session.ConversationID)
	if err != nil {
		t.Fatalf("failed to list tool calls: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("expected no audit records, got %d", len(calls))
	}
}

func TestReadToolAutoExecutes(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{
		toolUseResponse("Let me check.", toolUse("tu_1", "list_boards", map[string]any{})),
		textResponse("You have no boards yet."),
	}}
	orchestrator, store, session := newTestOrchestrator(t, model, llm.IntentNeedsTools)

	result, err := orchestrator.SendMessage(context.Background(), session, "show my boards")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PendingConfirmation != nil {
		t.Fatal("read tools must not require confirmation")
	}
	if model.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", model.calls)
	}

	// The continuation request must end with a tool_result correlating
	// the original tool_use id.
	continuation := model.requests[1]
	last := continuation.Messages[len(continuation.Messages)-1]
	if last.Role != llm.RoleUser || len(last.Content) != 1 ||
		last.Content[0].Type != llm.BlockToolResult || last.Content[0].ToolUseID != "tu_1" {
		t.Errorf("unexpected continuation tail: %+v", last)
	}

	calls, err := store.ListToolCalls(session.ConversationID)
	if err != nil {
		t.Fatalf("failed to list tool calls: %v", err)
	}
	if len(calls) != 1 || calls[0].Status != storage.ToolCallSuccess {
		t.Errorf("expected one successful audit record, got %+v", calls)
	}
}

func TestMutatingToolRequiresConfirmation(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{
		toolUseResponse("Creating it now.",
			toolUse("tu_1", "create_board", map[string]any{"name": "Work"}),
			toolUse("tu_2", "create_board", map[string]any{"name": "Extra"})),
		textResponse("Done, the Work board exists."),
	}}
	orchestrator, store, session := newTestOrchestrator(t, model, llm.IntentNeedsTools)

	result, err := orchestrator.SendMessage(context.Background(), session, "create a board called Work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending := result.PendingConfirmation
	if pending == nil {
		t.Fatal("expected a pending confirmation")
	}
	if pending.ToolName != "create_board" || pending.ToolUseID != "tu_1" {
		t.Errorf("unexpected pending call: %+v", pending)
	}
	if pending.Destructive {
		t.Error("create_board is a plain write, not destructive")
	}
	if model.calls != 1 {
		t.Fatalf("no continuation may happen before confirmation, got %d calls", model.calls)
	}

	// Only the first tool_use block gets an audit record; the second is
	// dropped without side effects.
	calls, err := store.ListToolCalls(session.ConversationID)
	if err != nil {
		t.Fatalf("failed to list tool calls: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected exactly one audit record, got %d", len(calls))
	}
	if calls[0].Status != storage.ToolCallPending || !calls[0].RequiresConfirmation {
		t.Errorf("unexpected audit record: %+v", calls[0])
	}

	boards, err := store.ListBoards()
	if err != nil {
		t.Fatalf("failed to list boards: %v", err)
	}
	if len(boards) != 0 {
		t.Error("nothing may execute before confirmation")
	}

	// A new message while a confirmation is pending is rejected.
	if _, err := orchestrator.SendMessage(context.Background(), session, "another"); !errors.Is(err, ErrConfirmationNeeded) {
		t.Errorf("expected ErrConfirmationNeeded, got %v", err)
	}

	// Confirm executes the tool and continues the turn.
	confirmResult, err := orchestrator.Confirm(context.Background(), session)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmResult.PendingConfirmation != nil {
		t.Error("confirmation should be resolved")
	}
	if session.PendingConfirmation() != nil {
		t.Error("session should have no pending tool")
	}

	boards, err = store.ListBoards()
	if err != nil {
		t.Fatalf("failed to list boards: %v", err)
	}
	if len(boards) != 1 || boards[0].Name != "Work" {
		t.Errorf("expected the Work board, got %v", boards)
	}

	calls, err = store.ListToolCalls(session.ConversationID)
	if err != nil {
		t.Fatalf("failed to list tool calls: %v", err)
	}
	if len(calls) != 1 || calls[0].Status != storage.ToolCallSuccess || !calls[0].ConfirmedAt.Valid {
		t.Errorf("expected confirmed successful audit record, got %+v", calls[0])
	}
}

func TestCancelPendingTool(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{
		toolUseResponse("Deleting.", toolUse("tu_1", "delete_board", map[string]any{"board_id": "b1"})),
	}}
	orchestrator, store, session := newTestOrchestrator(t, model, llm.IntentNeedsTools)

	result, err := orchestrator.SendMessage(context.Background(), session, "delete my board")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PendingConfirmation == nil {
		t.Fatal("expected a pending confirmation")
	}
	if !result.PendingConfirmation.Destructive {
		t.Error("delete_board must be flagged destructive")
	}

	if err := orchestrator.Cancel(session); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// Cancel makes no further model call and leaves the audit record
	// cancelled, never running or finished.
	if model.calls != 1 {
		t.Errorf("expected no model call after cancel, got %d", model.calls)
	}
	calls, err := store.ListToolCalls(session.ConversationID)
	if err != nil {
		t.Fatalf("failed to list tool calls: %v", err)
	}
	if len(calls) != 1 || calls[0].Status != storage.ToolCallCancelled {
		t.Errorf("expected cancelled audit record, got %+v", calls)
	}

	if err := orchestrator.Cancel(session); !errors.Is(err, ErrNoPendingTool) {
		t.Errorf("expected ErrNoPendingTool on double cancel, got %v", err)
	}
}

func TestToolErrorFoldsBackIntoConversation(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{
		toolUseResponse("Checking.", toolUse("tu_1", "list_tasks", map[string]any{})),
		textResponse("I need to know which board first."),
	}}
	orchestrator, store, session := newTestOrchestrator(t, model, llm.IntentNeedsTools)

	result, err := orchestrator.SendMessage(context.Background(), session, "show my tasks")
	if err != nil {
		t.Fatalf("tool errors must not end the turn: %v", err)
	}

	last := result.Messages[len(result.Messages)-1]
	if last.Content != "I need to know which board first." {
		t.Errorf("unexpected final message: %q", last.Content)
	}

	continuation := model.requests[1]
	tail := continuation.Messages[len(continuation.Messages)-1]
	if !tail.Content[0].IsError {
		t.Error("expected an error tool_result in the continuation")
	}

	calls, err := store.ListToolCalls(session.ConversationID)
	if err != nil {
		t.Fatalf("failed to list tool calls: %v", err)
	}
	if len(calls) != 1 || calls[0].Status != storage.ToolCallError {
		t.Errorf("expected error audit record, got %+v", calls)
	}
}

func TestExtractionSurfacedFromAssistantText(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{
		textResponse("Sounds like a good day.\n---EXTRACT---\nMOOD: 5\nNEW_TASKS:\n- Buy milk\n---END EXTRACT---"),
	}}
	orchestrator, _, session := newTestOrchestrator(t, model, llm.IntentConversationOnly)

	result, err := orchestrator.SendMessage(context.Background(), session, "today went really well")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ex := result.PendingExtraction
	if ex == nil {
		t.Fatal("expected a pending extraction")
	}
	if ex.Mood == nil || *ex.Mood != 5 || len(ex.NewTasks) != 1 {
		t.Errorf("unexpected extraction: %+v", ex)
	}
	if session.PendingExtraction() != ex {
		t.Error("extraction must be held on the session")
	}

	session.DismissExtraction()
	if session.PendingExtraction() != nil {
		t.Error("dismiss must clear the extraction")
	}
}

func TestStreamHandlerReceivesDeltas(t *testing.T) {
	model := &streamingModel{scriptedModel: scriptedModel{responses: []*llm.Response{
		toolUseResponse("Let me check.", toolUse("tu_1", "list_boards", map[string]any{})),
		textResponse("You have no boards yet."),
	}}}
	orchestrator, _, session := newTestOrchestrator(t, model, llm.IntentNeedsTools)

	var streamed strings.Builder
	orchestrator.SetStreamHandler(func(text string) {
		streamed.WriteString(text)
	})

	result, err := orchestrator.SendMessage(context.Background(), session, "show my boards")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Both the initial call and the continuation stream; the handler sees
	// each turn's text exactly as the persisted messages record it.
	if model.streamCalls != 2 {
		t.Fatalf("expected 2 streamed calls, got %d", model.streamCalls)
	}
	if got := streamed.String(); got != "Let me check.You have no boards yet." {
		t.Errorf("unexpected streamed text: %q", got)
	}

	// Turn semantics are unchanged by the transport.
	last := result.Messages[len(result.Messages)-1]
	if last.Content != "You have no boards yet." {
		t.Errorf("unexpected final message: %q", last.Content)
	}
	if result.PendingConfirmation != nil {
		t.Error("read tools must not require confirmation")
	}
}

func TestStreamingRequiresHandler(t *testing.T) {
	// Without a registered handler the orchestrator uses plain Send even
	// when the client could stream.
	model := &streamingModel{scriptedModel: scriptedModel{responses: []*llm.Response{
		textResponse("Hi there!"),
	}}}
	orchestrator, _, session := newTestOrchestrator(t, model, llm.IntentConversationOnly)

	result, err := orchestrator.SendMessage(context.Background(), session, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if model.streamCalls != 0 {
		t.Errorf("expected no streamed calls, got %d", model.streamCalls)
	}
	if result.Messages[len(result.Messages)-1].Content != "Hi there!" {
		t.Errorf("unexpected final message: %q", result.Messages[len(result.Messages)-1].Content)
	}
}

func TestModelErrorAbortsTurn(t *testing.T) {
	model := &scriptedModel{} // no scripted responses: every Send fails
	orchestrator, store, session := newTestOrchestrator(t, model, llm.IntentConversationOnly)

	_, err := orchestrator.SendMessage(context.Background(), session, "hello")
	if err == nil {
		t.Fatal("expected the turn to surface the model error")
	}

	// The user message persisted before the call stays; nothing else.
	msgs, err := store.RecentMessages(session.ConversationID, 10)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != llm.RoleUser {
		t.Errorf("expected only the user message, got %+v", msgs)
	}
}
