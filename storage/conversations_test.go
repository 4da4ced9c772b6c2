package storage

import (
	"errors"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConversationLifecycle(t *testing.T) {
	store := testStore(t)

	conv, err := store.CreateConversation("morning chat")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	if _, err := store.AppendMessage(conv.ID, "user", "hello"); err != nil {
		t.Fatalf("failed to append message: %v", err)
	}
	msg, err := store.AppendMessage(conv.ID, "assistant", "hi!")
	if err != nil {
		t.Fatalf("failed to append message: %v", err)
	}

	if _, err := store.AppendMessage(conv.ID, "robot", "nope"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for bad role, got %v", err)
	}

	if err := store.SetMessageTokens(msg.ID, 12, 34); err != nil {
		t.Fatalf("failed to set tokens: %v", err)
	}

	msgs, err := store.RecentMessages(conv.ID, 10)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("messages out of chronological order: %v, %v", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].InputTokens != 12 || msgs[1].OutputTokens != 34 {
		t.Errorf("token backfill missing: %+v", msgs[1])
	}

	if err := store.ArchiveConversation(conv.ID); err != nil {
		t.Fatalf("failed to archive: %v", err)
	}
	active, err := store.ListConversations(false)
	if err != nil {
		t.Fatalf("failed to list conversations: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("archived conversation still listed: %v", active)
	}
	all, err := store.ListConversations(true)
	if err != nil {
		t.Fatalf("failed to list conversations: %v", err)
	}
	if len(all) != 1 || !all[0].Archived {
		t.Errorf("expected one archived conversation, got %v", all)
	}
}

func TestToolCallTransitions(t *testing.T) {
	store := testStore(t)

	conv, err := store.CreateConversation("test")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	newCall := func() *ToolCall {
		call, err := store.CreateToolCall(conv.ID, "tu_1", "create_task", `{"title":"x"}`, true)
		if err != nil {
			t.Fatalf("failed to create tool call: %v", err)
		}
		return call
	}

	t.Run("pending to running to success", func(t *testing.T) {
		call := newCall()
		if err := store.AdvanceToolCall(call.ID, ToolCallRunning); err != nil {
			t.Fatalf("pending->running should be allowed: %v", err)
		}
		if err := store.FinishToolCall(call.ID, `{"ok":true}`, ""); err != nil {
			t.Fatalf("running->success should be allowed: %v", err)
		}
		got, err := store.GetToolCall(call.ID)
		if err != nil {
			t.Fatalf("failed to get tool call: %v", err)
		}
		if got.Status != ToolCallSuccess || !got.ToolOutput.Valid {
			t.Errorf("unexpected final state: %+v", got)
		}
	})

	t.Run("pending cannot jump to success", func(t *testing.T) {
		call := newCall()
		if err := store.AdvanceToolCall(call.ID, ToolCallSuccess); !errors.Is(err, ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		call := newCall()
		if err := store.AdvanceToolCall(call.ID, ToolCallCancelled); err != nil {
			t.Fatalf("pending->cancelled should be allowed: %v", err)
		}
		if err := store.AdvanceToolCall(call.ID, ToolCallRunning); !errors.Is(err, ErrValidation) {
			t.Errorf("cancelled must not regress, got %v", err)
		}
	})

	t.Run("running failure records error", func(t *testing.T) {
		call := newCall()
		if err := store.AdvanceToolCall(call.ID, ToolCallRunning); err != nil {
			t.Fatalf("pending->running should be allowed: %v", err)
		}
		if err := store.FinishToolCall(call.ID, "", "board not found"); err != nil {
			t.Fatalf("running->error should be allowed: %v", err)
		}
		got, err := store.GetToolCall(call.ID)
		if err != nil {
			t.Fatalf("failed to get tool call: %v", err)
		}
		if got.Status != ToolCallError || got.ErrorMessage != "board not found" {
			t.Errorf("unexpected error state: %+v", got)
		}
	})

	t.Run("confirmation only stamps pending calls", func(t *testing.T) {
		call := newCall()
		if err := store.MarkToolCallConfirmed(call.ID); err != nil {
			t.Fatalf("confirming a pending call should work: %v", err)
		}
		if err := store.AdvanceToolCall(call.ID, ToolCallRunning); err != nil {
			t.Fatalf("pending->running should be allowed: %v", err)
		}
		if err := store.MarkToolCallConfirmed(call.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("confirming a running call must fail, got %v", err)
		}
	})
}
