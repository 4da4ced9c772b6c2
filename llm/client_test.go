package llm

import (
	"context"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient("http://127.0.0.1:1", "test-key", "test-model", 1024, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("", "", "model", 0, nil); err == nil {
		t.Fatal("expected an error without an API key")
	}
}

func TestBuildParams(t *testing.T) {
	client := testClient(t)

	tests := []struct {
		name     string
		req      Request
		validate func(t *testing.T, params anthropic.MessageNewParams)
	}{
		{
			name: "defaults applied",
			req:  Request{Messages: []Message{UserText("hi")}},
			validate: func(t *testing.T, params anthropic.MessageNewParams) {
				if params.Model != "test-model" {
					t.Errorf("expected default model, got %q", params.Model)
				}
				if params.MaxTokens != 1024 {
					t.Errorf("expected default max tokens, got %d", params.MaxTokens)
				}
			},
		},
		{
			name: "overrides win",
			req: Request{
				Model:     "other-model",
				MaxTokens: 8,
				Messages:  []Message{UserText("hi")},
			},
			validate: func(t *testing.T, params anthropic.MessageNewParams) {
				if params.Model != "other-model" {
					t.Errorf("expected override model, got %q", params.Model)
				}
				if params.MaxTokens != 8 {
					t.Errorf("expected override max tokens, got %d", params.MaxTokens)
				}
			},
		},
		{
			name: "empty system and tools stay unset",
			req:  Request{Messages: []Message{UserText("hi")}},
			validate: func(t *testing.T, params anthropic.MessageNewParams) {
				if len(params.System) != 0 {
					t.Error("system must be omitted when empty")
				}
				if len(params.Tools) != 0 {
					t.Error("tools must be omitted when empty")
				}
			},
		},
		{
			name: "system set when present",
			req: Request{
				System:   "be brief",
				Messages: []Message{UserText("hi")},
			},
			validate: func(t *testing.T, params anthropic.MessageNewParams) {
				if len(params.System) != 1 || params.System[0].Text != "be brief" {
					t.Errorf("unexpected system: %+v", params.System)
				}
			},
		},
		{
			name: "tool result becomes user content",
			req: Request{
				Messages: []Message{
					{Role: RoleAssistant, Content: []ContentBlock{
						TextBlock("checking"),
						{Type: BlockToolUse, ID: "tu_1", Name: "list_boards", Input: map[string]any{}},
					}},
					{Role: RoleUser, Content: []ContentBlock{
						ToolResultBlock("tu_1", `{"boards":[]}`, false),
					}},
				},
			},
			validate: func(t *testing.T, params anthropic.MessageNewParams) {
				if len(params.Messages) != 2 {
					t.Fatalf("expected 2 messages, got %d", len(params.Messages))
				}
				if string(params.Messages[0].Role) != RoleAssistant {
					t.Errorf("expected assistant role, got %v", params.Messages[0].Role)
				}
				if len(params.Messages[0].Content) != 2 {
					t.Errorf("expected text + tool_use, got %d blocks", len(params.Messages[0].Content))
				}
				if string(params.Messages[1].Role) != RoleUser {
					t.Errorf("expected user role, got %v", params.Messages[1].Role)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, client.buildParams(tt.req))
		})
	}
}

func TestResponseAccessors(t *testing.T) {
	resp := &Response{Content: []ContentBlock{
		TextBlock("part one "),
		{Type: BlockToolUse, ID: "tu_1", Name: "list_boards"},
		TextBlock("part two"),
		{Type: BlockToolUse, ID: "tu_2", Name: "list_habits"},
	}}

	if got := resp.TextContent(); got != "part one part two" {
		t.Errorf("unexpected text content: %q", got)
	}

	uses := resp.ToolUses()
	if len(uses) != 2 || uses[0].ID != "tu_1" || uses[1].ID != "tu_2" {
		t.Errorf("unexpected tool uses: %+v", uses)
	}
}

// A dead context makes Send fail before any network traffic, which is
// how the classifier's fail-open default is observable offline.
func TestClassifyDefaultsToToolsOnFailure(t *testing.T) {
	classifier := NewClassifier(testClient(t), "classifier-model", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := classifier.Classify(ctx, "add milk to my list"); got != IntentNeedsTools {
		t.Errorf("expected IntentNeedsTools on failure, got %v", got)
	}
}
