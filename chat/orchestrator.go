package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/martinacantaro/aurora/llm"
	"github.com/martinacantaro/aurora/storage"
	"github.com/martinacantaro/aurora/tools"
)

var (
	ErrNoPendingTool      = errors.New("no tool call awaiting confirmation")
	ErrConfirmationNeeded = errors.New("a tool call is awaiting confirmation")
)

const (
	// historyMessages bounds how much persisted history is replayed to
	// the model on each call.
	historyMessages = 50

	// maxToolIterations caps tool round-trips within one turn so a model
	// that keeps requesting tools cannot loop forever.
	maxToolIterations = 8
)

const defaultSystemPrompt = `You are Aurora, a personal productivity assistant. You help the user manage their tasks, habits, goals, journal, finances and calendar using the tools provided.

Be concise. When the user tells you about their day, you may propose updates in a fenced block:

---EXTRACT---
JOURNAL: <one-line journal text>
MOOD: <1-5>
ENERGY: <1-5>
NEW_TASKS:
- <task title>
COMPLETE_TASKS:
- <description of a task that got done>
---END EXTRACT---

Only include sections you have information for. The user reviews and approves each item before anything is saved.`

// ModelClient is the slice of llm.Client the orchestrator needs.
type ModelClient interface {
	Send(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// StreamingModelClient is implemented by clients that can deliver a
// turn incrementally. The terminal StreamDone response must be
// identical to what Send would have returned.
type StreamingModelClient interface {
	ModelClient
	Stream(ctx context.Context, req llm.Request) <-chan llm.StreamEvent
}

// IntentClassifier decides whether a message needs tool access at all.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) llm.Intent
}

// Orchestrator drives conversation turns. It owns no per-conversation
// state itself; everything transient lives in the Session passed to
// each call.
type Orchestrator struct {
	store        *storage.Store
	model        ModelClient
	classifier   IntentClassifier
	registry     *tools.Registry
	selector     *tools.Selector
	systemPrompt string
	onDelta      func(text string)
	logger       *zap.Logger
}

func NewOrchestrator(store *storage.Store, model ModelClient, classifier IntentClassifier,
	registry *tools.Registry, selector *tools.Selector, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:        store,
		model:        model,
		classifier:   classifier,
		registry:     registry,
		selector:     selector,
		systemPrompt: defaultSystemPrompt,
		logger:       logger,
	}
}

// SetSystemPrompt replaces the built-in system prompt.
func (o *Orchestrator) SetSystemPrompt(prompt string) {
	if prompt != "" {
		o.systemPrompt = prompt
	}
}

// SetStreamHandler opts in to streaming transport: incremental text is
// delivered to the handler as it arrives. Turn semantics are unchanged;
// the orchestrator still interprets only the terminal response.
func (o *Orchestrator) SetStreamHandler(handler func(text string)) {
	o.onDelta = handler
}

// send dispatches one model call, streaming when a handler is
// registered and the client supports it.
func (o *Orchestrator) send(ctx context.Context, req llm.Request) (*llm.Response, error) {
	streamer, ok := o.model.(StreamingModelClient)
	if o.onDelta == nil || !ok {
		return o.model.Send(ctx, req)
	}

	for event := range streamer.Stream(ctx, req) {
		switch event.Type {
		case llm.StreamTextDelta:
			o.onDelta(event.Text)
		case llm.StreamDone:
			return event.Response, nil
		case llm.StreamError:
			return nil, event.Err
		}
	}

	return nil, errors.New("stream ended without a terminal event")
}

// TurnResult is what a turn hands back to the caller: the messages
// appended during the turn, plus whatever now needs user attention.
type TurnResult struct {
	Messages            []storage.Message
	PendingConfirmation *PendingToolCall
	PendingExtraction   *Extraction
}

// SendMessage runs one full turn for a new user message. It returns
// early with a PendingConfirmation when the model requests a mutating
// tool; Confirm or Cancel resolves it.
func (o *Orchestrator) SendMessage(ctx context.Context, session *Session, text string) (*TurnResult, error) {
	if session.pendingTool != nil {
		return nil, ErrConfirmationNeeded
	}

	userMsg, err := o.store.AppendMessage(session.ConversationID, llm.RoleUser, text)
	if err != nil {
		return nil, err
	}
	session.lastUserQuery = text

	result := &TurnResult{Messages: []storage.Message{*userMsg}}

	var toolParams []anthropic.ToolUnionParam
	if o.classifier.Classify(ctx, text) == llm.IntentNeedsTools {
		defs := o.selector.Select(text)
		toolParams = tools.AnthropicTools(defs)
		o.logger.Debug("tools selected",
			zap.String("conversation", session.ConversationID),
			zap.Int("count", len(defs)))
	}

	messages, err := o.historyMessages(session.ConversationID)
	if err != nil {
		return nil, err
	}

	resp, err := o.send(ctx, llm.Request{
		System:   o.systemPrompt,
		Messages: messages,
		Tools:    toolParams,
	})
	if err != nil {
		return nil, err
	}

	return o.runTurn(ctx, session, resp, result)
}

// Confirm executes the pending tool call and continues the turn.
func (o *Orchestrator) Confirm(ctx context.Context, session *Session) (*TurnResult, error) {
	pending := session.pendingTool
	if pending == nil {
		return nil, ErrNoPendingTool
	}

	if err := o.store.MarkToolCallConfirmed(pending.auditID); err != nil {
		return nil, err
	}

	resultBlock := o.executeTool(ctx, pending)

	return o.continueTurn(ctx, session, resultBlock, &TurnResult{})
}

// Cancel discards the pending tool call without executing it and
// without any further model call. The model's dangling tool_use block
// is never answered; the turn simply ends here.
func (o *Orchestrator) Cancel(session *Session) error {
	pending := session.pendingTool
	if pending == nil {
		return ErrNoPendingTool
	}

	if err := o.store.AdvanceToolCall(pending.auditID, storage.ToolCallCancelled); err != nil {
		return err
	}

	session.clearPendingTool()
	return nil
}

// runTurn interprets one model response and loops through tool
// round-trips until the model stops requesting tools or a mutating tool
// needs confirmation.
func (o *Orchestrator) runTurn(ctx context.Context, session *Session, resp *llm.Response, result *TurnResult) (*TurnResult, error) {
	for iteration := 0; ; iteration++ {
		// Persist assistant text before any tool handling, so a partial
		// answer survives even if a confirmation is later cancelled.
		text := resp.TextContent()
		if text != "" {
			msg, err := o.store.AppendMessage(session.ConversationID, llm.RoleAssistant, text)
			if err != nil {
				return nil, err
			}
			if err := o.store.SetMessageTokens(msg.ID,
				int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens)); err != nil {
				return nil, err
			}
			msg.InputTokens = int(resp.Usage.InputTokens)
			msg.OutputTokens = int(resp.Usage.OutputTokens)
			result.Messages = append(result.Messages, *msg)

			if ex := ParseExtraction(text); ex != nil {
				session.pendingExtraction = ex
			}
		}

		uses := resp.ToolUses()
		if len(uses) == 0 {
			result.PendingExtraction = session.pendingExtraction
			return result, nil
		}

		// Only the first tool_use block is acted on; the protocol needs
		// every tool_use answered in the immediate next turn, and one
		// confirmation at a time cannot represent several results.
		use := uses[0]
		if dropped := len(uses) - 1; dropped > 0 {
			o.logger.Warn("dropping extra tool_use blocks",
				zap.String("conversation", session.ConversationID),
				zap.Int("dropped", dropped))
		}
		session.pendingContent = preservedContent(resp.Content, use.ID)

		if iteration >= maxToolIterations {
			return nil, fmt.Errorf("turn exceeded %d tool round-trips", maxToolIterations)
		}

		inputJSON, err := json.Marshal(use.Input)
		if err != nil {
			inputJSON = []byte("{}")
		}

		requiresConfirmation := o.registry.RequiresConfirmation(use.Name)
		audit, err := o.store.CreateToolCall(session.ConversationID,
			use.ID, use.Name, string(inputJSON), requiresConfirmation)
		if err != nil {
			return nil, err
		}

		pending := &PendingToolCall{
			ToolUseID:   use.ID,
			ToolName:    use.Name,
			ToolInput:   use.Input,
			Destructive: o.registry.IsDestructive(use.Name),
			auditID:     audit.ID,
		}

		if requiresConfirmation {
			session.pendingTool = pending
			result.PendingConfirmation = pending
			result.PendingExtraction = session.pendingExtraction
			return result, nil
		}

		resultBlock := o.executeTool(ctx, pending)

		resp, err = o.sendContinuation(ctx, session, resultBlock)
		if err != nil {
			return nil, err
		}
	}
}

// executeTool runs a tool through the registry and records the outcome
// on the audit row. Execution errors are not turn-ending: they are
// packaged as an error tool_result so the model can explain the failure.
func (o *Orchestrator) executeTool(ctx context.Context, pending *PendingToolCall) llm.ContentBlock {
	if err := o.store.AdvanceToolCall(pending.auditID, storage.ToolCallRunning); err != nil {
		o.logger.Error("failed to advance tool call", zap.Error(err))
	}

	output, execErr := o.registry.Execute(ctx, pending.ToolName, pending.ToolInput)

	if execErr != nil {
		if err := o.store.FinishToolCall(pending.auditID, "", execErr.Error()); err != nil {
			o.logger.Error("failed to record tool error", zap.Error(err))
		}
		o.logger.Debug("tool execution failed",
			zap.String("tool", pending.ToolName),
			zap.Error(execErr))
		return llm.ToolResultBlock(pending.ToolUseID, execErr.Error(), true)
	}

	if err := o.store.FinishToolCall(pending.auditID, string(output), ""); err != nil {
		o.logger.Error("failed to record tool result", zap.Error(err))
	}

	return llm.ToolResultBlock(pending.ToolUseID, string(output), false)
}

// continueTurn sends the tool result back to the model and resumes the
// turn loop.
func (o *Orchestrator) continueTurn(ctx context.Context, session *Session, resultBlock llm.ContentBlock, result *TurnResult) (*TurnResult, error) {
	resp, err := o.sendContinuation(ctx, session, resultBlock)
	if err != nil {
		return nil, err
	}
	return o.runTurn(ctx, session, resp, result)
}

// sendContinuation builds the continuation request: recent persisted
// history with the last assistant message swapped for the preserved
// content (storage keeps text only, but the API needs the original
// tool_use block to correlate the result), followed by a user message
// carrying the single tool_result block. Tool selection reruns against
// the query that started the turn.
func (o *Orchestrator) sendContinuation(ctx context.Context, session *Session, resultBlock llm.ContentBlock) (*llm.Response, error) {
	messages, err := o.historyMessages(session.ConversationID)
	if err != nil {
		return nil, err
	}

	preserved := llm.Message{Role: llm.RoleAssistant, Content: session.pendingContent}
	if n := len(messages); n > 0 && messages[n-1].Role == llm.RoleAssistant {
		messages[n-1] = preserved
	} else {
		messages = append(messages, preserved)
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: []llm.ContentBlock{resultBlock},
	})

	session.clearPendingTool()

	return o.send(ctx, llm.Request{
		System:   o.systemPrompt,
		Messages: messages,
		Tools:    tools.AnthropicTools(o.selector.Select(session.lastUserQuery)),
	})
}

// historyMessages converts recent persisted messages to request form.
func (o *Orchestrator) historyMessages(conversationID string) ([]llm.Message, error) {
	stored, err := o.store.RecentMessages(conversationID, historyMessages)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(stored))
	for _, msg := range stored {
		switch msg.Role {
		case llm.RoleUser:
			messages = append(messages, llm.UserText(msg.Content))
		case llm.RoleAssistant:
			messages = append(messages, llm.AssistantText(msg.Content))
		}
	}

	return messages, nil
}

// preservedContent filters a response's content down to its text blocks
// plus the single selected tool_use block.
func preservedContent(content []llm.ContentBlock, toolUseID string) []llm.ContentBlock {
	var preserved []llm.ContentBlock
	for _, block := range content {
		switch block.Type {
		case llm.BlockText:
			preserved = append(preserved, block)
		case llm.BlockToolUse:
			if block.ID == toolUseID {
				preserved = append(preserved, block)
			}
		}
	}
	return preserved
}

// ProcessExtraction applies the approved items of the pending
// extraction against today's date, keeping it pending afterwards so the
// caller can approve more items or dismiss it.
func (o *Orchestrator) ProcessExtraction(session *Session) error {
	ex := session.pendingExtraction
	if ex == nil {
		return errors.New("no pending extraction")
	}
	today := time.Now().Format(storage.DayFormat)
	return ex.Process(o.store, today)
}
