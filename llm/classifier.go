package llm

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Intent int

const (
	IntentNeedsTools Intent = iota
	IntentConversationOnly
)

const (
	classifyTimeout = 30 * time.Second

	// The classifier only ever needs to emit a single word.
	classifierMaxTokens = 8
)

const classifierSystemPrompt = `You classify whether a message to a personal productivity assistant requires reading or changing the user's data (tasks, habits, goals, journal, finances, calendar).
Respond with exactly one word: TOOLS if the message needs data access, CHAT if it is pure conversation.

Examples:
"add buy milk to my list" -> TOOLS
"how are you today?" -> CHAT
"what's on my calendar tomorrow" -> TOOLS
"thanks!" -> CHAT
"did I journal yesterday?" -> TOOLS
"tell me a joke" -> CHAT`

// Classifier asks a cheaper model variant whether a message needs tool
// use at all, saving the cost of shipping tool definitions on every turn.
type Classifier struct {
	client *Client
	model  string
	logger *zap.Logger
}

func NewClassifier(client *Client, model string, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{client: client, model: model, logger: logger}
}

// Classify never fails: any error (network, non-200, unparseable output)
// defaults to IntentNeedsTools, since offering tools unnecessarily is
// recoverable while withholding them is not.
func (cl *Classifier) Classify(ctx context.Context, message string) Intent {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	resp, err := cl.client.Send(ctx, Request{
		Model:     cl.model,
		MaxTokens: classifierMaxTokens,
		System:    classifierSystemPrompt,
		Messages:  []Message{UserText(message)},
	})
	if err != nil {
		cl.logger.Debug("intent classification failed, defaulting to tools", zap.Error(err))
		return IntentNeedsTools
	}

	word := strings.ToUpper(strings.TrimSpace(resp.TextContent()))
	if strings.HasPrefix(word, "CHAT") {
		return IntentConversationOnly
	}

	return IntentNeedsTools
}
