package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const (
	// sendTimeout bounds a blocking model call. There is no cancellation
	// of in-flight calls beyond this deadline.
	sendTimeout = 120 * time.Second

	defaultBaseURL = "https://api.anthropic.com"
)

type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
}

func NewClient(baseURL, apiKey, model string, maxTokens int, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &Client{
		client:    client,
		model:     model,
		maxTokens: int64(maxTokens),
		logger:    logger,
	}, nil
}

// Send performs a single blocking model call and normalizes the result.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	params := c.buildParams(req)

	c.logger.Debug("sending model request",
		zap.String("model", string(params.Model)),
		zap.Int("messages", len(params.Messages)),
		zap.Int("tools", len(params.Tools)))

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	resp := normalizeMessage(message)

	c.logger.Debug("model response",
		zap.String("stop_reason", resp.StopReason),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens))

	return resp, nil
}

// buildParams merges the client defaults with per-request overrides.
// System and Tools are left unset (not empty) when absent - the wire
// protocol distinguishes a missing system prompt from an empty one.
func (c *Client) buildParams(req Request) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = c.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  convertMessages(req.Messages),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if len(req.Tools) > 0 {
		params.Tools = req.Tools
	}

	return params
}

func convertMessages(messages []Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		blocks := convertBlocks(msg.Content)
		if len(blocks) == 0 {
			continue
		}

		switch msg.Role {
		case RoleAssistant:
			params = append(params, anthropic.NewAssistantMessage(blocks...))
		default:
			params = append(params, anthropic.NewUserMessage(blocks...))
		}
	}

	return params
}

func convertBlocks(blocks []ContentBlock) []anthropic.ContentBlockParamUnion {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(blocks))

	for _, block := range blocks {
		switch block.Type {
		case BlockText:
			out = append(out, anthropic.NewTextBlock(block.Text))
		case BlockToolUse:
			out = append(out, anthropic.NewToolUseBlock(block.ID, block.Input, block.Name))
		case BlockToolResult:
			out = append(out, anthropic.NewToolResultBlock(block.ToolUseID, block.Text, block.IsError))
		}
	}

	return out
}

// normalizeMessage converts the raw content array into typed blocks,
// preserving original order.
func normalizeMessage(msg *anthropic.Message) *Response {
	resp := &Response{
		ID:         msg.ID,
		StopReason: string(msg.StopReason),
		Model:      string(msg.Model),
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, ContentBlock{
				Type: BlockText,
				Text: variant.Text,
			})

		case anthropic.ToolUseBlock:
			var input map[string]any
			if err := json.Unmarshal(variant.Input, &input); err != nil {
				input = map[string]any{}
			}
			resp.Content = append(resp.Content, ContentBlock{
				Type:  BlockToolUse,
				ID:    variant.ID,
				Name:  variant.Name,
				Input: input,
			})

		default:
			resp.Content = append(resp.Content, ContentBlock{
				Type: BlockUnknown,
				Raw:  block.RawJSON(),
			})
		}
	}

	return resp
}

// wrapAPIError surfaces the HTTP status code for API-level failures and
// wraps transport errors generically.
func wrapAPIError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return fmt.Errorf("anthropic API error (status %d): %w", apierr.StatusCode, err)
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}
