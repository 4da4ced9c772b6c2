// Package llm wraps the Anthropic Messages API behind a normalized
// content-block representation, so the orchestrator never touches
// provider-specific response types directly.
package llm

import "github.com/anthropics/anthropic-sdk-go"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockUnknown    BlockType = "unknown"
)

// ContentBlock is one element of a message's content array. The Type tag
// decides which fields are meaningful:
//   - BlockText: Text
//   - BlockToolUse: ID, Name, Input
//   - BlockToolResult (requests only): ToolUseID, Text, IsError
//   - BlockUnknown (responses only): Raw
type ContentBlock struct {
	Type      BlockType
	Text      string
	ID        string
	Name      string
	Input     map[string]any
	ToolUseID string
	IsError   bool
	Raw       string
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

func ToolResultBlock(toolUseID, payload string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Text: payload, IsError: isError}
}

type Message struct {
	Role    string
	Content []ContentBlock
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}

// Request describes one model call. Model and MaxTokens override the
// client defaults when set. System and Tools are omitted from the wire
// request entirely when empty.
type Request struct {
	Model     string
	MaxTokens int64
	System    string
	Messages  []Message
	Tools     []anthropic.ToolUnionParam
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the normalized form of a model reply: the content array
// converted to typed blocks in their original order.
type Response struct {
	ID         string
	Content    []ContentBlock
	StopReason string
	Usage      Usage
	Model      string
}

// TextContent concatenates all text blocks in order.
func (r *Response) TextContent() string {
	var out string
	for _, block := range r.Content {
		if block.Type == BlockText {
			out += block.Text
		}
	}
	return out
}

// ToolUses returns the tool_use blocks in their original order.
func (r *Response) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range r.Content {
		if block.Type == BlockToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

type StreamEventType string

const (
	StreamMessageStart StreamEventType = "message_start"
	StreamBlockStart   StreamEventType = "content_block_start"
	StreamTextDelta    StreamEventType = "content_block_delta"
	StreamMessageDelta StreamEventType = "message_delta"
	StreamMessageStop  StreamEventType = "message_stop"
	StreamDone         StreamEventType = "done"
	StreamError        StreamEventType = "error"
)

// StreamEvent is delivered over the channel returned by Client.Stream.
// The channel always ends with exactly one StreamDone or StreamError
// event before closing.
type StreamEvent struct {
	Type     StreamEventType
	Text     string    // StreamTextDelta
	Response *Response // StreamDone
	Err      error     // StreamError
}
