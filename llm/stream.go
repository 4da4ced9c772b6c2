package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"
)

// Stream dispatches the model call on its own goroutine and forwards
// incremental events over the returned channel. Only events carrying
// incremental content are forwarded; content_block_stop and unrecognized
// event types are dropped. The channel is closed after a terminal
// StreamDone (with the fully accumulated, normalized response) or
// StreamError event, so callers can range over it.
func (c *Client) Stream(ctx context.Context, req Request) <-chan StreamEvent {
	ch := make(chan StreamEvent, 32)
	params := c.buildParams(req)

	go func() {
		defer close(ch)

		stream := c.client.Messages.NewStreaming(ctx, params)

		msg := anthropic.Message{}
		for stream.Next() {
			event := stream.Current()

			if err := msg.Accumulate(event); err != nil {
				ch <- StreamEvent{Type: StreamError, Err: fmt.Errorf("error accumulating message: %w", err)}
				return
			}

			switch variant := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				ch <- StreamEvent{Type: StreamMessageStart}

			case anthropic.ContentBlockStartEvent:
				ch <- StreamEvent{Type: StreamBlockStart}

			case anthropic.ContentBlockDeltaEvent:
				if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok {
					ch <- StreamEvent{Type: StreamTextDelta, Text: delta.Text}
				}

			case anthropic.MessageDeltaEvent:
				ch <- StreamEvent{Type: StreamMessageDelta}

			case anthropic.MessageStopEvent:
				ch <- StreamEvent{Type: StreamMessageStop}
			}
		}

		if err := stream.Err(); err != nil {
			c.logger.Debug("stream failed", zap.Error(err))
			ch <- StreamEvent{Type: StreamError, Err: wrapAPIError(err)}
			return
		}

		ch <- StreamEvent{Type: StreamDone, Response: normalizeMessage(&msg)}
	}()

	return ch
}
