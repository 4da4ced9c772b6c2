package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// sseHandler replays a scripted sequence of server-sent events.
func sseHandler(events []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			fmt.Fprint(w, event)
		}
	}
}

func sseEvent(eventType, data string) string {
	return "event: " + eventType + "\ndata: " + data + "\n\n"
}

func TestStreamForwardsIncrementalEvents(t *testing.T) {
	events := []string{
		sseEvent("message_start",
			`{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"test-model","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":3,"output_tokens":1}}}`),
		sseEvent("content_block_start",
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`),
		sseEvent("content_block_delta",
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello "}}`),
		sseEvent("content_block_delta",
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"world"}}`),
		sseEvent("content_block_stop",
			`{"type":"content_block_stop","index":0}`),
		sseEvent("message_delta",
			`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`),
		sseEvent("message_stop",
			`{"type":"message_stop"}`),
	}

	server := httptest.NewServer(sseHandler(events))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", "test-model", 1024, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var received []StreamEvent
	for event := range client.Stream(context.Background(), Request{
		Messages: []Message{UserText("hi")},
	}) {
		received = append(received, event)
	}

	wantTypes := []StreamEventType{
		StreamMessageStart,
		StreamBlockStart,
		StreamTextDelta,
		StreamTextDelta,
		StreamMessageDelta,
		StreamMessageStop,
		StreamDone,
	}
	if len(received) != len(wantTypes) {
		t.Fatalf("received %d events, want %d: %+v", len(received), len(wantTypes), received)
	}
	for i, want := range wantTypes {
		if received[i].Type != want {
			t.Errorf("event %d type = %q, want %q", i, received[i].Type, want)
		}
	}

	var text strings.Builder
	for _, event := range received {
		if event.Type == StreamTextDelta {
			text.WriteString(event.Text)
		}
	}
	if text.String() != "Hello world" {
		t.Errorf("assembled delta text = %q, want %q", text.String(), "Hello world")
	}

	done := received[len(received)-1]
	if done.Response == nil {
		t.Fatal("terminal event carries no response")
	}
	if got := done.Response.TextContent(); got != "Hello world" {
		t.Errorf("accumulated response text = %q, want %q", got, "Hello world")
	}
	if done.Response.StopReason != "end_turn" {
		t.Errorf("stop reason = %q, want end_turn", done.Response.StopReason)
	}
	if done.Response.Usage.OutputTokens != 5 {
		t.Errorf("output tokens = %d, want 5", done.Response.Usage.OutputTokens)
	}
}

func TestStreamSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key", "test-model", 1024, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ch := client.Stream(context.Background(), Request{
		Messages: []Message{UserText("hi")},
	})

	var received []StreamEvent
	for event := range ch {
		received = append(received, event)
	}

	if len(received) != 1 {
		t.Fatalf("received %d events, want exactly the terminal error: %+v", len(received), received)
	}
	if received[0].Type != StreamError {
		t.Fatalf("terminal event type = %q, want %q", received[0].Type, StreamError)
	}
	if received[0].Err == nil {
		t.Fatal("error event carries no error")
	}
}
