// Package anthropic adapts the Anthropic Messages API to a streamtree
// ChatModel collaborator (SPEC_FULL.md §3.F), grounded on the teacher's
// llms/anthropic.go event-accumulation shape but built on the real
// anthropic-sdk-go client instead of hand-rolled HTTP/SSE parsing.
package anthropic

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/element"
)

// Message is one turn of a chat conversation. Role is "user" or
// "assistant"; the docqa and toolrun collaborators also understand
// "tool" results, which ChatModel translates to an Anthropic tool_result
// block.
type Message struct {
	Role       string
	Content    string
	ToolUseID  string // set when Role == "tool"
	ToolCallID string // set on assistant messages that issued a tool call
	ToolName   string
	ToolInput  string // raw JSON, set alongside ToolCallID
}

// ChatModel is the element tag SPEC_FULL.md §3.F describes: a component
// that, given a conversation, renders an append-only Producer streaming
// the model's reply text.
type ChatModel struct {
	sdk       anthropic.Client
	model     string
	maxTokens int64
}

// New constructs a ChatModel from the validated, defaulted config
// section (config.AnthropicConfig).
func New(cfg config.AnthropicConfig) *ChatModel {
	return &ChatModel{
		sdk:       anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
}

// Chat is the ComponentFunc bound to elements built with this model:
//
//	element.CreateElement(element.ComponentFunc(model.Chat), element.Props{"messages": msgs})
//
// props["messages"] must be a []Message; props["system"], if present,
// is sent as the system prompt.
func (m *ChatModel) Chat(props element.Props, cc element.Context) (element.Node, error) {
	messages, _ := props["messages"].([]Message)
	if len(messages) == 0 {
		return nil, aierrors.Userf(aierrors.CodeChatCompletionMissingChildren, "anthropic.Chat: at least one message is required").WithTag("anthropic.Chat")
	}
	system, _ := props["system"].(string)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.model),
		MaxTokens: m.maxTokens,
		Messages:  adaptMessages(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	return newStream(m.sdk, params), nil
}

func adaptMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case "tool":
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolUseID, msg.Content, false)))
		case "assistant":
			if msg.ToolCallID != "" {
				out = append(out, anthropic.NewAssistantMessage(
					anthropic.NewToolUseBlock(msg.ToolCallID, json.RawMessage(msg.ToolInput), msg.ToolName),
				))
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}

// streamEvent carries one yield of the underlying Producer.
type streamEvent struct {
	value element.Node
	err   error
}

// stream is a Producer (element.Producer) over an Anthropic streaming
// response, grounded on the teacher's makeStreamingRequest text-delta
// accumulation but driven by the SDK's own SSE decoding instead of a
// hand-rolled scanner.
type stream struct {
	cancel context.CancelFunc
	events chan streamEvent
}

func newStream(sdk anthropic.Client, params anthropic.MessageNewParams) *stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &stream{cancel: cancel, events: make(chan streamEvent, 16)}
	go s.run(ctx, sdk, params)
	return s
}

func (s *stream) run(ctx context.Context, sdk anthropic.Client, params anthropic.MessageNewParams) {
	defer close(s.events)

	resp := sdk.Messages.NewStreaming(ctx, params)
	defer resp.Close()

	sentSentinel := false
	for resp.Next() {
		event := resp.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		if !sentSentinel {
			if !s.emit(ctx, streamEvent{value: element.AppendOnlySentinel}) {
				return
			}
			sentSentinel = true
		}
		if !s.emit(ctx, streamEvent{value: text.Text}) {
			return
		}
	}

	if err := resp.Err(); err != nil {
		s.emit(ctx, streamEvent{err: aierrors.Runtimef(aierrors.CodeProviderAPIError, err, "anthropic: streaming request failed")})
	}
}

func (s *stream) emit(ctx context.Context, ev streamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Next implements element.Producer.
func (s *stream) Next(ctx context.Context) (element.Node, bool, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return nil, true, nil
		}
		if ev.err != nil {
			return nil, true, ev.err
		}
		return ev.value, false, nil
	case <-ctx.Done():
		return nil, true, ctx.Err()
	}
}

// Close implements element.Producer.
func (s *stream) Close() { s.cancel() }

var _ element.Producer = (*stream)(nil)

// IsRetryable reports whether err looks like a transient Anthropic API
// failure (rate limit or server overload) worth a retry by a
// collaborator above this one; the core itself never retries.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "overloaded") || strings.Contains(msg, "rate_limit")
}
