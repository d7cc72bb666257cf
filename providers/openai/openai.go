// Package openai adapts the OpenAI Chat Completions API to a streamtree
// ChatModel collaborator (SPEC_FULL.md §3.F), grounded on the teacher's
// llms/openai.go request-building shape but built on the real
// openai-go/v2 client and its streaming iterator instead of a hand-rolled
// SSE scanner.
package openai

import (
	"context"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/element"
)

// Message mirrors providers/anthropic.Message so collaborators above the
// provider layer (toolrun, docqa) can build one conversation and hand it
// to whichever ChatModel is configured.
type Message struct {
	Role    string // "system" | "user" | "assistant" | "tool"
	Content string
}

// ChatModel is the element tag for an OpenAI-backed chat completion.
type ChatModel struct {
	sdk       sdk.Client
	model     string
	maxTokens int64
}

// New constructs a ChatModel from config.OpenAIConfig.
func New(cfg config.OpenAIConfig) *ChatModel {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &ChatModel{
		sdk:       sdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
}

// Chat is the ComponentFunc bound to elements built with this model.
// props["messages"] must be a []Message; props["system"], if present,
// is sent as a leading system message.
func (m *ChatModel) Chat(props element.Props, cc element.Context) (element.Node, error) {
	messages, _ := props["messages"].([]Message)
	if len(messages) == 0 {
		return nil, aierrors.Userf(aierrors.CodeChatCompletionMissingChildren, "openai.Chat: at least one message is required").WithTag("openai.Chat")
	}
	system, _ := props["system"].(string)

	adapted := adaptMessages(messages)
	if system != "" {
		adapted = append([]sdk.ChatCompletionMessageParamUnion{sdk.SystemMessage(system)}, adapted...)
	}

	params := sdk.ChatCompletionNewParams{
		Model:               sdk.ChatModel(m.model),
		Messages:            adapted,
		MaxCompletionTokens: sdk.Int(m.maxTokens),
	}

	return newStream(m.sdk, params), nil
}

func adaptMessages(msgs []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			out = append(out, sdk.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, sdk.AssistantMessage(msg.Content))
		case "tool":
			out = append(out, sdk.ToolMessage(msg.Content, ""))
		default:
			out = append(out, sdk.UserMessage(msg.Content))
		}
	}
	return out
}

type streamEvent struct {
	value element.Node
	err   error
}

// stream is a Producer over an OpenAI chat completion stream, sentinel-
// prefixed append-only the same way providers/anthropic.stream is.
type stream struct {
	cancel context.CancelFunc
	events chan streamEvent
}

func newStream(client sdk.Client, params sdk.ChatCompletionNewParams) *stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &stream{cancel: cancel, events: make(chan streamEvent, 16)}
	go s.run(ctx, client, params)
	return s
}

func (s *stream) run(ctx context.Context, client sdk.Client, params sdk.ChatCompletionNewParams) {
	defer close(s.events)

	resp := client.Chat.Completions.NewStreaming(ctx, params)
	defer resp.Close()

	sentSentinel := false
	for resp.Next() {
		chunk := resp.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		if text == "" {
			continue
		}
		if !sentSentinel {
			if !s.emit(ctx, streamEvent{value: element.AppendOnlySentinel}) {
				return
			}
			sentSentinel = true
		}
		if !s.emit(ctx, streamEvent{value: text}) {
			return
		}
	}

	if err := resp.Err(); err != nil {
		s.emit(ctx, streamEvent{err: aierrors.Runtimef(aierrors.CodeProviderAPIError, err, "openai: streaming request failed")})
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
