// Package gemini adapts the Gemini GenerateContent streaming API to a
// streamtree ChatModel collaborator (SPEC_FULL.md §3.F), grounded
// directly on the teacher's own pkg/model/gemini package: the same
// google.golang.org/genai client and GenerateContentStream iterator,
// narrowed to plain text turns instead of the teacher's full tool-call
// and thinking-block aggregation.
package gemini

import (
	"context"

	"google.golang.org/genai"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/element"
)

// Message mirrors providers/anthropic.Message and providers/openai.Message.
type Message struct {
	Role    string // "user" | "assistant"
	Content string
}

// ChatModel is the element tag for a Gemini-backed chat completion.
type ChatModel struct {
	client *genai.Client
	model  string
}

// New constructs a ChatModel from config.GeminiConfig.
func New(ctx context.Context, cfg config.GeminiConfig) (*ChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, aierrors.Runtimef(aierrors.CodeProviderAPIError, err, "gemini: failed to create client")
	}
	return &ChatModel{client: client, model: cfg.Model}, nil
}

// Chat is the ComponentFunc bound to elements built with this model.
// props["messages"] must be a []Message; props["system"], if present,
// is sent as the system instruction.
func (m *ChatModel) Chat(props element.Props, cc element.Context) (element.Node, error) {
	messages, _ := props["messages"].([]Message)
	if len(messages) == 0 {
		return nil, aierrors.Userf(aierrors.CodeChatCompletionMissingChildren, "gemini.Chat: at least one message is required").WithTag("gemini.Chat")
	}
	system, _ := props["system"].(string)

	contents := adaptMessages(messages)
	genConfig := &genai.GenerateContentConfig{}
	if system != "" {
		genConfig.SystemInstruction = &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: system}},
		}
	}

	return newStream(m.client, m.model, contents, genConfig), nil
}

func adaptMessages(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}
	return out
}

type streamEvent struct {
	value element.Node
	err   error
}

// stream is a Producer over genai's GenerateContentStream iterator,
// sentinel-prefixed append-only the same way the other providers are.
type stream struct {
	cancel context.CancelFunc
	events chan streamEvent
}

func newStream(client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) *stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &stream{cancel: cancel, events: make(chan streamEvent, 16)}
	go s.run(ctx, client, model, contents, cfg)
	return s
}

func (s *stream) run(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) {
	defer close(s.events)

	sentSentinel := false
	for resp, err := range client.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if err != nil {
			s.emit(ctx, streamEvent{err: aierrors.Runtimef(aierrors.CodeProviderAPIError, err, "gemini: streaming request failed")})
			return
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			if !sentSentinel {
				if !s.emit(ctx, streamEvent{value: element.AppendOnlySentinel}) {
					return
				}
				sentSentinel = true
			}
			if !s.emit(ctx, streamEvent{value: part.Text}) {
				return
			}
		}
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
