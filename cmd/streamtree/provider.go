package main

import (
	"context"
	"fmt"

	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/element"
	"github.com/kadirpekel/streamtree/providers/anthropic"
	"github.com/kadirpekel/streamtree/providers/gemini"
	"github.com/kadirpekel/streamtree/providers/openai"
	"github.com/kadirpekel/streamtree/toolrun"
)

// chatBuilder turns a provider-agnostic conversation into the element.Node
// a render.Render*/toolrun.Loop call renders — the same "one conversation,
// whichever ChatModel is configured" seam providers/openai's doc comment
// describes.
type chatBuilder func(system string, history []toolrun.Message) (element.Node, error)

// resolveProvider picks the ChatModel backing name out of cfg.Providers,
// matching cmd/hector's --provider flag convention of naming one of the
// configured backends rather than inlining credentials on the command
// line.
func resolveProvider(ctx context.Context, cfg *config.Config, name string) (chatBuilder, error) {
	switch name {
	case "anthropic":
		if cfg.Providers.Anthropic == nil {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		model := anthropic.New(*cfg.Providers.Anthropic)
		return func(system string, history []toolrun.Message) (element.Node, error) {
			return element.CreateElement(element.ComponentFunc(model.Chat), element.Props{
				"system":   system,
				"messages": toAnthropicMessages(history),
			})
		}, nil

	case "openai":
		if cfg.Providers.OpenAI == nil {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		model := openai.New(*cfg.Providers.OpenAI)
		return func(system string, history []toolrun.Message) (element.Node, error) {
			return element.CreateElement(element.ComponentFunc(model.Chat), element.Props{
				"system":   system,
				"messages": toOpenAIMessages(history),
			})
		}, nil

	case "gemini":
		if cfg.Providers.Gemini == nil {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		model, err := gemini.New(ctx, *cfg.Providers.Gemini)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return func(system string, history []toolrun.Message) (element.Node, error) {
			msgs := toGeminiMessages(history)
			if system != "" {
				msgs = append([]gemini.Message{{Role: "user", Content: system}}, msgs...)
			}
			return element.CreateElement(element.ComponentFunc(model.Chat), element.Props{
				"messages": msgs,
			})
		}, nil

	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic, openai, or gemini)", name)
	}
}

func toAnthropicMessages(history []toolrun.Message) []anthropic.Message {
	out := make([]anthropic.Message, len(history))
	for i, m := range history {
		out[i] = anthropic.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func toOpenAIMessages(history []toolrun.Message) []openai.Message {
	out := make([]openai.Message, len(history))
	for i, m := range history {
		out[i] = openai.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func toGeminiMessages(history []toolrun.Message) []gemini.Message {
	out := make([]gemini.Message, len(history))
	for i, m := range history {
		role := m.Role
		if role == "tool" {
			role = "user" // Gemini's plain-text Message has no distinct tool role.
		}
		out[i] = gemini.Message{Role: role, Content: m.Content}
	}
	return out
}
