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

// chatBuilder mirrors cmd/streamtree's own chatBuilder seam; duplicated
// rather than imported because the two commands are separate `package
// main`s (Go has no notion of importing one binary's package from
// another). The shape and the provider selection match; unlike
// cmd/streamtree, this copy does not remap a "tool" role for Gemini,
// since the server's history only ever holds one user turn.
type chatBuilder func(system string, history []toolrun.Message) (element.Node, error)

func resolveProvider(ctx context.Context, cfg *config.Config, name string) (chatBuilder, error) {
	switch name {
	case "anthropic":
		if cfg.Providers.Anthropic == nil {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		model := anthropic.New(*cfg.Providers.Anthropic)
		return func(system string, history []toolrun.Message) (element.Node, error) {
			msgs := make([]anthropic.Message, len(history))
			for i, m := range history {
				msgs[i] = anthropic.Message{Role: m.Role, Content: m.Content}
			}
			return element.CreateElement(element.ComponentFunc(model.Chat), element.Props{
				"system":   system,
				"messages": msgs,
			})
		}, nil

	case "openai":
		if cfg.Providers.OpenAI == nil {
			return nil, fmt.Errorf("provider %q is not configured", name)
		}
		model := openai.New(*cfg.Providers.OpenAI)
		return func(system string, history []toolrun.Message) (element.Node, error) {
			msgs := make([]openai.Message, len(history))
			for i, m := range history {
				msgs[i] = openai.Message{Role: m.Role, Content: m.Content}
			}
			return element.CreateElement(element.ComponentFunc(model.Chat), element.Props{
				"system":   system,
				"messages": msgs,
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
			msgs := make([]gemini.Message, 0, len(history)+1)
			if system != "" {
				msgs = append(msgs, gemini.Message{Role: "user", Content: system})
			}
			for _, m := range history {
				msgs = append(msgs, gemini.Message{Role: m.Role, Content: m.Content})
			}
			return element.CreateElement(element.ComponentFunc(model.Chat), element.Props{
				"messages": msgs,
			})
		}, nil

	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic, openai, or gemini)", name)
	}
}
