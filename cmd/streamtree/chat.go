package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kadirpekel/streamtree/element"
	"github.com/kadirpekel/streamtree/inspect"
	"github.com/kadirpekel/streamtree/logging"
	"github.com/kadirpekel/streamtree/render"
	"github.com/kadirpekel/streamtree/toolrun"
)

// ChatCmd drives an interactive terminal chat session, in the spirit of
// cmd/hector/chat_direct.go's bufio.NewReader(os.Stdin) /quit-/exit-
// /clear command loop — generalized to stream through inspect.Inspector
// rather than a bare fmt.Print, and optionally to loop through tool calls
// via toolrun.Loop when --tools is set.
type ChatCmd struct {
	Provider string `help:"Provider to use (anthropic, openai, gemini)." default:"anthropic"`
	System   string `help:"System prompt."`
	Markdown bool   `help:"Render replies as ANSI-formatted Markdown."`
	Tools    bool   `help:"Enable a small built-in demo toolset (time, echo)."`

	maxToolCalls int
}

func (c *ChatCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	ctx := context.Background()
	build, err := resolveProvider(ctx, cfg, c.Provider)
	if err != nil {
		return err
	}

	c.maxToolCalls = cfg.ToolRun.MaxToolCalls

	var registry *toolrun.Registry
	if c.Tools {
		registry = toolrun.NewRegistry()
		if err := registerDemoTools(registry); err != nil {
			return err
		}
		for _, srv := range cfg.ToolRun.MCPServers {
			if err := registry.DiscoverMCP(ctx, srv); err != nil {
				return fmt.Errorf("mcp server %q: %w", srv.Name, err)
			}
		}
		defer registry.Close()
	}

	logger := logging.New(logging.ParseLevel(cli.LogLevel))

	fmt.Println("streamtree chat — /quit to exit, /clear to reset history")
	reader := bufio.NewReader(os.Stdin)
	var history []toolrun.Message

	for {
		fmt.Print("> ")
		line, readErr := reader.ReadString('\n')
		line = strings.TrimSpace(line)

		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			history = nil
			continue
		case "":
			if readErr != nil {
				return nil
			}
			continue
		}

		history = append(history, toolrun.Message{Role: "user", Content: line})
		rc := render.CreateRenderContext(render.Options{Logger: &logger})

		answer, err := c.respond(ctx, rc, registry, build, history)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			history = history[:len(history)-1]
			continue
		}

		history = append(history, toolrun.Message{Role: "assistant", Content: answer})

		if readErr != nil {
			return nil
		}
	}
}

// respond drives one turn to completion: with --tools, through
// toolrun.Loop (which needs the fully-settled answer to decide whether to
// invoke another tool, so that path prints only once it has one); without
// tools, it streams the reply live through an Inspector.
func (c *ChatCmd) respond(ctx context.Context, rc *render.RenderContext, registry *toolrun.Registry, build chatBuilder, history []toolrun.Message) (string, error) {
	if registry != nil {
		system := c.System
		prompt := toolrun.SystemPrompt(registry.List())
		if system != "" {
			system = system + "\n\n" + prompt
		} else {
			system = prompt
		}

		loop := toolrun.NewLoop(registry, c.maxToolCalls)
		answer, err := loop.Run(ctx, rc, history, func(h []toolrun.Message) (element.Node, error) {
			chat, err := build(system, h)
			if err != nil {
				return nil, err
			}
			return toolrun.NewDecision(chat)
		})
		if err != nil {
			return "", err
		}
		fmt.Println(answer)
		return answer, nil
	}

	node, err := build(c.System, history)
	if err != nil {
		return "", err
	}

	stream, err := render.RenderStream(ctx, rc, node, render.RenderOptions{})
	if err != nil {
		return "", err
	}

	var opts []inspect.Option
	if c.Markdown {
		opts = append(opts, inspect.WithMarkdown())
	}
	ins := inspect.New(os.Stdout, true, opts...)
	return ins.Watch(ctx, stream)
}
