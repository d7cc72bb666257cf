package main

import (
	"context"
	"fmt"

	"github.com/kadirpekel/streamtree/logging"
	"github.com/kadirpekel/streamtree/render"
	"github.com/kadirpekel/streamtree/toolrun"
)

// RenderCmd renders a single prompt through one configured provider to
// completion and prints the result — the non-interactive counterpart to
// ChatCmd, for scripting and quick checks.
type RenderCmd struct {
	Provider string `help:"Provider to use (anthropic, openai, gemini)." default:"anthropic"`
	System   string `help:"System prompt."`
	Prompt   string `arg:"" help:"The prompt to render."`
}

func (c *RenderCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	ctx := context.Background()
	build, err := resolveProvider(ctx, cfg, c.Provider)
	if err != nil {
		return err
	}

	node, err := build(c.System, []toolrun.Message{{Role: "user", Content: c.Prompt}})
	if err != nil {
		return err
	}

	logger := logging.New(logging.ParseLevel(cli.LogLevel))
	rc := render.CreateRenderContext(render.Options{Logger: &logger})

	text, err := rc.Render(node)
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
