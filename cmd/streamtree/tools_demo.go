package main

import (
	"context"
	"time"

	"github.com/kadirpekel/streamtree/toolrun"
)

// echoArgs is the argument shape for the "echo" demo tool; its jsonschema
// tag is what toolrun.NewFuncTool reflects into the schema SystemPrompt
// embeds in the model's instructions.
type echoArgs struct {
	Text string `json:"text" jsonschema:"required,description=text to echo back"`
}

type timeArgs struct{}

// registerDemoTools wires a couple of trivial local tools into reg so
// ChatCmd's --tools flag has something to exercise toolrun.Loop with
// even when no MCP server is configured.
func registerDemoTools(reg *toolrun.Registry) error {
	now, err := toolrun.NewFuncTool("time", "returns the current UTC time", func(ctx context.Context, args timeArgs) (string, error) {
		return time.Now().UTC().Format(time.RFC3339), nil
	})
	if err != nil {
		return err
	}
	reg.Register(now)

	echo, err := toolrun.NewFuncTool("echo", "echoes back the given text", func(ctx context.Context, args echoArgs) (string, error) {
		return args.Text, nil
	})
	if err != nil {
		return err
	}
	reg.Register(echo)

	return nil
}
