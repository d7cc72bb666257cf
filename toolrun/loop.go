package toolrun

import (
	"context"
	"strings"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/element"
	"github.com/kadirpekel/streamtree/render"
)

// Message is one turn of the conversation a Loop drives. It is
// provider-agnostic — Build is responsible for translating history into
// whichever Message type the chosen ChatModel collaborator expects.
type Message struct {
	Role    string // "user" | "assistant" | "tool"
	Content string
}

// Build constructs the next decision element (ordinarily
// toolrun.NewDecision wrapping a provider ChatModel element) from the
// conversation so far.
type Build func(history []Message) (element.Node, error)

// Loop drives the tool-use strategy SPEC_FULL.md §3.F describes: render a
// decision element; if it stops on a <ToolCall>, execute it and re-render
// with the result appended to history, up to maxCalls times. Loop
// performs no retries against the tool or the model — a failed tool call
// or a failed render surfaces immediately as an error (SPEC_FULL.md §3.F
// Non-goals: "toolrun performs no retries against the remote tool/model").
type Loop struct {
	registry *Registry
	maxCalls int
}

// NewLoop constructs a Loop bound to registry, capped at maxCalls tool
// invocations per Run (config.ToolRunConfig.MaxToolCalls).
func NewLoop(registry *Registry, maxCalls int) *Loop {
	return &Loop{registry: registry, maxCalls: maxCalls}
}

// Run drives the loop to completion and returns the model's final answer.
func (l *Loop) Run(ctx context.Context, rc *render.RenderContext, history []Message, build Build) (string, error) {
	for i := 0; i < l.maxCalls; i++ {
		node, err := build(history)
		if err != nil {
			return "", err
		}

		parts, err := render.RenderParts(ctx, rc, node, render.RenderOptions{Stop: IsToolCall})
		if err != nil {
			return "", err
		}

		call, text := splitParts(parts)
		if call == nil {
			return text, nil
		}

		args := ParseToolCall(call)
		tool, ok := l.registry.Get(args.Name)
		if !ok {
			return "", aierrors.Userf(CodeUnknownTool, "toolrun: model requested unknown tool %q", args.Name).WithTag(args.Name)
		}

		result, err := tool.Call(ctx, args.Args)
		if err != nil {
			return "", aierrors.Runtimef(CodeToolFailed, err, "toolrun: tool %q failed", args.Name).WithTag(args.Name)
		}

		history = append(history,
			Message{Role: "assistant", Content: toolCallSummary(args)},
			Message{Role: "tool", Content: result},
		)
	}
	return "", aierrors.Userf(CodeMaxToolCallsExceeded, "toolrun: exceeded %d tool calls without a final answer", l.maxCalls)
}

// splitParts separates a stopped <ToolCall> element (if any) from the
// concatenated text the rest of the frame's parts contribute.
func splitParts(parts render.Frame) (*element.Element, string) {
	var call *element.Element
	var text strings.Builder
	for _, p := range parts {
		if p.Element != nil {
			call = p.Element
			continue
		}
		text.WriteString(p.Text)
	}
	return call, text.String()
}

func toolCallSummary(args ToolCallArgs) string {
	return "called tool " + args.Name
}
