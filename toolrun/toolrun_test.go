package toolrun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/streamtree/element"
	"github.com/kadirpekel/streamtree/render"
)

func TestIsToolCallRecognizesOnlyToolCallElements(t *testing.T) {
	call, err := NewToolCall("search", map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.True(t, IsToolCall(call))

	other, err := element.CreateElement(element.ComponentFunc(func(props element.Props, cc element.Context) (element.Node, error) {
		return "hi", nil
	}), nil)
	require.NoError(t, err)
	assert.False(t, IsToolCall(other))
}

func TestParseToolCallRoundTrips(t *testing.T) {
	call, err := NewToolCall("search", map[string]any{"query": "go"})
	require.NoError(t, err)

	args := ParseToolCall(call)
	assert.Equal(t, "search", args.Name)
	assert.Equal(t, "go", args.Args["query"])
}

func TestParseEnvelope(t *testing.T) {
	env, ok := parseEnvelope(`{"tool": "search", "args": {"query": "go"}}`)
	require.True(t, ok)
	assert.Equal(t, "search", env.Tool)

	env, ok = parseEnvelope("```json\n" + `{"tool": "search", "args": {}}` + "\n```")
	require.True(t, ok)
	assert.Equal(t, "search", env.Tool)

	_, ok = parseEnvelope("just a plain final answer")
	assert.False(t, ok)
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"required,description=search query"`
}

func TestFuncToolCallsTypedFunction(t *testing.T) {
	tool, err := NewFuncTool("search", "searches the web", func(ctx context.Context, args searchArgs) (string, error) {
		return "results for " + args.Query, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "search", tool.Name())
	assert.NotEmpty(t, tool.Schema())

	out, err := tool.Call(context.Background(), map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "results for go", out)
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	tool, err := NewFuncTool("echo", "echoes", func(ctx context.Context, args searchArgs) (string, error) {
		return args.Query, nil
	})
	require.NoError(t, err)
	reg.Register(tool)

	got, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestLoopRunReturnsPlainAnswerWithoutToolCall(t *testing.T) {
	reg := NewRegistry()
	loop := NewLoop(reg, 4)
	rc := render.CreateRenderContext(render.Options{})

	build := func(history []Message) (element.Node, error) {
		return "final answer", nil
	}

	answer, err := loop.Run(context.Background(), rc, nil, build)
	require.NoError(t, err)
	assert.Equal(t, "final answer", answer)
}

func TestLoopRunExecutesToolThenFinishes(t *testing.T) {
	reg := NewRegistry()
	tool, err := NewFuncTool("search", "searches", func(ctx context.Context, args searchArgs) (string, error) {
		return "42", nil
	})
	require.NoError(t, err)
	reg.Register(tool)

	loop := NewLoop(reg, 4)
	rc := render.CreateRenderContext(render.Options{})

	calls := 0
	build := func(history []Message) (element.Node, error) {
		calls++
		if calls == 1 {
			return NewToolCall("search", map[string]any{"query": "go"})
		}
		return "the answer is 42", nil
	}

	answer, err := loop.Run(context.Background(), rc, nil, build)
	require.NoError(t, err)
	assert.Equal(t, "the answer is 42", answer)
	assert.Equal(t, 2, calls)
}

func TestLoopRunRejectsUnknownTool(t *testing.T) {
	reg := NewRegistry()
	loop := NewLoop(reg, 4)
	rc := render.CreateRenderContext(render.Options{})

	build := func(history []Message) (element.Node, error) {
		return NewToolCall("nope", nil)
	}

	_, err := loop.Run(context.Background(), rc, nil, build)
	require.Error(t, err)
}

func TestSystemPromptListsTools(t *testing.T) {
	tool, err := NewFuncTool("search", "searches the web", func(ctx context.Context, args searchArgs) (string, error) {
		return "", nil
	})
	require.NoError(t, err)

	prompt := SystemPrompt([]Tool{tool})
	assert.Contains(t, prompt, "search")
	assert.Contains(t, prompt, "searches the web")
}
