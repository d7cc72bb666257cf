package toolrun

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/config"
)

// Collaborator error codes, per aierrors' "collaborators mint their own
// codes starting at CollaboratorCodeBase" convention (aierrors.go).
const (
	CodeUnknownTool aierrors.Code = aierrors.CollaboratorCodeBase + iota
	CodeToolFailed
	CodeMaxToolCallsExceeded
	CodeMCPConnectFailed
)

// Tool is anything a Loop can invoke by name, grounded on hector's
// pkg/tool.CallableTool shape: a name, a description, an
// invopop/jsonschema-derived argument schema, and a synchronous call.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Call(ctx context.Context, args map[string]any) (string, error)
}

// FuncTool adapts a typed Go function to Tool, deriving its schema from T
// the same way hector's functiontool package does (RequiredFromJSONSchemaTags,
// ExpandedStruct, DoNotReference), so a Go struct with `json`/`jsonschema`
// tags is the tool's entire interface contract.
type FuncTool[T any] struct {
	name   string
	desc   string
	schema map[string]any
	fn     func(ctx context.Context, args T) (string, error)
}

// NewFuncTool builds a FuncTool over fn, reflecting T's schema eagerly so
// construction fails fast on an unreflectable argument type.
func NewFuncTool[T any](name, desc string, fn func(ctx context.Context, args T) (string, error)) (*FuncTool[T], error) {
	schema, err := generateSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("toolrun: failed to derive schema for tool %q: %w", name, err)
	}
	return &FuncTool[T]{name: name, desc: desc, schema: schema, fn: fn}, nil
}

func (t *FuncTool[T]) Name() string           { return t.name }
func (t *FuncTool[T]) Description() string    { return t.desc }
func (t *FuncTool[T]) Schema() map[string]any { return t.schema }

func (t *FuncTool[T]) Call(ctx context.Context, args map[string]any) (string, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("toolrun: failed to marshal args for tool %q: %w", t.name, err)
	}
	var typed T
	if err := json.Unmarshal(data, &typed); err != nil {
		return "", fmt.Errorf("toolrun: args for tool %q do not match its schema: %w", t.name, err)
	}
	return t.fn(ctx, typed)
}

// generateSchema mirrors hector's pkg/tool/functiontool/schema.go
// generateSchema[T], unchanged in approach: reflect T into a JSON schema
// suitable for embedding in a model prompt (SystemPrompt).
func generateSchema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	delete(result, "$schema")
	delete(result, "$id")
	return result, nil
}

// Registry holds the tools a Loop may call, by name — local FuncTools
// plus, optionally, tools discovered from one or more MCP stdio servers.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	clients []*client.Client
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t to the registry, keyed by t.Name(). A later
// registration with the same name replaces the earlier one.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool, for building a SystemPrompt.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Close shuts down every MCP client this registry opened via DiscoverMCP.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, c := range r.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.clients = nil
	return firstErr
}

// DiscoverMCP connects to the stdio MCP server named by cfg, lists its
// tools, and registers each as a Tool that proxies Call through the MCP
// session — grounded directly on hector's
// pkg/tool/mcptoolset.Toolset.connectStdio (client.NewStdioMCPClient ->
// Start -> Initialize -> ListTools) and mcpToolWrapper.callStdio/
// parseToolResponse (mcp.CallToolRequest -> CallTool -> text-content
// extraction).
func (r *Registry) DiscoverMCP(ctx context.Context, cfg config.MCPServerConfig) error {
	mcpClient, err := client.NewStdioMCPClient(cfg.Command, nil, cfg.Args...)
	if err != nil {
		return aierrors.Runtimef(CodeMCPConnectFailed, err, "toolrun: failed to start MCP server %q", cfg.Name)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return aierrors.Runtimef(CodeMCPConnectFailed, err, "toolrun: failed to start MCP client for %q", cfg.Name)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "streamtree", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return aierrors.Runtimef(CodeMCPConnectFailed, err, "toolrun: failed to initialize MCP server %q", cfg.Name)
	}

	listResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return aierrors.Runtimef(CodeMCPConnectFailed, err, "toolrun: failed to list tools from MCP server %q", cfg.Name)
	}

	for _, mt := range listResp.Tools {
		r.Register(&mcpTool{
			client: mcpClient,
			name:   mt.Name,
			desc:   mt.Description,
			schema: convertMCPSchema(mt.InputSchema),
		})
	}

	r.mu.Lock()
	r.clients = append(r.clients, mcpClient)
	r.mu.Unlock()
	return nil
}

// mcpTool adapts one MCP server-exposed tool to the Tool interface.
type mcpTool struct {
	client *client.Client
	name   string
	desc   string
	schema map[string]any
}

func (t *mcpTool) Name() string           { return t.name }
func (t *mcpTool) Description() string    { return t.desc }
func (t *mcpTool) Schema() map[string]any { return t.schema }

func (t *mcpTool) Call(ctx context.Context, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = args

	resp, err := t.client.CallTool(ctx, req)
	if err != nil {
		return "", aierrors.Runtimef(CodeToolFailed, err, "toolrun: MCP call to %q failed", t.name)
	}
	return parseMCPResult(t.name, resp)
}

// parseMCPResult mirrors mcpToolWrapper.parseToolResponse: join every
// text-content block, and turn resp.IsError into a Go error rather than a
// silently-swallowed "error" field, since Loop needs a real error to stop
// the tool-use loop on a failed call (the Non-goal is no *retry*, not no
// error surfacing).
func parseMCPResult(name string, resp *mcp.CallToolResult) (string, error) {
	var text string
	for _, c := range resp.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			if text != "" {
				text += "\n"
			}
			text += tc.Text
		}
	}
	if resp.IsError {
		return "", aierrors.Runtimef(CodeToolFailed, fmt.Errorf("%s", text), "toolrun: MCP tool %q reported an error", name)
	}
	return text, nil
}

// convertMCPSchema mirrors mcptoolset.convertSchema: round-trip through
// JSON to get a plain map[string]any out of mcp.ToolInputSchema.
func convertMCPSchema(schema mcp.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
