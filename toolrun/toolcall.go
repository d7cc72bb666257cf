// Package toolrun implements the tool-use strategy collaborator
// (SPEC_FULL.md §3.F): given a decision element that may answer in plain
// text or ask to invoke a tool, a Loop renders it with a Stop predicate
// that arrests on a <ToolCall> element, executes the call, and re-enters
// rendering with the result appended to the conversation.
package toolrun

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/kadirpekel/streamtree/element"
)

// ToolCallArgs is the shape a <ToolCall> element's props carry.
type ToolCallArgs struct {
	Name string
	Args map[string]any
}

// toolCallRender is never actually invoked: Loop's Stop predicate arrests
// a <ToolCall> element before the renderer calls its render function
// (spec.md §4.C "Return shape when stop is present"). It exists only so
// ToolCall has a ComponentFunc identity distinct from any other tag.
func toolCallRender(props element.Props, cc element.Context) (element.Node, error) {
	return nil, nil
}

// toolCallTag is the comparable identity of the <ToolCall> intrinsic.
// element.Tag is declared interface{}, and a ComponentFunc is a Go
// function value — two function values cannot be compared with ==, so
// recognizing "is this element tagged ToolCall" goes through
// reflect.Value.Pointer() identity instead (the standard Go idiom for
// comparing func values, used the same way net/http's ServeMux compares
// handler identities in its tests).
var toolCallTag = element.ComponentFunc(toolCallRender)

// NewToolCall constructs the opaque element a decision component returns
// when it wants the enclosing Loop to execute a tool (SPEC_FULL.md §3.F
// "stops ... on a <ToolCall> element").
func NewToolCall(name string, args map[string]any) (*element.Element, error) {
	return element.CreateElement(toolCallTag, element.Props{
		"name": name,
		"args": args,
	})
}

// IsToolCall is the Stop predicate Loop passes to render.RenderParts. It
// survives memoization because memo.Wrap preserves the element's
// originalTag (element.NewMemoElement's doc comment).
func IsToolCall(el *element.Element) bool {
	tag, ok := el.Tag().(element.ComponentFunc)
	if !ok {
		return false
	}
	return reflect.ValueOf(tag).Pointer() == reflect.ValueOf(toolCallTag).Pointer()
}

// ParseToolCall extracts the name/args a <ToolCall> element carries. It
// does not check IsToolCall: for any other element it returns whatever
// "name"/"args" props it finds, an empty Name and nil Args if absent.
func ParseToolCall(el *element.Element) ToolCallArgs {
	props := el.Props()
	name, _ := props["name"].(string)
	args, _ := props["args"].(map[string]any)
	return ToolCallArgs{Name: name, Args: args}
}

// toolCallEnvelope is the wire shape a decision component's model is
// instructed (via SystemPrompt) to emit when it wants to call a tool.
type toolCallEnvelope struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// parseEnvelope reports whether text is exactly one tool-call envelope,
// tolerating the surrounding whitespace and ``` fencing models routinely
// add despite being told not to.
func parseEnvelope(text string) (toolCallEnvelope, bool) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var env toolCallEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return toolCallEnvelope{}, false
	}
	if env.Tool == "" {
		return toolCallEnvelope{}, false
	}
	return env, true
}
