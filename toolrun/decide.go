package toolrun

import "github.com/kadirpekel/streamtree/element"

// decideRender fully renders props["chat"] under cc, then interprets the
// settled text: a well-formed tool-call envelope becomes a <ToolCall>
// element (which Loop's Stop predicate arrests when the renderer recurses
// into this component's result); anything else is the model's final answer, returned
// verbatim as a leaf Node.
func decideRender(props element.Props, cc element.Context) (element.Node, error) {
	chat, _ := props["chat"].(element.Node)

	text, err := cc.Render(chat)
	if err != nil {
		return nil, err
	}

	if env, ok := parseEnvelope(text); ok {
		return NewToolCall(env.Tool, env.Args)
	}
	return text, nil
}

var decideTag = element.ComponentFunc(decideRender)

// NewDecision wraps a chat element (any of providers/anthropic,
// providers/openai, providers/gemini's Chat-bound elements) so its output
// is interpreted as either plain text or a tool call, per the protocol
// SystemPrompt describes to the model.
func NewDecision(chat element.Node) (*element.Element, error) {
	return element.CreateElement(decideTag, element.Props{"chat": chat})
}
