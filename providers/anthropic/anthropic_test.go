package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/element"
)

func TestChatRejectsEmptyMessages(t *testing.T) {
	m := New(testConfig())
	_, err := m.Chat(element.Props{}, nil)
	require.Error(t, err)
	var aerr *aierrors.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, aierrors.CodeChatCompletionMissingChildren, aerr.Code)
	assert.Equal(t, "anthropic.Chat", aerr.Tag)
}

func TestAdaptMessagesUserAndAssistant(t *testing.T) {
	out := adaptMessages([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	assert.Len(t, out, 2)
}

func TestAdaptMessagesToolResult(t *testing.T) {
	out := adaptMessages([]Message{
		{Role: "tool", ToolUseID: "call_1", Content: "42"},
	})
	assert.Len(t, out, 1)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
}

func testConfig() config.AnthropicConfig {
	return config.AnthropicConfig{APIKey: "test", Model: "claude-sonnet-4-5", MaxTokens: 256}
}
